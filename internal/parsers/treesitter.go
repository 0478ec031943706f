package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterParser provides common tree-sitter parsing functionality.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

// parse runs the grammar over source and hands the root node to fn.
// The tree is released when fn returns. Returns false when the source could
// not be parsed at all.
func (p *treeSitterParser) parse(source []byte, fn func(root *sitter.Node)) bool {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return false
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return false
	}
	defer tree.Close()

	fn(tree.RootNode())
	return true
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// startLine returns the 1-indexed line a node begins on.
func startLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// endLine returns the 1-indexed line a node ends on.
func endLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}
