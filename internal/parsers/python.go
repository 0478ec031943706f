package parsers

import (
	"sync"
	"sync/atomic"

	"github.com/mvp-joe/resgraph/internal/extraction"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

const (
	pythonFunctionNode = "function_definition"
	pythonClassNode    = "class_definition"
)

// pythonParser extracts declarations through the tree-sitter Python grammar.
type pythonParser struct {
	*treeSitterParser
}

func newPythonParser() *pythonParser {
	lang := sitter.NewLanguage(python.Language())
	return &pythonParser{
		treeSitterParser: newTreeSitterParser(lang, "python"),
	}
}

// NewPythonExtractor creates a grammar-aware symbol extractor. Like the text
// extractor it reports methods and nested functions as plain functions.
func NewPythonExtractor() SymbolExtractor {
	return newPythonParser()
}

// Extract implements SymbolExtractor.
func (p *pythonParser) Extract(source string) []extraction.Symbol {
	src := []byte(source)
	symbols := []extraction.Symbol{}

	p.parse(src, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			var kind extraction.SymbolKind
			switch n.Kind() {
			case pythonFunctionNode:
				kind = extraction.KindFunction
			case pythonClassNode:
				kind = extraction.KindClass
			default:
				return true
			}

			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return true
			}
			symbols = append(symbols, extraction.Symbol{
				Name: extractNodeText(nameNode, src),
				Kind: kind,
				Line: startLine(nameNode),
			})
			return true
		})
	})

	return symbols
}

// boundaryCacheSize bounds how many parsed sources pythonBoundary keeps.
const boundaryCacheSize = 32

// pythonBoundary resolves body extents from the syntax tree and falls back to
// TextBoundary when no definition starts on the requested line. Each source
// is parsed once; the end line of every definition is kept for the calls
// that follow on the same text.
type pythonBoundary struct {
	parser *pythonParser
	parses atomic.Int64

	mu   sync.Mutex
	ends map[string]map[int]int // source -> name line -> end line
}

// NewPythonBoundary creates a grammar-aware BoundaryDetector.
func NewPythonBoundary() BoundaryDetector {
	return &pythonBoundary{parser: newPythonParser(), ends: make(map[string]map[int]int)}
}

// EndLine implements BoundaryDetector.
func (b *pythonBoundary) EndLine(source string, start int) int {
	lines := SplitLines(source)

	end, ok := b.endLines(source)[start]
	if !ok {
		return textEndLine(lines, start)
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	return end
}

func (b *pythonBoundary) endLines(source string) map[int]int {
	b.mu.Lock()
	ends, ok := b.ends[source]
	b.mu.Unlock()
	if ok {
		return ends
	}

	ends = b.parseEnds(source)

	b.mu.Lock()
	if len(b.ends) >= boundaryCacheSize {
		clear(b.ends)
	}
	b.ends[source] = ends
	b.mu.Unlock()
	return ends
}

// parseEnds maps the name line of every definition to its last line. When
// two definitions share a line the outer one wins.
func (b *pythonBoundary) parseEnds(source string) map[int]int {
	b.parses.Add(1)
	ends := make(map[int]int)
	b.parser.parse([]byte(source), func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			if n.Kind() != pythonFunctionNode && n.Kind() != pythonClassNode {
				return true
			}
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				line := startLine(nameNode)
				if _, seen := ends[line]; !seen {
					ends[line] = endLine(n)
				}
			}
			return true
		})
	})
	return ends
}
