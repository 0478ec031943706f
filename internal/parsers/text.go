package parsers

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/resgraph/internal/extraction"
)

var (
	// declPattern matches a declaration at the start of a stripped line:
	// optional async qualifier, def/class keyword, identifier. The identifier
	// must end at "(", ":" or the end of the line, so a name running into a
	// non-identifier character is rejected instead of truncated.
	declPattern = regexp.MustCompile(`^(?:async\s+)?(def|class)\s+([\p{L}_][\p{L}\p{Nd}_]*)\s*(?:[(:]|$)`)

	// boundaryPattern matches any line that opens a new declaration.
	boundaryPattern = regexp.MustCompile(`^(?:async\s+def|def|class)\s`)
)

// textExtractor detects declarations line by line. Nesting is ignored, so a
// method and a top-level function are captured the same way.
type textExtractor struct{}

// NewTextExtractor creates the line-based symbol extractor.
func NewTextExtractor() SymbolExtractor {
	return textExtractor{}
}

// Extract implements SymbolExtractor.
func (textExtractor) Extract(source string) []extraction.Symbol {
	symbols := []extraction.Symbol{}
	for i, line := range SplitLines(source) {
		m := declPattern.FindStringSubmatch(strings.TrimLeft(line, " \t"))
		if m == nil {
			continue
		}

		kind := extraction.KindFunction
		if m[1] == "class" {
			kind = extraction.KindClass
		}
		symbols = append(symbols, extraction.Symbol{
			Name: m[2],
			Kind: kind,
			Line: i + 1,
		})
	}
	return symbols
}

// TextBoundary ends a body at the next line that starts a def or class,
// regardless of indentation. Decorators and nested definitions can shift
// the result.
type TextBoundary struct{}

// EndLine implements BoundaryDetector.
func (TextBoundary) EndLine(source string, startLine int) int {
	lines := SplitLines(source)
	return textEndLine(lines, startLine)
}

func textEndLine(lines []string, startLine int) int {
	if startLine < 1 {
		startLine = 1
	}
	if startLine > len(lines) {
		return len(lines)
	}
	for i := startLine; i < len(lines); i++ {
		if boundaryPattern.MatchString(strings.TrimSpace(lines[i])) {
			return i
		}
	}
	return len(lines)
}
