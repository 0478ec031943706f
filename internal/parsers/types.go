package parsers

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/resgraph/internal/extraction"
)

// SymbolExtractor scans one file's source text and returns its declarations
// in source order. Implementations never fail: unmatched regions contribute
// no symbols.
type SymbolExtractor interface {
	Extract(source string) []extraction.Symbol
}

// BoundaryDetector finds where a declaration's body ends.
type BoundaryDetector interface {
	// EndLine returns the last line (1-indexed, inclusive) belonging to the
	// declaration that starts at startLine. The result is never smaller than
	// startLine and never larger than the number of lines in source.
	EndLine(source string, startLine int) int
}

// Strategy names accepted by NewSymbolExtractor and NewBoundaryDetector.
const (
	StrategyText       = "text"
	StrategyTreeSitter = "treesitter"
)

// NewSymbolExtractor returns the extractor for the given strategy.
func NewSymbolExtractor(strategy string) (SymbolExtractor, error) {
	switch strings.ToLower(strategy) {
	case StrategyText, "":
		return NewTextExtractor(), nil
	case StrategyTreeSitter:
		return NewPythonExtractor(), nil
	default:
		return nil, fmt.Errorf("unsupported symbol strategy: %s (supported: text, treesitter)", strategy)
	}
}

// NewBoundaryDetector returns the body boundary detector for the given strategy.
func NewBoundaryDetector(strategy string) (BoundaryDetector, error) {
	switch strings.ToLower(strategy) {
	case StrategyText, "":
		return TextBoundary{}, nil
	case StrategyTreeSitter:
		return NewPythonBoundary(), nil
	default:
		return nil, fmt.Errorf("unsupported boundary strategy: %s (supported: text, treesitter)", strategy)
	}
}

// SplitLines splits source on "\n" the same way for every component, so
// line numbers agree between extractors, detectors and chunkers.
func SplitLines(source string) []string {
	return strings.Split(source, "\n")
}
