package resources

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/resgraph/internal/extraction"
	"github.com/mvp-joe/resgraph/internal/parsers"
)

// receiverName is the implicit method receiver dropped by the parameter pass.
const receiverName = "self"

// paramListPattern captures the first parenthesized list on a line.
var paramListPattern = regexp.MustCompile(`\((.*?)\)`)

// Extractor derives the resources a function appears to touch.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	boundary parsers.BoundaryDetector
	scheme   IDScheme
	matchers []Matcher
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBoundary sets the body boundary detector.
func WithBoundary(b parsers.BoundaryDetector) Option {
	return func(e *Extractor) {
		e.boundary = b
	}
}

// WithIDScheme sets how database and http ids are synthesized.
func WithIDScheme(s IDScheme) Option {
	return func(e *Extractor) {
		e.scheme = s
	}
}

// WithMatchers replaces the ordered pattern pass.
func WithMatchers(m []Matcher) Option {
	return func(e *Extractor) {
		e.matchers = m
	}
}

// NewExtractor creates an Extractor. Defaults: TextBoundary, CallSiteScheme,
// DefaultMatchers.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		boundary: parsers.TextBoundary{},
		scheme:   CallSiteScheme{},
		matchers: DefaultMatchers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scheme returns the active id scheme.
func (e *Extractor) Scheme() IDScheme {
	return e.scheme
}

// Extract returns the resource ids for a function symbol.
func (e *Extractor) Extract(sym extraction.Symbol, source string) Set {
	return IDs(e.Findings(sym, source))
}

// Findings returns the resources for a function symbol in detection order,
// one entry per distinct id. Class symbols and symbols outside the text
// yield nothing.
func (e *Extractor) Findings(sym extraction.Symbol, source string) []Finding {
	if !sym.IsFunction() {
		return nil
	}
	lines := parsers.SplitLines(source)
	if sym.Line < 1 || sym.Line > len(lines) {
		return nil
	}

	end := e.boundary.EndLine(source, sym.Line)
	if end < sym.Line {
		end = sym.Line
	}
	if end > len(lines) {
		end = len(lines)
	}

	acc := newAccumulator()
	for _, name := range parseParams(lines[sym.Line-1]) {
		acc.add(name, KindParameter, sym.Line)
	}

	for n := sym.Line; n <= end; n++ {
		line := lines[n-1]
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, m := range e.matchers {
			if m.Literal {
				for _, text := range m.literals(line) {
					acc.add(text, m.Kind, n)
				}
				continue
			}
			for _, id := range e.scheme.IDs(m.Kind, n, m.count(line), len(acc.findings)) {
				acc.add(id, m.Kind, n)
			}
		}
	}

	return acc.findings
}

// parseParams returns the parameter names declared on a def line, without
// annotations, defaults, star prefixes or the receiver.
func parseParams(declLine string) []string {
	m := paramListPattern.FindStringSubmatch(declLine)
	if m == nil {
		return nil
	}

	var names []string
	for _, raw := range strings.Split(m[1], ",") {
		name := raw
		if i := strings.IndexAny(name, ":="); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimLeft(strings.TrimSpace(name), "*")
		if name == "" || name == "/" || name == receiverName {
			continue
		}
		names = append(names, name)
	}
	return names
}

// accumulator keeps findings unique by id in insertion order.
type accumulator struct {
	seen     Set
	findings []Finding
}

func newAccumulator() *accumulator {
	return &accumulator{seen: Set{}}
}

func (a *accumulator) add(id string, kind Kind, line int) {
	if !a.seen.Add(id) {
		return
	}
	a.findings = append(a.findings, Finding{ID: id, Kind: kind, Line: line})
}
