package extraction

// SymbolKind classifies a declaration site.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindClass    SymbolKind = "class"
)

// Symbol represents a function or class declaration with its location.
// Line is 1-indexed and points at the declaration keyword.
type Symbol struct {
	Name string     `json:"name" yaml:"name"`
	Kind SymbolKind `json:"kind" yaml:"kind"`
	Line int        `json:"line" yaml:"line"`
}

// IsFunction reports whether the symbol is a function (or method) declaration.
func (s Symbol) IsFunction() bool {
	return s.Kind == KindFunction
}

// Functions returns the function symbols in source order.
func Functions(symbols []Symbol) []Symbol {
	out := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		if s.IsFunction() {
			out = append(out, s)
		}
	}
	return out
}
