package parsers

import (
	"os"
	"strings"
	"testing"

	"github.com/mvp-joe/resgraph/internal/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for text extraction:
// - Single function yields one Function symbol at its declaration line
// - Class with a method yields Class then Function, in source order
// - Empty text yields zero symbols
// - async def is recognized as a function
// - Indented methods and nested functions are captured like top-level ones
// - Repeated names are not deduplicated
// - Names that are not identifiers (digit-initial, non-decimal numerals) are ignored
// - Keywords inside identifiers (define, classic) do not start symbols
// - Every symbol line lies within [1, line count] for assorted inputs
// - Fixture file yields the expected declarations
// - TextBoundary stops before the next def/class line
// - TextBoundary runs to end of text when no boundary follows
// - TextBoundary clamps out-of-range start lines
// - Strategy factories accept known names and reject unknown ones

func TestTextExtractor_SingleFunction(t *testing.T) {
	t.Parallel()

	symbols := NewTextExtractor().Extract("def f(x, y):\n    open('a.txt')\n")

	require.Len(t, symbols, 1)
	assert.Equal(t, extraction.Symbol{Name: "f", Kind: extraction.KindFunction, Line: 1}, symbols[0])
}

func TestTextExtractor_ClassWithMethod(t *testing.T) {
	t.Parallel()

	symbols := NewTextExtractor().Extract("class C:\n    def m(self):\n        pass\n")

	assert.Equal(t, []extraction.Symbol{
		{Name: "C", Kind: extraction.KindClass, Line: 1},
		{Name: "m", Kind: extraction.KindFunction, Line: 2},
	}, symbols)
}

func TestTextExtractor_EmptyText(t *testing.T) {
	t.Parallel()

	symbols := NewTextExtractor().Extract("")

	assert.NotNil(t, symbols)
	assert.Empty(t, symbols)
}

func TestTextExtractor_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []extraction.Symbol
	}{
		{
			name:   "async function",
			source: "async def fetch(url):\n    pass\n",
			want:   []extraction.Symbol{{Name: "fetch", Kind: extraction.KindFunction, Line: 1}},
		},
		{
			name:   "nested function",
			source: "def outer():\n    def inner():\n        pass\n",
			want: []extraction.Symbol{
				{Name: "outer", Kind: extraction.KindFunction, Line: 1},
				{Name: "inner", Kind: extraction.KindFunction, Line: 2},
			},
		},
		{
			name:   "repeated names",
			source: "def f():\n    pass\ndef f():\n    pass\n",
			want: []extraction.Symbol{
				{Name: "f", Kind: extraction.KindFunction, Line: 1},
				{Name: "f", Kind: extraction.KindFunction, Line: 3},
			},
		},
		{
			name:   "tab indented",
			source: "class A:\n\tdef run(self):\n\t\tpass\n",
			want: []extraction.Symbol{
				{Name: "A", Kind: extraction.KindClass, Line: 1},
				{Name: "run", Kind: extraction.KindFunction, Line: 2},
			},
		},
		{
			name:   "digit initial name",
			source: "def 1bad():\n    pass\n",
			want:   []extraction.Symbol{},
		},
		{
			name:   "keyword prefix of identifier",
			source: "define = 1\nclassic = 2\n",
			want:   []extraction.Symbol{},
		},
		{
			name:   "underscore name",
			source: "def _private():\n    pass\n",
			want:   []extraction.Symbol{{Name: "_private", Kind: extraction.KindFunction, Line: 1}},
		},
		{
			name:   "decimal digits from any script",
			source: "def x2_9():\n    pass\nclass Table٣(Base):\n    pass\n",
			want: []extraction.Symbol{
				{Name: "x2_9", Kind: extraction.KindFunction, Line: 1},
				{Name: "Table٣", Kind: extraction.KindClass, Line: 3},
			},
		},
		{
			name:   "non-decimal numerals are not identifier characters",
			source: "def f²x():\n    pass\ndef stepⅫ():\n    pass\n",
			want:   []extraction.Symbol{},
		},
		{
			name:   "truncated declaration",
			source: "def",
			want:   []extraction.Symbol{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewTextExtractor().Extract(tt.source))
		})
	}
}

func TestTextExtractor_LinesWithinBounds(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"def f():",
		"def f():\n",
		"\n\n\ndef f():\n    pass",
		"class A:\n  def b(self): pass\n  async def c(self): pass\n",
		"x = 1\r\ndef windows():\r\n    pass\r\n",
	}

	for _, src := range inputs {
		lineCount := len(strings.Split(src, "\n"))
		for _, sym := range NewTextExtractor().Extract(src) {
			assert.GreaterOrEqual(t, sym.Line, 1, "source %q", src)
			assert.LessOrEqual(t, sym.Line, lineCount, "source %q", src)
		}
	}
}

func TestTextExtractor_Fixture(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile("../../testdata/code/python/inventory.py")
	require.NoError(t, err)

	symbols := NewTextExtractor().Extract(string(data))

	assert.Equal(t, []extraction.Symbol{
		{Name: "Inventory", Kind: extraction.KindClass, Line: 6},
		{Name: "__init__", Kind: extraction.KindFunction, Line: 7},
		{Name: "load", Kind: extraction.KindFunction, Line: 10},
		{Name: "sync", Kind: extraction.KindFunction, Line: 14},
		{Name: "refresh", Kind: extraction.KindFunction, Line: 21},
		{Name: "report", Kind: extraction.KindFunction, Line: 26},
	}, symbols)
}

func TestTextBoundary_EndLine(t *testing.T) {
	t.Parallel()

	source := "def a():\n    x = 1\n\nclass B:\n    def c(self):\n        pass\n"

	tests := []struct {
		name  string
		start int
		want  int
	}{
		{name: "stops before class", start: 1, want: 3},
		{name: "class stops before method", start: 4, want: 4},
		{name: "last function runs to end", start: 5, want: 7},
		{name: "start below range clamps", start: 0, want: 3},
		{name: "start beyond range clamps", start: 50, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TextBoundary{}.EndLine(source, tt.start))
		})
	}
}

func TestTextBoundary_AsyncBoundary(t *testing.T) {
	t.Parallel()

	source := "def a():\n    pass\nasync def b():\n    pass"

	assert.Equal(t, 2, TextBoundary{}.EndLine(source, 1))
	assert.Equal(t, 4, TextBoundary{}.EndLine(source, 3))
}

func TestStrategyFactories(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "text", "TEXT", "treesitter"} {
		ext, err := NewSymbolExtractor(name)
		require.NoError(t, err, name)
		assert.NotNil(t, ext)

		bd, err := NewBoundaryDetector(name)
		require.NoError(t, err, name)
		assert.NotNil(t, bd)
	}

	_, err := NewSymbolExtractor("regex")
	assert.Error(t, err)

	_, err = NewBoundaryDetector("indent")
	assert.Error(t, err)
}
