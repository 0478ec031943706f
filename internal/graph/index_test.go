package graph

import (
	"testing"

	"github.com/mvp-joe/resgraph/internal/parsers"
	"github.com/mvp-joe/resgraph/internal/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the dependency index:
// - Empty text yields empty mappings
// - Single function maps parameters and file paths both ways
// - Methods with only a receiver still appear as operations
// - Two functions with one database call each get distinct ids, one operation each
// - Shared literal ids map to every operation that uses them
// - Repeated function names union into one operation
// - Mirror invariant holds after every call
// - Repeated calls give structurally equal results and share no state
// - Validate reports broken mirrors as ErrInvariantViolation
// - Clone is deep

func extract(t *testing.T, source string, opts ...resources.Option) *Index {
	t.Helper()
	symbols := parsers.NewTextExtractor().Extract(source)
	idx := ExtractDependencies(symbols, source, resources.NewExtractor(opts...))
	require.NoError(t, idx.Validate())
	return idx
}

func TestExtractDependencies_Empty(t *testing.T) {
	t.Parallel()

	idx := extract(t, "")

	assert.Empty(t, idx.OperationToResources)
	assert.Empty(t, idx.ResourceToOperations)
	assert.Equal(t, 0, idx.PairCount())
}

func TestExtractDependencies_SingleFunction(t *testing.T) {
	t.Parallel()

	idx := extract(t, "def f(x, y):\n    open('a.txt')\n")

	assert.Equal(t, resources.NewSet("x", "y", "a.txt"), idx.OperationToResources["f"])
	for _, r := range []string{"x", "y", "a.txt"} {
		assert.Equal(t, resources.NewSet("f"), idx.ResourceToOperations[r], r)
	}
}

func TestExtractDependencies_ReceiverOnlyMethod(t *testing.T) {
	t.Parallel()

	idx := extract(t, "class C:\n    def m(self):\n        pass\n")

	assert.Equal(t, []string{"m"}, idx.Operations())
	assert.Empty(t, idx.OperationToResources["m"])
	assert.Empty(t, idx.ResourceToOperations)
}

func TestExtractDependencies_DistinctDatabaseIDs(t *testing.T) {
	t.Parallel()

	source := "def a():\n    db.execute('x')\n\ndef b():\n    db.execute('y')\n"

	idx := extract(t, source)

	require.Len(t, idx.ResourceToOperations, 2)
	for r, ops := range idx.ResourceToOperations {
		assert.Len(t, ops, 1, r)
	}
	assert.Equal(t, resources.NewSet("a"), idx.ResourceToOperations["database@L2#0"])
	assert.Equal(t, resources.NewSet("b"), idx.ResourceToOperations["database@L5#0"])
}

func TestExtractDependencies_SharedLiteral(t *testing.T) {
	t.Parallel()

	source := "def a():\n    open('shared.txt')\n\ndef b():\n    open('shared.txt')\n"

	idx := extract(t, source)

	assert.Equal(t, resources.NewSet("a", "b"), idx.ResourceToOperations["shared.txt"])
}

func TestExtractDependencies_RepeatedNameUnion(t *testing.T) {
	t.Parallel()

	source := "def f():\n    open('one.txt')\ndef f():\n    open('two.txt')\n"

	idx := extract(t, source)

	assert.Equal(t, []string{"f"}, idx.Operations())
	assert.Equal(t, resources.NewSet("one.txt", "two.txt"), idx.OperationToResources["f"])
}

func TestExtractDependencies_Idempotent(t *testing.T) {
	t.Parallel()

	source := "def a(cfg):\n    conn.execute(q)\n    requests.get(u)\n\ndef b(cfg):\n    open('x.txt')\n"

	for _, scheme := range []resources.IDScheme{resources.CallSiteScheme{}, resources.SizeScheme{}} {
		first := extract(t, source, resources.WithIDScheme(scheme))
		second := extract(t, source, resources.WithIDScheme(scheme))

		assert.Equal(t, first, second, scheme.Name())

		second.Add("a", resources.NewSet("mutated"))
		assert.False(t, first.OperationToResources["a"].Has("mutated"), "results must not share state")
	}
}

func TestExtractDependencies_ReplacesPriorState(t *testing.T) {
	t.Parallel()

	first := extract(t, "def a():\n    open('a.txt')\n")
	second := extract(t, "def b():\n    open('b.txt')\n")

	assert.Equal(t, []string{"a"}, first.Operations())
	assert.Equal(t, []string{"b"}, second.Operations())
	assert.NotContains(t, second.ResourceToOperations, "a.txt")
}

func TestExtractDependencies_NilExtractor(t *testing.T) {
	t.Parallel()

	source := "def f(x):\n    pass\n"
	idx := ExtractDependencies(parsers.NewTextExtractor().Extract(source), source, nil)

	assert.Equal(t, resources.NewSet("x"), idx.OperationToResources["f"])
}

func TestIndex_Validate(t *testing.T) {
	t.Parallel()

	t.Run("missing reverse", func(t *testing.T) {
		t.Parallel()
		idx := NewIndex()
		idx.OperationToResources["f"] = resources.NewSet("r")
		assert.ErrorIs(t, idx.Validate(), ErrInvariantViolation)
	})

	t.Run("missing forward", func(t *testing.T) {
		t.Parallel()
		idx := NewIndex()
		idx.OperationToResources["f"] = resources.NewSet()
		idx.ResourceToOperations["r"] = resources.NewSet("f")
		assert.ErrorIs(t, idx.Validate(), ErrInvariantViolation)
	})

	t.Run("orphan resource", func(t *testing.T) {
		t.Parallel()
		idx := NewIndex()
		idx.ResourceToOperations["r"] = resources.NewSet()
		assert.ErrorIs(t, idx.Validate(), ErrInvariantViolation)
	})

	t.Run("consistent", func(t *testing.T) {
		t.Parallel()
		idx := NewIndex()
		idx.Add("f", resources.NewSet("r", "s"))
		idx.Add("g", resources.NewSet("r"))
		assert.NoError(t, idx.Validate())
		assert.Equal(t, 3, idx.PairCount())
	})
}

func TestIndex_Clone(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add("f", resources.NewSet("r"))

	c := idx.Clone()
	c.Add("g", resources.NewSet("r"))

	assert.Equal(t, resources.NewSet("f"), idx.ResourceToOperations["r"])
	assert.Equal(t, resources.NewSet("f", "g"), c.ResourceToOperations["r"])
}

func TestExtractWithFindings(t *testing.T) {
	t.Parallel()

	source := "def f(cfg):\n    open('a.txt')\ndef f():\n    db.query(x)\n    open('a.txt')\n"
	symbols := parsers.NewTextExtractor().Extract(source)

	idx, findings := ExtractWithFindings(symbols, source, nil)

	assert.Equal(t, ExtractDependencies(symbols, source, nil), idx)
	assert.Equal(t, []resources.Finding{
		{ID: "cfg", Kind: resources.KindParameter, Line: 1},
		{ID: "a.txt", Kind: resources.KindFile, Line: 2},
		{ID: "database@L4#0", Kind: resources.KindDatabase, Line: 4},
	}, findings["f"])
	assert.Equal(t, map[string]resources.Kind{
		"cfg":           resources.KindParameter,
		"a.txt":         resources.KindFile,
		"database@L4#0": resources.KindDatabase,
	}, findings.Kinds())
}
