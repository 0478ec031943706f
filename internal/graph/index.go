package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mvp-joe/resgraph/internal/extraction"
	"github.com/mvp-joe/resgraph/internal/resources"
)

// ErrInvariantViolation marks a programming error: a state no valid input
// can produce under the extraction algorithm.
var ErrInvariantViolation = errors.New("dependency invariant violated")

// Index holds the two mirrored mappings between operations and resources.
// For every operation o and resource r:
// r ∈ OperationToResources[o] ⇔ o ∈ ResourceToOperations[r].
type Index struct {
	ResourceToOperations map[string]resources.Set `json:"resource_to_operations"`
	OperationToResources map[string]resources.Set `json:"operation_to_resources"`
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		ResourceToOperations: make(map[string]resources.Set),
		OperationToResources: make(map[string]resources.Set),
	}
}

// ExtractDependencies builds a new index from one file's symbols and text.
// Every function symbol becomes an operation, even one without resources;
// classes are skipped. Repeated function names share one operation whose
// resources are the union of all declarations. The result shares no state
// with previous calls.
func ExtractDependencies(symbols []extraction.Symbol, source string, extractor *resources.Extractor) *Index {
	idx, _ := ExtractWithFindings(symbols, source, extractor)
	return idx
}

// OperationFindings maps each operation to its resources in detection order.
type OperationFindings map[string][]resources.Finding

// ExtractWithFindings is ExtractDependencies that also returns the findings
// behind each operation, so callers can report resource kinds and lines.
func ExtractWithFindings(symbols []extraction.Symbol, source string, extractor *resources.Extractor) (*Index, OperationFindings) {
	if extractor == nil {
		extractor = resources.NewExtractor()
	}

	idx := NewIndex()
	findings := OperationFindings{}
	for _, sym := range symbols {
		if !sym.IsFunction() {
			continue
		}
		found := extractor.Findings(sym, source)
		idx.Add(sym.Name, resources.IDs(found))

		if _, ok := findings[sym.Name]; !ok {
			findings[sym.Name] = []resources.Finding{}
		}
		existing := resources.IDs(findings[sym.Name])
		for _, f := range found {
			if existing.Add(f.ID) {
				findings[sym.Name] = append(findings[sym.Name], f)
			}
		}
	}
	return idx, findings
}

// Kinds returns the kind each resource was first detected as.
func (f OperationFindings) Kinds() map[string]resources.Kind {
	kinds := make(map[string]resources.Kind)
	ops := make([]string, 0, len(f))
	for op := range f {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		for _, finding := range f[op] {
			if _, ok := kinds[finding.ID]; !ok {
				kinds[finding.ID] = finding.Kind
			}
		}
	}
	return kinds
}

// Add records that operation uses every resource in res, keeping both
// mappings in step.
func (idx *Index) Add(operation string, res resources.Set) {
	ops, ok := idx.OperationToResources[operation]
	if !ok {
		ops = resources.Set{}
		idx.OperationToResources[operation] = ops
	}
	for r := range res {
		ops.Add(r)
		users, ok := idx.ResourceToOperations[r]
		if !ok {
			users = resources.Set{}
			idx.ResourceToOperations[r] = users
		}
		users.Add(operation)
	}
}

// Clone returns a deep copy.
func (idx *Index) Clone() *Index {
	c := NewIndex()
	for op, res := range idx.OperationToResources {
		c.OperationToResources[op] = res.Clone()
	}
	for r, ops := range idx.ResourceToOperations {
		c.ResourceToOperations[r] = ops.Clone()
	}
	return c
}

// Operations returns operation names in lexical order.
func (idx *Index) Operations() []string {
	return sortedKeys(idx.OperationToResources)
}

// Resources returns resource ids in lexical order.
func (idx *Index) Resources() []string {
	return sortedKeys(idx.ResourceToOperations)
}

// PairCount returns the number of distinct (operation, resource) pairs.
func (idx *Index) PairCount() int {
	n := 0
	for _, res := range idx.OperationToResources {
		n += len(res)
	}
	return n
}

// Validate checks the mirror invariant in both directions.
func (idx *Index) Validate() error {
	for op, res := range idx.OperationToResources {
		for r := range res {
			if !idx.ResourceToOperations[r].Has(op) {
				return fmt.Errorf("%w: %q uses %q but the reverse mapping is missing", ErrInvariantViolation, op, r)
			}
		}
	}
	for r, ops := range idx.ResourceToOperations {
		if len(ops) == 0 {
			return fmt.Errorf("%w: resource %q has no operations", ErrInvariantViolation, r)
		}
		for op := range ops {
			if !idx.OperationToResources[op].Has(r) {
				return fmt.Errorf("%w: %q lists %q but the forward mapping is missing", ErrInvariantViolation, r, op)
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]resources.Set) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
