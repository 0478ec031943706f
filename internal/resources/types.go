package resources

import "sort"

// Kind describes how a resource id was produced. The dependency index keeps
// only the id; the kind is carried on findings for reporting.
type Kind string

const (
	KindParameter Kind = "parameter"
	KindFile      Kind = "file"
	KindDatabase  Kind = "database"
	KindHTTP      Kind = "http"
	KindConfig    Kind = "config"
)

// Finding is one resource detected for a function.
type Finding struct {
	ID   string `json:"id" yaml:"id"`
	Kind Kind   `json:"kind" yaml:"kind"`
	Line int    `json:"line" yaml:"line"` // 1-indexed source line of the first occurrence
}

// Set is a set of resource ids.
type Set map[string]struct{}

// NewSet creates a set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id and reports whether it was new.
func (s Set) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexical order.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// IDs collects the ids of findings into a Set.
func IDs(findings []Finding) Set {
	s := make(Set, len(findings))
	for _, f := range findings {
		s[f.ID] = struct{}{}
	}
	return s
}
