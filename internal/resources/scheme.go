package resources

import (
	"fmt"
	"strings"
)

// IDScheme names resources that have no literal text of their own
// (database and http patterns).
type IDScheme interface {
	Name() string

	// IDs returns the ids to record when a pattern of the given kind matched
	// count times on line. size is the number of distinct resources
	// collected for the function so far.
	IDs(kind Kind, line, count, size int) []string
}

// Scheme names accepted by NewIDScheme.
const (
	SchemeCallSite = "callsite"
	SchemeSize     = "size"
)

// NewIDScheme returns the scheme registered under name.
func NewIDScheme(name string) (IDScheme, error) {
	switch strings.ToLower(name) {
	case SchemeCallSite, "":
		return CallSiteScheme{}, nil
	case SchemeSize:
		return SizeScheme{}, nil
	default:
		return nil, fmt.Errorf("unsupported id scheme: %s (supported: callsite, size)", name)
	}
}

// SizeScheme emits one "<kind>_<n>" id per matching line, where n is the
// function's resource count at that moment. Values depend on processing
// order; cardinality does not.
type SizeScheme struct{}

func (SizeScheme) Name() string { return SchemeSize }

func (SizeScheme) IDs(kind Kind, line, count, size int) []string {
	if count == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%s_%d", kind, size)}
}

// CallSiteScheme emits "<kind>@L<line>#<occurrence>" for every occurrence on
// the line. Ids are stable for identical input and distinct across call sites.
type CallSiteScheme struct{}

func (CallSiteScheme) Name() string { return SchemeCallSite }

func (CallSiteScheme) IDs(kind Kind, line, count, size int) []string {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		ids = append(ids, fmt.Sprintf("%s@L%d#%d", kind, line, i))
	}
	return ids
}
