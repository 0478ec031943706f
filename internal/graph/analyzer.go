package graph

import "sort"

// DefaultCriticalFactor is the multiple of mean usage a resource must exceed
// to be reported as critical.
const DefaultCriticalFactor = 1.5

// Insights summarizes resource usage across an index.
type Insights struct {
	TotalOperations       int                 `json:"total_operations" yaml:"total_operations"`
	TotalResources        int                 `json:"total_resources" yaml:"total_resources"`
	ResourceUsage         map[string]int      `json:"resource_usage" yaml:"resource_usage"`
	OperationDependencies map[string]int      `json:"operation_dependencies" yaml:"operation_dependencies"`
	SharedResources       map[string][]string `json:"shared_resources" yaml:"shared_resources"`
	CriticalResources     []string            `json:"critical_resources" yaml:"critical_resources"`
}

type analyzeOptions struct {
	criticalFactor float64
}

// AnalyzeOption configures Analyze.
type AnalyzeOption func(*analyzeOptions)

// WithCriticalFactor overrides DefaultCriticalFactor. Non-positive values
// are ignored.
func WithCriticalFactor(f float64) AnalyzeOption {
	return func(o *analyzeOptions) {
		if f > 0 {
			o.criticalFactor = f
		}
	}
}

// Analyze computes insights purely from the index. Shared resources list
// their operations sorted; critical resources are sorted by id.
func Analyze(idx *Index, opts ...AnalyzeOption) *Insights {
	o := analyzeOptions{criticalFactor: DefaultCriticalFactor}
	for _, opt := range opts {
		opt(&o)
	}

	in := &Insights{
		TotalOperations:       len(idx.OperationToResources),
		TotalResources:        len(idx.ResourceToOperations),
		ResourceUsage:         make(map[string]int, len(idx.ResourceToOperations)),
		OperationDependencies: make(map[string]int, len(idx.OperationToResources)),
		SharedResources:       make(map[string][]string),
		CriticalResources:     []string{},
	}

	for op, res := range idx.OperationToResources {
		in.OperationDependencies[op] = len(res)
	}

	total := 0
	for r, ops := range idx.ResourceToOperations {
		in.ResourceUsage[r] = len(ops)
		total += len(ops)
		if len(ops) > 1 {
			in.SharedResources[r] = ops.Sorted()
		}
	}

	if in.TotalResources == 0 {
		return in
	}

	threshold := o.criticalFactor * float64(total) / float64(in.TotalResources)
	for r, n := range in.ResourceUsage {
		if float64(n) > threshold {
			in.CriticalResources = append(in.CriticalResources, r)
		}
	}
	sort.Strings(in.CriticalResources)

	return in
}
