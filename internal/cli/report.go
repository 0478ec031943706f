package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/resgraph/internal/extraction"
	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/ingest"
	"github.com/mvp-joe/resgraph/internal/resources"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDOT  = "dot"
)

// Report is the serializable result of analyzing one file.
type Report struct {
	File       string                         `json:"file" yaml:"file"`
	Symbols    []extraction.Symbol            `json:"symbols" yaml:"symbols"`
	Operations map[string][]resources.Finding `json:"operations" yaml:"operations"`
	Resources  map[string][]string            `json:"resources" yaml:"resources"`
	Insights   *graph.Insights                `json:"insights" yaml:"insights"`
}

// NewReport builds a report from one file's analysis.
func NewReport(file string, a *ingest.Analysis) *Report {
	symbols := a.Symbols
	if symbols == nil {
		symbols = []extraction.Symbol{}
	}
	res := make(map[string][]string, len(a.Index.ResourceToOperations))
	for r, ops := range a.Index.ResourceToOperations {
		res[r] = ops.Sorted()
	}
	return &Report{
		File:       file,
		Symbols:    symbols,
		Operations: a.Findings,
		Resources:  res,
		Insights:   a.Insights,
	}
}

// WriteReport renders r in the given format.
func WriteReport(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return writeReportText(w, r)
	default:
		return fmt.Errorf("unsupported format %q (supported: text, json, yaml)", format)
	}
}

func writeReportText(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n\n", r.File)

	b.WriteString("Symbols:\n")
	if len(r.Symbols) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, s := range r.Symbols {
		fmt.Fprintf(&b, "  → Found %s: %s (Line %d)\n", s.Kind, s.Name, s.Line)
	}

	b.WriteString("\nOperations:\n")
	ops := make([]string, 0, len(r.Operations))
	for op := range r.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		fmt.Fprintf(&b, "  %s\n", op)
		for _, f := range r.Operations[op] {
			fmt.Fprintf(&b, "    - %s [%s] line %d\n", f.ID, f.Kind, f.Line)
		}
	}

	in := r.Insights
	fmt.Fprintf(&b, "\nTotals: %d operations, %d resources\n", in.TotalOperations, in.TotalResources)

	if len(in.SharedResources) > 0 {
		b.WriteString("\nShared resources:\n")
		shared := make([]string, 0, len(in.SharedResources))
		for res := range in.SharedResources {
			shared = append(shared, res)
		}
		sort.Strings(shared)
		for _, res := range shared {
			fmt.Fprintf(&b, "  %s: %s\n", res, strings.Join(in.SharedResources[res], ", "))
		}
	}

	if len(in.CriticalResources) > 0 {
		b.WriteString("\nCritical resources:\n")
		for _, res := range in.CriticalResources {
			fmt.Fprintf(&b, "  %s (used by %d operations)\n", res, in.ResourceUsage[res])
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteGraph renders a dependency graph as DOT or JSON.
func WriteGraph(w io.Writer, dg *graph.DependencyGraph, source, format string) error {
	switch format {
	case FormatDOT, "":
		return graph.WriteDOT(w, dg)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(graph.ToGraphData(dg, source))
	default:
		return fmt.Errorf("unsupported format %q (supported: dot, json)", format)
	}
}

// WriteCentrality prints a ranked table of node metrics.
func WriteCentrality(w io.Writer, metrics []graph.NodeMetric) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-10s %-12s %-10s %s\n", "RANK", "KIND", "BETWEENNESS", "PAGERANK", "NAME")
	for i, m := range metrics {
		fmt.Fprintf(&b, "%-4d %-10s %-12.4f %-10.4f %s\n", i+1, m.Kind, m.Betweenness, m.PageRank, m.Name)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
