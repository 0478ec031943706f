package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/ingest"
)

var (
	graphFormat string
	graphOut    string
	graphTop    int
)

// errNoProjectGraph is returned when the project has not been indexed yet.
var errNoProjectGraph = errors.New("no project graph found; run 'resgraph index' first")

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the operation/resource graph as DOT or JSON",
	Long: `Graph renders the bipartite dependency graph of one Python file, or of the
whole project as stored by "resgraph index" when no file is given.
Operations are drawn light blue, resources light green.

Examples:
  # Render a file's graph with Graphviz
  resgraph graph app.py | dot -Tpng -o app.png

  # Project graph as JSON, plus the five most central nodes
  resgraph graph --format json --out graph.json --top 5
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", FormatDOT, "output format: dot or json")
	graphCmd.Flags().StringVarP(&graphOut, "out", "o", "", "write the graph to this file instead of stdout")
	graphCmd.Flags().IntVar(&graphTop, "top", 0, "also print the n most central nodes")
}

func runGraph(cmd *cobra.Command, args []string) error {
	if graphFormat != FormatDOT && graphFormat != FormatJSON {
		return fmt.Errorf("unsupported format %q (supported: dot, json)", graphFormat)
	}

	proj, err := loadProject(".")
	if err != nil {
		return err
	}

	var (
		dg     *graph.DependencyGraph
		source string
	)
	if len(args) == 1 {
		dg, source, err = fileGraph(proj, args[0])
	} else {
		dg, source, err = projectGraph(proj)
	}
	if err != nil {
		return err
	}

	report := cmd.ErrOrStderr()
	if graphOut == "" {
		if err := WriteGraph(cmd.OutOrStdout(), dg, source, graphFormat); err != nil {
			return err
		}
	} else {
		if err := writeGraphFile(graphOut, dg, source, graphFormat); err != nil {
			return err
		}
		report = cmd.OutOrStdout()
	}

	if graphTop > 0 {
		return WriteCentrality(report, graph.Centrality(dg, graphTop))
	}
	return nil
}

// writeGraphFile renders dg into path. A failed close is reported like a
// failed write.
func writeGraphFile(path string, dg *graph.DependencyGraph, source, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteGraph(f, dg, source, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func fileGraph(proj *project, file string) (*graph.DependencyGraph, string, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	pipeline, err := ingest.NewPipeline(proj.cfg.Analysis)
	if err != nil {
		return nil, "", err
	}
	analysis, err := pipeline.Analyze(string(data))
	if err != nil {
		return nil, "", err
	}
	dg, err := graph.BuildGraph(analysis.Index)
	return dg, path, err
}

func projectGraph(proj *project) (*graph.DependencyGraph, string, error) {
	graphs, err := graph.NewStorage(proj.cfg.StorageDir(proj.root))
	if err != nil {
		return nil, "", err
	}
	data, err := graphs.Load()
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return nil, "", errNoProjectGraph
	}
	dg, err := graph.FromGraphData(data)
	return dg, data.Metadata.Source, err
}
