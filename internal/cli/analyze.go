package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/resgraph/internal/ingest"
	"github.com/mvp-joe/resgraph/internal/watcher"
)

var (
	analyzeFormat string
	analyzeWatch  bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Report the resources each function in a Python file uses",
	Long: `Analyze extracts functions and classes from one Python file, detects the
resources each function uses and reports shared and critical resources.

Examples:
  # Human-readable report
  resgraph analyze app.py

  # Machine-readable report
  resgraph analyze app.py --format json

  # Re-run the analysis whenever the file changes
  resgraph analyze app.py --watch
`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", FormatText, "output format: text, json or yaml")
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "re-analyze when the file changes")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch analyzeFormat {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q (supported: text, json, yaml)", analyzeFormat)
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	proj, err := loadProject(".")
	if err != nil {
		return err
	}
	pipeline, err := ingest.NewPipeline(proj.cfg.Analysis)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := analyzeFile(out, pipeline, path, analyzeFormat); err != nil {
		return err
	}
	if !analyzeWatch {
		return nil
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	return watchFile(ctx, path, proj.logger, func() {
		fmt.Fprintln(out)
		if err := analyzeFile(out, pipeline, path, analyzeFormat); err != nil {
			proj.logger.WithError(err).Error("re-analysis failed")
		}
	})
}

// analyzeFile reads path, runs the pipeline and writes the report.
func analyzeFile(w io.Writer, pipeline *ingest.Pipeline, path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	analysis, err := pipeline.Analyze(string(data))
	if err != nil {
		return err
	}
	return WriteReport(w, NewReport(path, analysis), format)
}

// watchFile calls onChange for every debounced change to path until ctx ends.
func watchFile(ctx context.Context, path string, logger logrus.FieldLogger, onChange func()) error {
	fw, err := watcher.NewFileWatcher([]string{filepath.Dir(path)}, []string{filepath.Ext(path)}, watcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer fw.Stop()

	if err := fw.Start(ctx, func(files []string) {
		if slices.Contains(files, path) {
			onChange()
		}
	}); err != nil {
		return err
	}

	logger.WithField("file", path).Info("watching for changes (Ctrl+C to stop)")
	<-ctx.Done()
	return nil
}
