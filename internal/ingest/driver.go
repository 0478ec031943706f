package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of analyzing one file.
type FileResult struct {
	Path     string
	RelPath  string // slash-separated, relative to the driver root
	Hash     string
	Source   string
	Analysis *Analysis
	Skipped  bool  // content hash unchanged since the last run
	Err      error // read or analysis failure; the run continues
}

// SkipFunc reports whether a file with the given content hash can be skipped.
type SkipFunc func(relPath, hash string) bool

// Driver analyzes many files concurrently, one pipeline pass per file.
type Driver struct {
	pipeline *Pipeline
	rootDir  string
	workers  int
	progress ProgressReporter
	logger   logrus.FieldLogger
	skip     SkipFunc
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithWorkers bounds how many files are analyzed at once.
func WithWorkers(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) DriverOption {
	return func(d *Driver) {
		d.progress = progress
	}
}

// WithLogger sets the logger used for per-file failures.
func WithLogger(logger logrus.FieldLogger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithSkip lets unchanged files bypass analysis.
func WithSkip(skip SkipFunc) DriverOption {
	return func(d *Driver) {
		d.skip = skip
	}
}

// NewDriver creates a driver rooted at rootDir.
func NewDriver(pipeline *Pipeline, rootDir string, opts ...DriverOption) *Driver {
	d := &Driver{
		pipeline: pipeline,
		rootDir:  rootDir,
		workers:  4,
		progress: &NoOpProgressReporter{},
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run analyzes files and returns one result per file, sorted by path.
// A failing file is recorded on its result and logged; only context
// cancellation aborts the run.
func (d *Driver) Run(ctx context.Context, files []string) ([]FileResult, error) {
	start := time.Now()
	results := make([]FileResult, len(files))

	d.progress.OnFileProcessingStart(len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = d.processFile(path)
			d.progress.OnFileProcessed(results[i].RelPath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	stats := Summarize(results)
	stats.Duration = time.Since(start)
	d.logger.WithFields(logrus.Fields{
		"files":      stats.Files,
		"skipped":    stats.Skipped,
		"failed":     stats.Failed,
		"operations": stats.Operations,
		"resources":  stats.Resources,
		"duration":   stats.Duration,
	}).Debug("ingestion complete")

	return results, nil
}

func (d *Driver) processFile(path string) FileResult {
	res := FileResult{Path: path, RelPath: d.relPath(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", res.RelPath, err)
		d.logger.WithField("file", res.RelPath).WithError(err).Warn("skipping unreadable file")
		return res
	}
	res.Hash = ContentHash(data)
	res.Source = string(data)

	if d.skip != nil && d.skip(res.RelPath, res.Hash) {
		res.Skipped = true
		return res
	}

	analysis, err := d.pipeline.Analyze(res.Source)
	if err != nil {
		res.Err = fmt.Errorf("failed to analyze %s: %w", res.RelPath, err)
		d.logger.WithField("file", res.RelPath).WithError(err).Error("analysis failed")
		return res
	}
	res.Analysis = analysis
	return res
}

func (d *Driver) relPath(path string) string {
	rel, err := filepath.Rel(d.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Summarize counts results. Operations and resources are summed per file
// over every result carrying an analysis, including restored skipped ones.
func Summarize(results []FileResult) *Stats {
	stats := &Stats{Files: len(results)}
	for _, r := range results {
		if r.Err != nil {
			stats.Failed++
			continue
		}
		if r.Skipped {
			stats.Skipped++
		}
		if r.Analysis != nil {
			stats.Operations += r.Analysis.Insights.TotalOperations
			stats.Resources += r.Analysis.Insights.TotalResources
		}
	}
	return stats
}
