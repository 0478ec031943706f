package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvp-joe/resgraph/internal/config"
	"github.com/mvp-joe/resgraph/internal/git"
	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/storage"
	"github.com/mvp-joe/resgraph/internal/vectorstore"
)

// IndexResult summarizes a project indexing pass.
type IndexResult struct {
	RunID   string
	Stats   *Stats
	Results []FileResult
	Project *graph.Index // file-qualified, see Aggregate
	Pruned  int          // snapshots removed for files no longer present
}

// Indexer runs a full project pass: discovery, per-file analysis, snapshot
// storage, the project graph snapshot and the vector store.
type Indexer struct {
	rootDir   string
	cfg       *config.Config
	discovery *FileDiscovery
	pipeline  *Pipeline
	store     *storage.Store
	graphs    graph.Storage
	vectors   vectorstore.Store // nil disables embedding
	chunker   *vectorstore.Chunker
	opts      []DriverOption
}

// NewIndexer wires an indexer for rootDir. vectors may be nil.
func NewIndexer(
	rootDir string,
	cfg *config.Config,
	store *storage.Store,
	graphs graph.Storage,
	vectors vectorstore.Store,
	opts ...DriverOption,
) (*Indexer, error) {
	discovery, err := NewFileDiscovery(rootDir, cfg.Paths.Code, cfg.Paths.Ignore)
	if err != nil {
		return nil, err
	}
	pipeline, err := NewPipeline(cfg.Analysis)
	if err != nil {
		return nil, err
	}

	return &Indexer{
		rootDir:   rootDir,
		cfg:       cfg,
		discovery: discovery,
		pipeline:  pipeline,
		store:     store,
		graphs:    graphs,
		vectors:   vectors,
		chunker:   vectorstore.NewChunker(cfg.Embedding.ChunkLines),
		opts:      opts,
	}, nil
}

// Index runs one pass. Files whose content hash and settings fingerprint
// both match their stored snapshot are not re-analyzed; their snapshot is
// reused.
func (ix *Indexer) Index(ctx context.Context) (*IndexResult, error) {
	start := time.Now()

	want := ix.pipeline.Fingerprint()
	skip := func(relPath, hash string) bool {
		stored, ok, err := ix.store.FileState(ctx, relPath)
		return err == nil && ok && stored == storage.FileState{Hash: hash, Settings: want}
	}
	opts := append([]DriverOption{WithWorkers(ix.cfg.Analysis.Workers)}, ix.opts...)
	opts = append(opts, WithSkip(skip))
	driver := NewDriver(ix.pipeline, ix.rootDir, opts...)
	progress, logger := driver.progress, driver.logger

	progress.OnDiscoveryStart()
	files, err := ix.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	progress.OnDiscoveryComplete(len(files))

	rev := git.Describe(ctx, ix.rootDir)
	run, err := ix.store.BeginRun(ctx, ix.rootDir, storage.WithRevision(rev.Branch, rev.Commit))
	if err != nil {
		return nil, err
	}

	results, err := driver.Run(ctx, files)
	if err != nil {
		return nil, err
	}

	present := make([]string, 0, len(results))
	for i := range results {
		r := &results[i]
		present = append(present, r.RelPath)
		if err := ix.persist(ctx, run.ID, r, logger); err != nil {
			return nil, err
		}
	}

	pruned, err := ix.store.Prune(ctx, present)
	if err != nil {
		return nil, err
	}

	project := Aggregate(results)
	if err := ix.saveGraph(project); err != nil {
		return nil, err
	}

	stats := Summarize(results)
	if ix.vectors != nil {
		chunks := ix.chunks(results)
		progress.OnEmbeddingStart(len(chunks))
		if err := ix.vectors.Replace(ctx, chunks); err != nil {
			return nil, fmt.Errorf("vector store update failed: %w", err)
		}
		progress.OnEmbeddingProgress(len(chunks))
		stats.Chunks = len(chunks)
	}
	stats.Duration = time.Since(start)

	if err := ix.store.FinishRun(ctx, run.ID, storage.RunStats{
		Files:      stats.Files,
		Skipped:    stats.Skipped,
		Failed:     stats.Failed,
		Operations: stats.Operations,
		Resources:  stats.Resources,
	}); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"run":     run.ID,
		"branch":  run.Branch,
		"files":   stats.Files,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
		"pruned":  pruned,
		"chunks":  stats.Chunks,
	}).Info("index complete")
	progress.OnComplete(stats)

	return &IndexResult{
		RunID:   run.ID,
		Stats:   stats,
		Results: results,
		Project: project,
		Pruned:  pruned,
	}, nil
}

// persist stores a fresh analysis, or restores a skipped file's analysis
// from its snapshot. A missing snapshot for a skipped file falls back to
// analyzing the source again.
func (ix *Indexer) persist(ctx context.Context, runID string, r *FileResult, logger logrus.FieldLogger) error {
	if r.Err != nil {
		return nil
	}

	if r.Skipped {
		snap, err := ix.store.LoadFile(ctx, r.RelPath)
		if err == nil {
			r.Analysis = ix.fromSnapshot(snap)
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		logger.WithField("file", r.RelPath).Debug("snapshot vanished, re-analyzing")
		analysis, err := ix.pipeline.Analyze(r.Source)
		if err != nil {
			r.Err = err
			return nil
		}
		r.Analysis = analysis
		r.Skipped = false
	}

	return ix.store.SaveFile(ctx, runID, &storage.FileSnapshot{
		Path:     r.RelPath,
		Hash:     r.Hash,
		Settings: ix.pipeline.Fingerprint(),
		Symbols:  r.Analysis.Symbols,
		Findings: r.Analysis.Findings,
	})
}

func (ix *Indexer) fromSnapshot(snap *storage.FileSnapshot) *Analysis {
	idx := snap.Index()
	return &Analysis{
		Symbols:  snap.Symbols,
		Index:    idx,
		Findings: snap.Findings,
		Insights: graph.Analyze(idx, graph.WithCriticalFactor(ix.pipeline.CriticalFactor())),
	}
}

func (ix *Indexer) saveGraph(project *graph.Index) error {
	if ix.graphs == nil {
		return nil
	}
	dg, err := graph.BuildGraph(project)
	if err != nil {
		return fmt.Errorf("project graph: %w", err)
	}
	return ix.graphs.Save(graph.ToGraphData(dg, ix.rootDir))
}

func (ix *Indexer) chunks(results []FileResult) []vectorstore.Chunk {
	var chunks []vectorstore.Chunk
	for _, r := range results {
		if r.Analysis == nil {
			continue
		}
		chunks = append(chunks, ix.chunker.Chunk(r.RelPath, r.Source, r.Analysis.Symbols)...)
	}
	return chunks
}
