package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/resgraph/internal/embed"
	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/ingest"
	"github.com/mvp-joe/resgraph/internal/storage"
	"github.com/mvp-joe/resgraph/internal/vectorstore"
)

var indexQuiet bool

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Analyze a Python project and store snapshots, the project graph and embeddings",
	Long: `Index walks a project (the current directory by default), analyzes every
Python file, and writes into .resgraph/:
  - snapshots.db            per-file symbols and dependencies (SQLite)
  - dependency-graph.json   the project-wide operation/resource graph
  - vectors/                per-symbol chunk embeddings for "resgraph search"

Files whose content is unchanged since the last run reuse their snapshot.

Examples:
  # Index the current directory
  resgraph index

  # Index another project without progress output
  resgraph index ../service --quiet
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexQuiet, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	proj, err := loadProject(dir)
	if err != nil {
		return err
	}
	storageDir := proj.cfg.StorageDir(proj.root)

	store, err := storage.OpenDir(storageDir)
	if err != nil {
		return err
	}
	defer store.Close()

	graphs, err := graph.NewStorage(storageDir)
	if err != nil {
		return err
	}

	provider, err := embed.NewProvider(proj.cfg.Embedding)
	if err != nil {
		return err
	}
	defer provider.Close()

	var vectors vectorstore.Store
	if err := provider.Initialize(ctx); err != nil {
		proj.logger.WithError(err).Warn("embedding provider unavailable, skipping vector store")
	} else {
		vectors, err = vectorstore.NewStore(
			filepath.Join(storageDir, vectorstore.DirName),
			proj.cfg.Storage.VectorCollection,
			proj.cfg.Storage.Compress,
			provider,
		)
		if err != nil {
			return err
		}
	}

	var progress ingest.ProgressReporter = &ingest.NoOpProgressReporter{}
	if !indexQuiet {
		progress = NewCLIProgressReporter(cmd.OutOrStdout(), false)
	}

	ix, err := ingest.NewIndexer(proj.root, proj.cfg, store, graphs, vectors,
		ingest.WithLogger(proj.logger),
		ingest.WithProgress(progress),
	)
	if err != nil {
		return err
	}

	res, err := ix.Index(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if !indexQuiet {
		insights := graph.Analyze(res.Project, graph.WithCriticalFactor(proj.cfg.Analysis.CriticalFactor))
		out := cmd.OutOrStdout()
		if len(insights.CriticalResources) > 0 {
			fmt.Fprintln(out, "\nCritical resources:")
			for _, r := range insights.CriticalResources {
				fmt.Fprintf(out, "  %s (used by %d operations)\n", r, insights.ResourceUsage[r])
			}
		}
		for _, r := range res.Results {
			if r.Err != nil {
				fmt.Fprintf(out, "  ✗ %s: %v\n", r.RelPath, r.Err)
			}
		}
	}
	return nil
}
