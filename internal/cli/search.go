package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/resgraph/internal/embed"
	"github.com/mvp-joe/resgraph/internal/vectorstore"
)

var searchLimit int

// errEmptyIndex is returned when no chunks have been embedded yet.
var errEmptyIndex = errors.New("no chunks indexed; run 'resgraph index' first")

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the functions whose code is closest to a query",
	Long: `Search embeds the query with the configured provider and returns the
nearest per-symbol chunks stored by "resgraph index".

Examples:
  resgraph search "read settings from disk"
  resgraph search database cursor --limit 3
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	proj, err := loadProject(".")
	if err != nil {
		return err
	}

	provider, err := embed.NewProvider(proj.cfg.Embedding)
	if err != nil {
		return err
	}
	defer provider.Close()
	if err := provider.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	vectors, err := vectorstore.NewStore(
		filepath.Join(proj.cfg.StorageDir(proj.root), vectorstore.DirName),
		proj.cfg.Storage.VectorCollection,
		proj.cfg.Storage.Compress,
		provider,
	)
	if err != nil {
		return err
	}
	if vectors.Count() == 0 {
		return errEmptyIndex
	}

	matches, err := vectors.Query(ctx, strings.Join(args, " "), searchLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range matches {
		fmt.Fprintf(out, "%.3f  %s:%d  %s (%s)\n", m.Similarity, m.Path, m.Line, m.Symbol, m.Kind)
	}
	return nil
}
