package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/parsers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Store:
// - A new database carries the schema version and has no runs
// - SaveFile/LoadFile round-trips symbols and findings, including operations without resources
// - LoadIndex rebuilds the same index the extractor produced
// - Saving a file again replaces every earlier row for it
// - FileState reports the stored hash and settings, and unknown paths
// - Runs record their revision and counters; finishing an unknown run fails with ErrNotFound
// - DeleteFile and Prune cascade to symbols and dependencies
// - Snapshots survive reopening the database

const source = `def load(path):
    open('data.csv')
    db.execute(q)

def noop():
    pass
`

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", DBFileName)
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func snapshotOf(t *testing.T, path, src string) *FileSnapshot {
	t.Helper()
	symbols := parsers.NewTextExtractor().Extract(src)
	_, findings := graph.ExtractWithFindings(symbols, src, nil)
	return &FileSnapshot{Path: path, Hash: "h-" + path, Settings: "s-1", Symbols: symbols, Findings: findings}
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestStore_NewDatabase(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	version, err := GetSchemaVersion(s.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	_, err = s.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	files, err := s.Files(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestStore_SaveLoadFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	run, err := s.BeginRun(ctx, "/project")
	require.NoError(t, err)

	snap := snapshotOf(t, "pkg/app.py", source)
	require.NoError(t, s.SaveFile(ctx, run.ID, snap))

	loaded, err := s.LoadFile(ctx, "pkg/app.py")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
	assert.Empty(t, loaded.Findings["noop"])

	idx, err := s.LoadIndex(ctx, "pkg/app.py")
	require.NoError(t, err)
	symbols := parsers.NewTextExtractor().Extract(source)
	assert.Equal(t, graph.ExtractDependencies(symbols, source, nil), idx)
	require.NoError(t, idx.Validate())

	_, err = s.LoadFile(ctx, "missing.py")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveFileReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	run, err := s.BeginRun(ctx, "/project")
	require.NoError(t, err)
	require.NoError(t, s.SaveFile(ctx, run.ID, snapshotOf(t, "app.py", source)))
	assert.Equal(t, 2, countRows(t, s, "symbols"))
	assert.Equal(t, 3, countRows(t, s, "dependencies"))

	replacement := snapshotOf(t, "app.py", "def only():\n    open('x.txt')\n")
	replacement.Hash = "changed"
	require.NoError(t, s.SaveFile(ctx, run.ID, replacement))

	assert.Equal(t, 1, countRows(t, s, "files"))
	assert.Equal(t, 1, countRows(t, s, "symbols"))
	assert.Equal(t, 1, countRows(t, s, "dependencies"))

	idx, err := s.LoadIndex(ctx, "app.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, idx.Operations())
	assert.Equal(t, []string{"x.txt"}, idx.Resources())
}

func TestStore_FileState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, ok, err := s.FileState(ctx, "app.py")
	require.NoError(t, err)
	assert.False(t, ok)

	run, err := s.BeginRun(ctx, "/project")
	require.NoError(t, err)
	require.NoError(t, s.SaveFile(ctx, run.ID, snapshotOf(t, "app.py", source)))

	state, ok, err := s.FileState(ctx, "app.py")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, FileState{Hash: "h-app.py", Settings: "s-1"}, state)

	snap, err := s.LoadFile(ctx, "app.py")
	require.NoError(t, err)
	assert.Equal(t, "s-1", snap.Settings)
}

func TestStore_Runs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	run, err := s.BeginRun(ctx, "/project", WithRevision("main", "abc1234"))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, "main", latest.Branch)
	assert.Equal(t, "abc1234", latest.Commit)
	assert.Nil(t, latest.FinishedAt)

	stats := RunStats{Files: 3, Skipped: 1, Failed: 1, Operations: 4, Resources: 7}
	require.NoError(t, s.FinishRun(ctx, run.ID, stats))

	latest, err = s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/project", latest.Root)
	assert.Equal(t, stats, latest.Stats)
	assert.NotNil(t, latest.FinishedAt)

	assert.ErrorIs(t, s.FinishRun(ctx, "nope", stats), ErrNotFound)
}

func TestStore_DeleteAndPrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	run, err := s.BeginRun(ctx, "/project")
	require.NoError(t, err)
	for _, p := range []string{"a.py", "b.py", "c.py"} {
		require.NoError(t, s.SaveFile(ctx, run.ID, snapshotOf(t, p, source)))
	}

	require.NoError(t, s.DeleteFile(ctx, "a.py"))
	require.NoError(t, s.DeleteFile(ctx, "unknown.py"))
	assert.Equal(t, 4, countRows(t, s, "symbols"))

	removed, err := s.Prune(ctx, []string{"b.py"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	files, err := s.Files(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.py"}, files)
	assert.Equal(t, 2, countRows(t, s, "symbols"))
	assert.Equal(t, 3, countRows(t, s, "dependencies"))

	removed, err = s.Prune(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, countRows(t, s, "dependencies"))
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, path := newTestStore(t)

	run, err := s.BeginRun(ctx, "/project")
	require.NoError(t, err)
	require.NoError(t, s.SaveFile(ctx, run.ID, snapshotOf(t, "app.py", source)))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	files, err := reopened.Files(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, files)
}
