package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/resgraph/internal/extraction"
	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/resources"
)

// DBFileName is the snapshot database name inside the storage directory.
const DBFileName = "snapshots.db"

// ErrNotFound is returned when a run or file has no stored snapshot.
var ErrNotFound = errors.New("snapshot not found")

// Run describes one indexing pass.
type Run struct {
	ID         string
	Root       string
	Branch     string
	Commit     string
	StartedAt  time.Time
	FinishedAt *time.Time // nil while the run is in progress
	Stats      RunStats
}

// RunStats are the counters recorded when a run finishes.
type RunStats struct {
	Files      int
	Skipped    int
	Failed     int
	Operations int
	Resources  int
}

// FileSnapshot is everything recorded for one analyzed file.
type FileSnapshot struct {
	Path     string // slash-separated, relative to the project root
	Hash     string
	Settings string // fingerprint of the analysis settings that produced it
	Symbols  []extraction.Symbol
	Findings graph.OperationFindings
}

// Index rebuilds the file's dependency index from its findings.
func (f *FileSnapshot) Index() *graph.Index {
	idx := graph.NewIndex()
	for op, found := range f.Findings {
		idx.Add(op, resources.IDs(found))
	}
	return idx
}

// Store persists per-file analysis snapshots in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	// _foreign_keys applies the pragma to every pooled connection
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenDir opens the snapshot database inside dir.
func OpenDir(dir string) (*Store, error) {
	return Open(filepath.Join(dir, DBFileName))
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunOption annotates a run when it begins.
type RunOption func(*Run)

// WithRevision records the checked-out branch and commit of the project.
func WithRevision(branch, commit string) RunOption {
	return func(r *Run) {
		r.Branch = branch
		r.Commit = commit
	}
}

// BeginRun records the start of an indexing pass and returns its id.
func (s *Store) BeginRun(ctx context.Context, root string, opts ...RunOption) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(run)
	}
	_, err := sq.Insert("runs").
		Columns("id", "root", "branch", "commit_hash", "started_at").
		Values(run.ID, run.Root, run.Branch, run.Commit, run.StartedAt.Format(time.RFC3339Nano)).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, stats RunStats) error {
	res, err := sq.Update("runs").
		SetMap(map[string]interface{}{
			"finished_at": time.Now().UTC().Format(time.RFC3339Nano),
			"files":       stats.Files,
			"skipped":     stats.Skipped,
			"failed":      stats.Failed,
			"operations":  stats.Operations,
			"resources":   stats.Resources,
		}).
		Where(sq.Eq{"id": runID}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	err := sq.Select("id", "root", "branch", "commit_hash", "started_at", "finished_at", "files", "skipped", "failed", "operations", "resources").
		From("runs").
		OrderBy("started_at DESC").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&run.ID, &run.Root, &run.Branch, &run.Commit, &started, &finished,
			&run.Stats.Files, &run.Stats.Skipped, &run.Stats.Failed, &run.Stats.Operations, &run.Stats.Resources)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished.Valid {
		t, err := time.Parse(time.RFC3339Nano, finished.String)
		if err == nil {
			run.FinishedAt = &t
		}
	}
	return &run, nil
}

// SaveFile replaces every stored row for snap.Path with snap, in one
// transaction. Nothing from an earlier snapshot of the file survives.
func (s *Store) SaveFile(ctx context.Context, runID string, snap *FileSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := sq.Delete("files").Where(sq.Eq{"path": snap.Path}).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear %s: %w", snap.Path, err)
	}

	_, err = sq.Insert("files").
		Columns("path", "run_id", "hash", "settings", "analyzed_at").
		Values(snap.Path, runID, snap.Hash, snap.Settings, time.Now().UTC().Format(time.RFC3339Nano)).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", snap.Path, err)
	}

	symbols, err := prepareInsert(ctx, tx, sq.Insert("symbols").
		Columns("file_path", "ordinal", "name", "kind", "line").
		Values("", 0, "", "", 0))
	if err != nil {
		return err
	}
	defer symbols.Close()
	for i, sym := range snap.Symbols {
		if _, err := symbols.ExecContext(ctx, snap.Path, i, sym.Name, string(sym.Kind), sym.Line); err != nil {
			return fmt.Errorf("failed to insert symbol %s in %s: %w", sym.Name, snap.Path, err)
		}
	}

	deps, err := prepareInsert(ctx, tx, sq.Insert("dependencies").
		Columns("file_path", "operation", "resource", "kind", "line", "ordinal").
		Values("", "", "", "", 0, 0))
	if err != nil {
		return err
	}
	defer deps.Close()

	ops := make([]string, 0, len(snap.Findings))
	for op := range snap.Findings {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		for i, f := range snap.Findings[op] {
			if _, err := deps.ExecContext(ctx, snap.Path, op, f.ID, string(f.Kind), f.Line, i); err != nil {
				return fmt.Errorf("failed to insert dependency %s -> %s in %s: %w", op, f.ID, snap.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", snap.Path, err)
	}
	return nil
}

// prepareInsert builds the statement once with placeholder values and
// prepares it on tx for per-row execution.
func prepareInsert(ctx context.Context, tx *sql.Tx, builder sq.InsertBuilder) (*sql.Stmt, error) {
	sqlStr, _, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	return stmt, nil
}

// LoadFile returns the stored snapshot for path.
func (s *Store) LoadFile(ctx context.Context, path string) (*FileSnapshot, error) {
	snap := &FileSnapshot{Path: path, Findings: graph.OperationFindings{}}

	err := sq.Select("hash", "settings").From("files").Where(sq.Eq{"path": path}).
		RunWith(s.db).QueryRowContext(ctx).Scan(&snap.Hash, &snap.Settings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	symRows, err := sq.Select("name", "kind", "line").From("symbols").
		Where(sq.Eq{"file_path": path}).OrderBy("ordinal").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbols for %s: %w", path, err)
	}
	defer symRows.Close()
	for symRows.Next() {
		var sym extraction.Symbol
		var kind string
		if err := symRows.Scan(&sym.Name, &kind, &sym.Line); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		sym.Kind = extraction.SymbolKind(kind)
		snap.Symbols = append(snap.Symbols, sym)
		if sym.IsFunction() {
			if _, ok := snap.Findings[sym.Name]; !ok {
				snap.Findings[sym.Name] = []resources.Finding{}
			}
		}
	}
	if err := symRows.Err(); err != nil {
		return nil, err
	}

	depRows, err := sq.Select("operation", "resource", "kind", "line").From("dependencies").
		Where(sq.Eq{"file_path": path}).OrderBy("operation", "ordinal").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dependencies for %s: %w", path, err)
	}
	defer depRows.Close()
	for depRows.Next() {
		var op, kind string
		var f resources.Finding
		if err := depRows.Scan(&op, &f.ID, &kind, &f.Line); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		f.Kind = resources.Kind(kind)
		snap.Findings[op] = append(snap.Findings[op], f)
	}
	if err := depRows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

// LoadIndex rebuilds the dependency index stored for path.
func (s *Store) LoadIndex(ctx context.Context, path string) (*graph.Index, error) {
	snap, err := s.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return snap.Index(), nil
}

// FileState identifies the input a snapshot was built from.
type FileState struct {
	Hash     string
	Settings string
}

// FileState returns the content hash and settings fingerprint stored for
// path. ok is false when the file has no snapshot.
func (s *Store) FileState(ctx context.Context, path string) (state FileState, ok bool, err error) {
	err = sq.Select("hash", "settings").From("files").Where(sq.Eq{"path": path}).
		RunWith(s.db).QueryRowContext(ctx).Scan(&state.Hash, &state.Settings)
	if errors.Is(err, sql.ErrNoRows) {
		return FileState{}, false, nil
	}
	if err != nil {
		return FileState{}, false, fmt.Errorf("failed to read state for %s: %w", path, err)
	}
	return state, true, nil
}

// Files returns every stored path in lexical order.
func (s *Store) Files(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("path").From("files").OrderBy("path").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFile removes the snapshot for path. Deleting an unknown path is not an error.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	if _, err := sq.Delete("files").Where(sq.Eq{"path": path}).RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Prune deletes snapshots for every stored path not in present and returns
// how many were removed.
func (s *Store) Prune(ctx context.Context, present []string) (int, error) {
	del := sq.Delete("files")
	if len(present) > 0 {
		del = del.Where(sq.NotEq{"path": present})
	}
	res, err := del.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
