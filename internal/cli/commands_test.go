package cli

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mvp-joe/resgraph/internal/config"
	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for commands (sequential: commands share flag state and the working directory):
// - version prints the build information
// - analyze emits a JSON report for a file and rejects unknown formats
// - graph and search explain that "index" must run first
// - index writes snapshots, the project graph and vectors; a second run reuses snapshots
// - graph renders the stored project graph, with a centrality table when --top is set
// - search returns at most --limit matches

const fixtureRoot = "../../testdata/code/python"

func resetFlags() {
	cfgFile = ""
	verbose = false
	analyzeFormat = FormatText
	analyzeWatch = false
	indexQuiet = false
	graphFormat = FormatDOT
	graphOut = ""
	graphTop = 0
	searchLimit = 5
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// newProject copies the fixture into a temp dir with a quiet logging config
// and makes it the working directory.
func newProject(t *testing.T) string {
	t.Helper()
	src, err := filepath.Abs(fixtureRoot)
	require.NoError(t, err)
	dst := t.TempDir()

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(dst, rel), 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dst, rel), data, 0644)
	})
	require.NoError(t, err)

	cfgDir := filepath.Join(dst, config.DirName)
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yml"),
		[]byte("logging:\n  level: error\nembedding:\n  dimensions: 32\n"), 0644))

	t.Chdir(dst)
	return dst
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "resgraph "+Version)
	assert.Contains(t, out, "Git commit:")
}

func TestAnalyzeCommand(t *testing.T) {
	newProject(t)

	out, _, err := execute(t, "analyze", "inventory.py", "--format", "json")
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, strings.HasSuffix(report.File, "inventory.py"))
	assert.Len(t, report.Symbols, 6)

	ids := []string{}
	for _, f := range report.Operations["load"] {
		ids = append(ids, f.ID)
	}
	assert.ElementsMatch(t, []string{"data_dir", "inventory.csv"}, ids)
	assert.Empty(t, report.Operations["report"])

	_, _, err = execute(t, "analyze", "inventory.py", "--format", "xml")
	assert.Error(t, err)

	_, _, err = execute(t, "analyze", "missing.py")
	assert.Error(t, err)
}

func TestCommandsBeforeIndex(t *testing.T) {
	newProject(t)

	_, _, err := execute(t, "graph")
	assert.ErrorIs(t, err, errNoProjectGraph)

	_, _, err = execute(t, "search", "settings")
	assert.ErrorIs(t, err, errEmptyIndex)
}

func TestIndexGraphSearch(t *testing.T) {
	root := newProject(t)

	_, _, err := execute(t, "index", "--quiet")
	require.NoError(t, err)

	storageDir := filepath.Join(root, config.DirName)
	assert.FileExists(t, filepath.Join(storageDir, storage.DBFileName))
	assert.FileExists(t, filepath.Join(storageDir, graph.GraphFileName))

	out, _, err := execute(t, "index", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Unchanged:  2")

	out, _, err = execute(t, "graph", "--format", "json")
	require.NoError(t, err)
	var data graph.GraphData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.NotEmpty(t, data.Nodes)
	assert.Contains(t, out, "operation:pkg/loader.py::load_settings")

	dotPath := filepath.Join(root, "graph.dot")
	out, _, err = execute(t, "graph", "--out", dotPath, "--top", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "RANK")
	dot, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(dot), "strict digraph")

	out, errOut, err := execute(t, "graph", "inventory.py", "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `"operation:load"`)
	assert.Contains(t, errOut, "RANK")

	out, _, err = execute(t, "search", "open settings file", "--limit", "2")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}
