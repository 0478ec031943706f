package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/resgraph/internal/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for export, storage and centrality:
// - DOT output is a strict digraph with coloured, labelled nodes and "uses" edges
// - GraphData carries every node and edge with matching counts
// - Storage returns nil before the first save and round-trips after it
// - Storage save leaves no temp file behind
// - Storage rejects snapshots written in another format version
// - FromGraphData rebuilds the same graph, keeping operations without edges
// - FromGraphData rejects edges that do not run operation -> resource
// - Centrality ranks the most shared resource first on the undirected projection
// - Centrality on an empty graph returns an empty list
// - top limits the result length

func sampleGraph(t *testing.T) *DependencyGraph {
	t.Helper()
	idx := NewIndex()
	for _, op := range []string{"a", "b", "c"} {
		idx.Add(op, resources.NewSet("db"))
	}
	idx.Add("a", resources.NewSet("x"))
	dg, err := BuildGraph(idx)
	require.NoError(t, err)
	return dg
}

func TestWriteDOT(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, sampleGraph(t)))
	out := buf.String()

	assert.Contains(t, out, "strict digraph")
	assert.Contains(t, out, `"operation:a"`)
	assert.Contains(t, out, `"resource:db"`)
	assert.Contains(t, out, `fillcolor="lightblue"`)
	assert.Contains(t, out, `fillcolor="lightgreen"`)
	assert.Contains(t, out, `label="db"`)
	assert.Contains(t, out, `"operation:a" -> "resource:x"`)
	assert.Contains(t, out, `relation="uses"`)
}

func TestWriteDOT_Empty(t *testing.T) {
	t.Parallel()

	dg, err := BuildGraph(NewIndex())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, dg))
	assert.Contains(t, buf.String(), "strict digraph")
}

func TestToGraphData(t *testing.T) {
	t.Parallel()

	data := ToGraphData(sampleGraph(t), "app.py")

	assert.Equal(t, "app.py", data.Metadata.Source)
	assert.Equal(t, 5, data.Metadata.NodeCount)
	assert.Equal(t, 4, data.Metadata.EdgeCount)
	assert.Len(t, data.Nodes, 5)
	assert.Len(t, data.Edges, 4)
	assert.Equal(t, NodeOperation, data.Nodes[0].Kind)
	assert.Equal(t, NodeResource, data.Nodes[len(data.Nodes)-1].Kind)
}

func TestFromGraphData(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add("a", resources.NewSet("db"))
	idx.Add("lonely", nil)
	dg, err := BuildGraph(idx)
	require.NoError(t, err)

	rebuilt, err := FromGraphData(ToGraphData(dg, "x"))
	require.NoError(t, err)
	assert.Equal(t, dg.Nodes(), rebuilt.Nodes())
	assert.Equal(t, dg.Edges(), rebuilt.Edges())

	_, err = FromGraphData(&GraphData{
		Nodes: []Node{{ID: "resource:r", Name: "r", Kind: NodeResource}},
		Edges: []Edge{{From: "resource:r", To: "operation:f", Type: EdgeUses}},
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestStorage_SaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStorage(dir)
	require.NoError(t, err)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, s.Exists())

	data := ToGraphData(sampleGraph(t), "app.py")
	require.NoError(t, s.Save(data))
	assert.True(t, s.Exists())

	loaded, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, GraphVersion, loaded.Metadata.Version)
	assert.Equal(t, data.Nodes, loaded.Nodes)
	assert.Equal(t, data.Edges, loaded.Edges)

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStorage_VersionMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStorage(dir)
	require.NoError(t, err)

	raw := []byte(`{"_metadata":{"version":"0.1"},"nodes":[],"edges":[]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, GraphFileName), raw, 0644))

	_, err = s.Load()
	assert.ErrorIs(t, err, ErrGraphVersion)
}

func TestCentrality(t *testing.T) {
	t.Parallel()

	metrics := Centrality(sampleGraph(t), 0)

	require.Len(t, metrics, 5)
	assert.Equal(t, "resource:db", metrics[0].ID)
	assert.Equal(t, NodeResource, metrics[0].Kind)
	assert.Greater(t, metrics[0].Betweenness, 0.0)
	for _, m := range metrics {
		assert.Greater(t, m.PageRank, 0.0, m.ID)
	}
}

func TestCentrality_TopAndEmpty(t *testing.T) {
	t.Parallel()

	assert.Len(t, Centrality(sampleGraph(t), 2), 2)

	dg, err := BuildGraph(NewIndex())
	require.NoError(t, err)
	assert.Empty(t, Centrality(dg, 3))
}
