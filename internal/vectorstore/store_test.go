package vectorstore

import (
	"context"
	"testing"

	"github.com/mvp-joe/resgraph/internal/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Store:
// - Query on an empty store returns no matches
// - Exact chunk text ranks its own chunk first with metadata intact
// - n larger than the collection is clamped
// - Replace drops chunks from the previous run
// - A persistent store reopens with its chunks
// - A nil provider is rejected

func sampleChunks() []Chunk {
	return []Chunk{
		{ID: "a.py:1:load", Filename: "a.py", Path: "a.py", Symbol: "load", Kind: "function", Line: 1, Text: "def load():\n    open('x.csv')"},
		{ID: "a.py:4:save", Filename: "a.py", Path: "a.py", Symbol: "save", Kind: "function", Line: 4, Text: "def save():\n    db.execute(q)"},
		{ID: "b.py:0:file", Filename: "b.py", Path: "b.py", Symbol: FileSymbol, Kind: FileSymbol, Line: 1, Text: "X = 1"},
	}
}

func TestStore_QueryEmpty(t *testing.T) {
	t.Parallel()

	s, err := NewMemoryStore(embed.NewHashProvider(32))
	require.NoError(t, err)

	matches, err := s.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 0, s.Count())
}

func TestStore_ReplaceAndQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := NewMemoryStore(embed.NewHashProvider(64))
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, sampleChunks()))
	assert.Equal(t, 3, s.Count())

	matches, err := s.Query(ctx, "def save():\n    db.execute(q)", 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, sampleChunks()[1], matches[0].Chunk)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-4)

	none, err := s.Query(ctx, "x", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ReplaceOverwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := NewMemoryStore(embed.NewHashProvider(16))
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, sampleChunks()))
	require.NoError(t, s.Replace(ctx, sampleChunks()[:1]))

	matches, err := s.Query(ctx, "def save():\n    db.execute(q)", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "load", matches[0].Symbol)

	require.NoError(t, s.Replace(ctx, nil))
	assert.Equal(t, 0, s.Count())
}

func TestStore_Persistent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	provider := embed.NewHashProvider(16)

	s, err := NewStore(dir, "", false, provider)
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, sampleChunks()))

	reopened, err := NewStore(dir, DefaultCollection, false, provider)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Count())

	matches, err := reopened.Query(ctx, "X = 1", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b.py", matches[0].Filename)
	assert.Equal(t, 1, matches[0].Line)
}

func TestStore_RequiresProvider(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryStore(nil)
	assert.Error(t, err)
	_, err = NewStore(t.TempDir(), "", false, nil)
	assert.Error(t, err)
}

func TestEmbeddingFunc(t *testing.T) {
	t.Parallel()

	p := embed.NewHashProvider(8)
	fn := EmbeddingFunc(p, embed.EmbedModeQuery)

	got, err := fn(context.Background(), "hello")
	require.NoError(t, err)
	want, err := p.Embed(context.Background(), []string{"hello"}, embed.EmbedModeQuery)
	require.NoError(t, err)
	assert.Equal(t, want[0], got)
}
