package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/mvp-joe/resgraph/internal/embed"
	"github.com/philippgille/chromem-go"
)

const (
	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "codebase"

	// DirName is the vector database directory inside the storage directory.
	DirName = "vectors"
)

// Match is a chunk returned by a similarity query.
type Match struct {
	Chunk
	Similarity float32 `json:"similarity"`
}

// Store persists chunk embeddings and answers nearest-neighbour queries.
type Store interface {
	// Replace overwrites the collection with chunks.
	Replace(ctx context.Context, chunks []Chunk) error

	// Query returns up to n chunks nearest to text, most similar first.
	Query(ctx context.Context, text string, n int) ([]Match, error)

	// Count returns the number of stored chunks.
	Count() int
}

// chromemStore implements Store on a chromem-go database.
type chromemStore struct {
	db       *chromem.DB
	name     string
	provider embed.Provider

	mu         sync.RWMutex // guards collection across Replace
	collection *chromem.Collection
}

// NewStore opens (or creates) a persistent chromem database in dir.
// The provider must already be initialized.
func NewStore(dir, collection string, compress bool, provider embed.Provider) (Store, error) {
	if provider == nil {
		return nil, errors.New("embedding provider is required")
	}
	if collection == "" {
		collection = DefaultCollection
	}

	db, err := chromem.NewPersistentDB(dir, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	return newStore(db, collection, provider)
}

// NewMemoryStore creates a store that is never written to disk.
func NewMemoryStore(provider embed.Provider) (Store, error) {
	if provider == nil {
		return nil, errors.New("embedding provider is required")
	}
	return newStore(chromem.NewDB(), DefaultCollection, provider)
}

func newStore(db *chromem.DB, name string, provider embed.Provider) (*chromemStore, error) {
	coll, err := db.GetOrCreateCollection(name, nil, EmbeddingFunc(provider, embed.EmbedModePassage))
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	return &chromemStore{db: db, name: name, provider: provider, collection: coll}, nil
}

func (s *chromemStore) Replace(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	coll, err := s.db.CreateCollection(s.name, nil, EmbeddingFunc(s.provider, embed.EmbedModePassage))
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	s.collection = coll

	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.provider.Embed(ctx, texts, embed.EmbedModePassage)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("provider returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chunkToDocument(c, vectors[i])
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add chunks: %w", err)
	}
	return nil
}

func (s *chromemStore) Query(ctx context.Context, text string, n int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return []Match{}, nil
	}
	n = min(n, s.collection.Count())
	if n == 0 {
		return []Match{}, nil
	}

	vectors, err := s.provider.Embed(ctx, []string{text}, embed.EmbedModeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("provider returned %d vectors for one query", len(vectors))
	}

	results, err := s.collection.QueryEmbedding(ctx, vectors[0], n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{Chunk: resultToChunk(r), Similarity: r.Similarity})
	}
	return matches, nil
}

func (s *chromemStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}

// EmbeddingFunc adapts a Provider to chromem's single-text embedding function.
func EmbeddingFunc(p embed.Provider, mode embed.EmbedMode) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := p.Embed(ctx, []string{text}, mode)
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("provider returned %d vectors for one text", len(vectors))
		}
		return vectors[0], nil
	}
}

func chunkToDocument(c Chunk, vector []float32) chromem.Document {
	return chromem.Document{
		ID: c.ID,
		Metadata: map[string]string{
			"filename": c.Filename,
			"path":     c.Path,
			"symbol":   c.Symbol,
			"kind":     c.Kind,
			"line":     strconv.Itoa(c.Line),
		},
		Embedding: vector,
		Content:   c.Text,
	}
}

func resultToChunk(r chromem.Result) Chunk {
	line, _ := strconv.Atoi(r.Metadata["line"])
	return Chunk{
		ID:       r.ID,
		Filename: r.Metadata["filename"],
		Path:     r.Metadata["path"],
		Symbol:   r.Metadata["symbol"],
		Kind:     r.Metadata["kind"],
		Line:     line,
		Text:     r.Content,
	}
}
