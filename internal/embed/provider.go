package embed

import "context"

// EmbedMode specifies the type of embedding to generate.
type EmbedMode string

const (
	// EmbedModeQuery generates embeddings for search queries.
	EmbedModeQuery EmbedMode = "query"

	// EmbedModePassage generates embeddings for indexed code chunks.
	EmbedModePassage EmbedMode = "passage"
)

// Provider defines the interface for embedding text into vectors.
type Provider interface {
	// Initialize prepares the provider and blocks until ready.
	// Must be called before Embed().
	Initialize(ctx context.Context) error

	// Embed converts texts into vectors, one per text, in order.
	Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)

	// Dimensions returns the dimensionality of the vectors produced.
	Dimensions() int

	// Close releases any resources held by the provider.
	Close() error
}
