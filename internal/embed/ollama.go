package embed

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// ollamaProvider embeds text through an Ollama server.
type ollamaProvider struct {
	model      string
	endpoint   string
	embed      chromem.EmbeddingFunc
	dimensions int
}

// NewOllamaProvider creates a provider for model served at endpoint
// (e.g. http://localhost:11434/api).
func NewOllamaProvider(model, endpoint string) Provider {
	return &ollamaProvider{
		model:    model,
		endpoint: endpoint,
		embed:    chromem.NewEmbeddingFuncOllama(model, endpoint),
	}
}

// Initialize checks the server answers and records the vector size.
func (p *ollamaProvider) Initialize(ctx context.Context) error {
	v, err := p.embed(ctx, "resgraph")
	if err != nil {
		return fmt.Errorf("ollama %s at %s: %w", p.model, p.endpoint, err)
	}
	p.dimensions = len(v)
	return nil
}

func (p *ollamaProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := p.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text: %w", err)
		}
		embeddings = append(embeddings, v)
	}
	return embeddings, nil
}

// Dimensions is zero until Initialize succeeds.
func (p *ollamaProvider) Dimensions() int {
	return p.dimensions
}

func (p *ollamaProvider) Close() error {
	return nil
}
