package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// hashProvider generates deterministic embeddings from a text hash. It needs
// no model and no network, so indexing works offline; similarity only
// reflects identical text.
type hashProvider struct {
	dimensions int
}

// NewHashProvider creates a deterministic provider producing unit vectors.
func NewHashProvider(dimensions int) Provider {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &hashProvider{dimensions: dimensions}
}

func (p *hashProvider) Initialize(ctx context.Context) error {
	return nil
}

// Embed generates embeddings by hashing the input text.
func (p *hashProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hash := sha256.Sum256([]byte(text))

		embedding := make([]float32, p.dimensions)
		var norm float64
		for j := 0; j < p.dimensions; j++ {
			// Re-hash every 8 values so long vectors don't repeat.
			if j > 0 && j%8 == 0 {
				hash = sha256.Sum256(hash[:])
			}
			offset := (j % 8) * 4
			val := binary.BigEndian.Uint32(hash[offset : offset+4])
			embedding[j] = (float32(val)/float32(1<<32))*2.0 - 1.0
			norm += float64(embedding[j]) * float64(embedding[j])
		}

		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
			for j := range embedding {
				embedding[j] *= scale
			}
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}

func (p *hashProvider) Dimensions() int {
	return p.dimensions
}

func (p *hashProvider) Close() error {
	return nil
}
