package embed

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/resgraph/internal/config"
)

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "hash", "":
		return NewHashProvider(cfg.Dimensions), nil
	case "ollama":
		return NewOllamaProvider(cfg.Model, cfg.Endpoint), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: hash, ollama)", cfg.Provider)
	}
}
