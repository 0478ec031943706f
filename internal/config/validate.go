package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidStrategy indicates an unsupported symbol or boundary strategy
	ErrInvalidStrategy = errors.New("invalid analysis strategy")

	// ErrInvalidIDScheme indicates an unsupported resource id scheme
	ErrInvalidIDScheme = errors.New("invalid id scheme")

	// ErrInvalidCriticalFactor indicates a non-positive critical factor
	ErrInvalidCriticalFactor = errors.New("invalid critical factor")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidProvider indicates an unsupported embedding provider
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidDimensions indicates invalid embedding dimensions
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidChunkLines indicates invalid chunk size configuration
	ErrInvalidChunkLines = errors.New("invalid chunk lines")

	// ErrEmptyEndpoint indicates missing embedding endpoint
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")

	// ErrEmptyModel indicates missing embedding model
	ErrEmptyModel = errors.New("empty embedding model")

	// ErrEmptyStorage indicates a missing storage directory or collection
	ErrEmptyStorage = errors.New("empty storage setting")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates an unknown log format
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		errs = append(errs, err)
	}
	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		errs = append(errs, err)
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validateAnalysis(cfg *AnalysisConfig) error {
	var errs []error

	for field, value := range map[string]string{"symbols": cfg.Symbols, "boundary": cfg.Boundary} {
		switch strings.ToLower(value) {
		case "text", "treesitter":
		default:
			errs = append(errs, fmt.Errorf("%w: %s must be 'text' or 'treesitter', got '%s'", ErrInvalidStrategy, field, value))
		}
	}

	switch strings.ToLower(cfg.IDScheme) {
	case "callsite", "size":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'callsite' or 'size', got '%s'", ErrInvalidIDScheme, cfg.IDScheme))
	}

	if cfg.CriticalFactor <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %g", ErrInvalidCriticalFactor, cfg.CriticalFactor))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	return joinErrors(errs)
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != "hash" && provider != "ollama" {
		errs = append(errs, fmt.Errorf("%w: must be 'hash' or 'ollama', got '%s'", ErrInvalidProvider, cfg.Provider))
	}

	if provider == "ollama" {
		if strings.TrimSpace(cfg.Model) == "" {
			errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
		}
		if strings.TrimSpace(cfg.Endpoint) == "" {
			errs = append(errs, fmt.Errorf("%w: endpoint is required", ErrEmptyEndpoint))
		}
	}

	if cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}
	if cfg.ChunkLines <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_lines must be positive, got %d", ErrInvalidChunkLines, cfg.ChunkLines))
	}

	return joinErrors(errs)
}

func validateStorage(cfg *StorageConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: dir is required", ErrEmptyStorage))
	}
	if strings.TrimSpace(cfg.VectorCollection) == "" {
		errs = append(errs, fmt.Errorf("%w: vector_collection is required", ErrEmptyStorage))
	}

	return joinErrors(errs)
}

func validateLogging(cfg *LoggingConfig) error {
	var errs []error

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: got '%s'", ErrInvalidLogLevel, cfg.Level))
	}

	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'text' or 'json', got '%s'", ErrInvalidLogFormat, cfg.Format))
	}

	return joinErrors(errs)
}

// joinErrors combines multiple errors into one, keeping each sentinel
// reachable through errors.Is.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
}
