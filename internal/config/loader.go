package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-project directory holding config and snapshots.
const DirName = ".resgraph"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads an explicit file instead of searching .resgraph/.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{rootDir: rootDir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (RESGRAPH_*)
// 2. Config file (.resgraph/config.yml or .resgraph/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, DirName))
	}

	// RESGRAPH_ANALYSIS_ID_SCHEME -> analysis.id_scheme
	v.SetEnvPrefix("RESGRAPH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"analysis.symbols",
		"analysis.boundary",
		"analysis.id_scheme",
		"analysis.critical_factor",
		"analysis.workers",
		"embedding.provider",
		"embedding.model",
		"embedding.endpoint",
		"embedding.dimensions",
		"embedding.chunk_lines",
		"storage.dir",
		"storage.vector_collection",
		"storage.compress",
		"logging.level",
		"logging.format",
		"logging.output",
	} {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("analysis.symbols", defaults.Analysis.Symbols)
	v.SetDefault("analysis.boundary", defaults.Analysis.Boundary)
	v.SetDefault("analysis.id_scheme", defaults.Analysis.IDScheme)
	v.SetDefault("analysis.critical_factor", defaults.Analysis.CriticalFactor)
	v.SetDefault("analysis.workers", defaults.Analysis.Workers)

	v.SetDefault("embedding.provider", defaults.Embedding.Provider)
	v.SetDefault("embedding.model", defaults.Embedding.Model)
	v.SetDefault("embedding.endpoint", defaults.Embedding.Endpoint)
	v.SetDefault("embedding.dimensions", defaults.Embedding.Dimensions)
	v.SetDefault("embedding.chunk_lines", defaults.Embedding.ChunkLines)

	v.SetDefault("storage.dir", defaults.Storage.Dir)
	v.SetDefault("storage.vector_collection", defaults.Storage.VectorCollection)
	v.SetDefault("storage.compress", defaults.Storage.Compress)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.output", defaults.Logging.Output)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// StorageDir resolves the storage directory against rootDir.
func (c *Config) StorageDir(rootDir string) string {
	if filepath.IsAbs(c.Storage.Dir) {
		return c.Storage.Dir
	}
	return filepath.Join(rootDir, c.Storage.Dir)
}
