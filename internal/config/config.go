package config

// Config represents the complete resgraph configuration.
// It can be loaded from .resgraph/config.yml with environment variable overrides.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// PathsConfig defines which files to analyze and which to ignore.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for source files
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// AnalysisConfig selects the extraction strategies.
type AnalysisConfig struct {
	Symbols        string  `yaml:"symbols" mapstructure:"symbols"`                 // "text" or "treesitter"
	Boundary       string  `yaml:"boundary" mapstructure:"boundary"`               // "text" or "treesitter"
	IDScheme       string  `yaml:"id_scheme" mapstructure:"id_scheme"`             // "callsite" or "size"
	CriticalFactor float64 `yaml:"critical_factor" mapstructure:"critical_factor"` // multiple of mean usage
	Workers        int     `yaml:"workers" mapstructure:"workers"`                 // files analyzed in parallel
}

// EmbeddingConfig configures the embedding provider and chunking.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`       // "hash" or "ollama"
	Model      string `yaml:"model" mapstructure:"model"`             // e.g., "nomic-embed-text"
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`       // Ollama API base URL
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`   // vector size for the hash provider
	ChunkLines int    `yaml:"chunk_lines" mapstructure:"chunk_lines"` // lines per symbol chunk
}

// StorageConfig defines where snapshots and vectors live.
type StorageConfig struct {
	Dir              string `yaml:"dir" mapstructure:"dir"`                             // relative to the project root
	VectorCollection string `yaml:"vector_collection" mapstructure:"vector_collection"` // chromem collection name
	Compress         bool   `yaml:"compress" mapstructure:"compress"`                   // gzip persisted vectors
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
	Output string `yaml:"output" mapstructure:"output"` // stderr, stdout or a file path
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Code: []string{
				"**/*.py",
			},
			Ignore: []string{
				".git/**",
				"__pycache__/**",
				"venv/**",
				".venv/**",
				"node_modules/**",
				".resgraph/**",
				"build/**",
				"dist/**",
				"*.pyc",
			},
		},
		Analysis: AnalysisConfig{
			Symbols:        "text",
			Boundary:       "text",
			IDScheme:       "callsite",
			CriticalFactor: 1.5,
			Workers:        4,
		},
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Model:      "nomic-embed-text",
			Endpoint:   "http://localhost:11434/api",
			Dimensions: 256,
			ChunkLines: 30,
		},
		Storage: StorageConfig{
			Dir:              ".resgraph",
			VectorCollection: "codebase",
			Compress:         false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// GetSourceExtensions extracts unique file extensions from code patterns.
// Returns extensions with leading dot (e.g., []string{".py"}).
func (c *Config) GetSourceExtensions() []string {
	extMap := make(map[string]bool)
	var extensions []string
	for _, pattern := range c.Paths.Code {
		if ext := extractExtension(pattern); ext != "" && !extMap[ext] {
			extMap[ext] = true
			extensions = append(extensions, ext)
		}
	}
	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Returns empty string if pattern doesn't match a simple extension pattern.
// Examples: "**/*.py" -> ".py", "*.pyi" -> ".pyi"
func extractExtension(pattern string) string {
	for i := len(pattern) - 1; i >= 1; i-- {
		if pattern[i] == '.' && pattern[i-1] == '*' {
			return pattern[i:]
		}
	}
	return ""
}
