package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the mindmap API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Prompts    PromptsConfig    `yaml:"prompts"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds the embedding cache store settings. The cache is
// optional: with no addrs the service embeds every segment fresh.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

// GenerationConfig holds text generation provider settings.
type GenerationConfig struct {
	Provider           string  `yaml:"provider"`
	APIKey             string  `yaml:"api_key"`
	BaseURL            string  `yaml:"base_url"`
	Model              string  `yaml:"model"`
	Temperature        float32 `yaml:"temperature"`
	TopP               float32 `yaml:"top_p"`
	MaxTokens          int     `yaml:"max_tokens"`
	MaxRetries         int     `yaml:"max_retries"`
	CallIntervalMillis int     `yaml:"call_interval_ms"`
}

// PipelineConfig holds clustering and enrichment parameters.
type PipelineConfig struct {
	MaxDepth                   int     `yaml:"max_depth"`
	MinClusterSize             int     `yaml:"min_cluster_size"`
	MinSizeRatio               float64 `yaml:"min_size_ratio"`
	SVDComponents              int     `yaml:"svd_components"`
	SampleTexts                int     `yaml:"sample_texts"`
	LabelTextBudget            int     `yaml:"label_text_budget"`
	DescriptionTextBudget      int     `yaml:"description_text_budget"`
	LabelMaxWords              int     `yaml:"label_max_words"`
	RelationshipThreshold      float64 `yaml:"relationship_threshold"`
	MaxRelationshipsPerConcept int     `yaml:"max_relationships_per_concept"`
}

// PromptsConfig holds the prompt template directory.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Mindmap generation is a long synchronous call chain.
		c.HTTP.WriteTimeoutSec = 600
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "openai"
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.3
	}
	if c.Generation.TopP <= 0 {
		c.Generation.TopP = 0.9
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 512
	}
	if c.Generation.MaxRetries <= 0 {
		c.Generation.MaxRetries = 2
	}
	if c.Pipeline.MaxDepth <= 0 {
		c.Pipeline.MaxDepth = 4
	}
	if c.Pipeline.MinClusterSize <= 0 {
		c.Pipeline.MinClusterSize = 3
	}
	if c.Pipeline.MinSizeRatio <= 0 {
		c.Pipeline.MinSizeRatio = 0.15
	}
	if c.Pipeline.SVDComponents <= 0 {
		c.Pipeline.SVDComponents = 32
	}
	if c.Pipeline.SampleTexts <= 0 {
		c.Pipeline.SampleTexts = 5
	}
	if c.Pipeline.LabelTextBudget <= 0 {
		c.Pipeline.LabelTextBudget = 1500
	}
	if c.Pipeline.DescriptionTextBudget <= 0 {
		c.Pipeline.DescriptionTextBudget = 3000
	}
	if c.Pipeline.LabelMaxWords <= 0 {
		c.Pipeline.LabelMaxWords = 60
	}
	if c.Pipeline.RelationshipThreshold <= 0 {
		c.Pipeline.RelationshipThreshold = 0.75
	}
	if c.Pipeline.MaxRelationshipsPerConcept <= 0 {
		c.Pipeline.MaxRelationshipsPerConcept = 3
	}
	if c.Prompts.Dir == "" {
		c.Prompts.Dir = "prompts"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Generation.APIKey == "" {
		return fmt.Errorf("generation.api_key is required")
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Pipeline.RelationshipThreshold > 1 {
		return fmt.Errorf("pipeline.relationship_threshold must be within (0, 1], got %g",
			c.Pipeline.RelationshipThreshold)
	}
	if c.Pipeline.MinSizeRatio > 1 {
		return fmt.Errorf("pipeline.min_size_ratio must be within (0, 1], got %g",
			c.Pipeline.MinSizeRatio)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
