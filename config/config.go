package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the recommender.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Cache     CacheConfig     `yaml:"cache"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Rank      RankConfig      `yaml:"rank"`
	Explain   ExplainConfig   `yaml:"explain"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // "release", "debug", "test"
}

// ArtifactsConfig locates the three startup artifacts.
// Each location may be an http(s) URL, a file:// URL or a plain path.
type ArtifactsConfig struct {
	ProductsURL   string        `yaml:"products_url"`
	ClassifierURL string        `yaml:"classifier_url"`
	IndexURL      string        `yaml:"index_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// CacheConfig holds the on-disk artifact cache configuration.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty means <dir>/.beautyrec/artifacts.db
}

// RetrieveConfig holds similarity retrieval configuration.
type RetrieveConfig struct {
	K int `yaml:"k"` // neighbors including the query itself
}

// RankConfig holds hybrid ranking configuration.
type RankConfig struct {
	Order        string `yaml:"order"`         // "similarity" (retrieval order) or "hybrid"
	DisplayLimit int    `yaml:"display_limit"` // rows shown in the results table
}

// ExplainConfig holds explanation service configuration.
type ExplainConfig struct {
	Provider  string `yaml:"provider"`    // "googleai", "openai"
	Model     string `yaml:"model"`       // e.g., "gemini-2.5-flash"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`    // OpenAI-compatible endpoint
}

// SessionConfig bounds the per-session state kept by the server.
type SessionConfig struct {
	MaxSessions int           `yaml:"max_sessions"`
	TTL         time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json", "console"
}

const (
	RankOrderSimilarity = "similarity"
	RankOrderHybrid     = "hybrid"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Artifacts: ArtifactsConfig{
			ProductsURL:   "model/products.json",
			ClassifierURL: "model/svm_model.json",
			IndexURL:      "model/faiss_index.bin",
			Timeout:       2 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Retrieve: RetrieveConfig{
			K: 6,
		},
		Rank: RankConfig{
			Order:        RankOrderSimilarity,
			DisplayLimit: 5,
		},
		Explain: ExplainConfig{
			Provider:  "googleai",
			Model:     "gemini-2.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Session: SessionConfig{
			MaxSessions: 1000,
			TTL:         30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects configurations the recommender cannot run with.
func (c *Config) Validate() error {
	if c.Retrieve.K < 1 {
		return fmt.Errorf("retrieve.k must be at least 1, got %d", c.Retrieve.K)
	}
	switch c.Rank.Order {
	case RankOrderSimilarity, RankOrderHybrid:
	default:
		return fmt.Errorf("rank.order must be %q or %q, got %q", RankOrderSimilarity, RankOrderHybrid, c.Rank.Order)
	}
	if c.Artifacts.ProductsURL == "" || c.Artifacts.ClassifierURL == "" || c.Artifacts.IndexURL == "" {
		return fmt.Errorf("artifacts: products_url, classifier_url and index_url are required")
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for beautyrec.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "beautyrec.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".beautyrec", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheDBPath returns the artifact cache database path.
func (c *Config) CacheDBPath(dir string) string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(dir, ".beautyrec", "artifacts.db")
}

// EnsureDataDir ensures the directory holding path exists.
func EnsureDataDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
