package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AuthConfig names the env var carrying the shared upload secret.
type AuthConfig struct {
	UploadSecretEnv string `yaml:"upload_secret_env"`
}

// ChunkerConfig configures how extracted text is split into chunks.
type ChunkerConfig struct {
	WordsPerChunk int `yaml:"words_per_chunk"`
}

// GeminiEmbedderConfig holds configuration for the Gemini embeddings client.
type GeminiEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for an OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type         string                `yaml:"type"`
	Gemini       *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
	OpenAI       *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	RateLimitRPS float64               `yaml:"rate_limit_rps"`
}

// GeneratorConfig configures the text generation model.
type GeneratorConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IngestConfig bounds the ingestion pipeline.
type IngestConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// RetrieveConfig configures similarity retrieval.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// StoreConfig locates the SQLite database file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// StocksConfig configures the market data providers.
type StocksConfig struct {
	FinnhubAPIKeyEnv string `yaml:"finnhub_api_key_env"`
	TimeoutSecs      int    `yaml:"timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Store     StoreConfig     `yaml:"store"`
	Stocks    StocksConfig    `yaml:"stocks"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/bookrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/bookrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bookrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:  ServerConfig{Addr: ":8080"},
		Auth:    AuthConfig{UploadSecretEnv: "UPLOAD_SECRET"},
		Chunker: ChunkerConfig{WordsPerChunk: 300},
		Embedder: EmbedderConfig{
			Type: "gemini",
			Gemini: &GeminiEmbedderConfig{
				APIKeyEnv: "GEMINI_API_KEY",
				Model:     "embedding-001",
			},
		},
		Generator: GeneratorConfig{
			APIKeyEnv: "GEMINI_API_KEY",
			Model:     "gemini-2.0-flash",
		},
		Ingest:   IngestConfig{Concurrency: 1},
		Retrieve: RetrieveConfig{TopK: 5},
		Store:    StoreConfig{Path: filepath.Join("data", "bookrag.db")},
		Stocks:   StocksConfig{FinnhubAPIKeyEnv: "FINNHUB_API_KEY"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Auth.UploadSecretEnv == "" {
		cfg.Auth.UploadSecretEnv = "UPLOAD_SECRET"
	}
	if cfg.Chunker.WordsPerChunk == 0 {
		cfg.Chunker.WordsPerChunk = 300
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	if cfg.Embedder.Type == "gemini" {
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiEmbedderConfig{}
		}
		g := cfg.Embedder.Gemini
		if g.BaseURL == "" {
			g.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
		}
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "GEMINI_API_KEY"
		}
		if g.Model == "" {
			g.Model = "embedding-001"
		}
		if g.TimeoutSecs == 0 {
			g.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemini-2.0-flash"
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 60
	}
	if cfg.Ingest.Concurrency <= 0 {
		cfg.Ingest.Concurrency = 1
	}
	if cfg.Retrieve.TopK <= 0 {
		cfg.Retrieve.TopK = 5
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join("data", "bookrag.db")
	}
	if cfg.Stocks.FinnhubAPIKeyEnv == "" {
		cfg.Stocks.FinnhubAPIKeyEnv = "FINNHUB_API_KEY"
	}
	if cfg.Stocks.TimeoutSecs == 0 {
		cfg.Stocks.TimeoutSecs = 20
	}
}
