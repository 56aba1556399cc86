package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every config key when read from the environment,
// e.g. chat.provider -> TUBEQA_CHAT_PROVIDER.
const EnvPrefix = "TUBEQA"

// Config holds all configuration for tubeqa
type Config struct {
	Captions  CaptionsConfig  `mapstructure:"captions"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Keys      KeysConfig      `mapstructure:"keys"`
}

// CaptionsConfig configures the YouTube captions client
type CaptionsConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	DefaultLanguage string        `mapstructure:"default_language"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryWait       time.Duration `mapstructure:"retry_wait"`     // first backoff, doubled per attempt
	RetryMaxWait    time.Duration `mapstructure:"retry_max_wait"` // backoff cap
	RateLimit       float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"` // gemini | openai
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	BatchSize int    `mapstructure:"batch_size"`
	CachePath string `mapstructure:"cache_path"` // empty disables the cache
}

// ChatConfig configures the chat-completion provider
type ChatConfig struct {
	Provider  string `mapstructure:"provider"` // groq | openai | gemini | anthropic
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// RetrievalConfig configures chunking and search
type RetrievalConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	TopK         int `mapstructure:"top_k"`
}

// KeysConfig holds provider API keys read from their conventional
// environment variables.
type KeysConfig struct {
	Groq      string `mapstructure:"groq"`
	OpenAI    string `mapstructure:"openai"`
	Anthropic string `mapstructure:"anthropic"`
	Gemini    string `mapstructure:"gemini"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindKeys(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("captions.base_url", "https://www.youtube.com")
	v.SetDefault("captions.default_language", "en")
	v.SetDefault("captions.timeout", "30s")
	v.SetDefault("captions.max_retries", 3)
	v.SetDefault("captions.retry_wait", "500ms")
	v.SetDefault("captions.retry_max_wait", "10s")
	v.SetDefault("captions.rate_limit", 2.0)

	v.SetDefault("embedding.provider", "gemini")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.batch_size", 50)
	v.SetDefault("embedding.cache_path", "")

	v.SetDefault("chat.provider", "groq")
	v.SetDefault("chat.model", "")
	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.base_url", "")
	v.SetDefault("chat.max_tokens", 1024)

	v.SetDefault("retrieval.chunk_size", 1000)
	v.SetDefault("retrieval.chunk_overlap", 200)
	v.SetDefault("retrieval.top_k", 4)
}

func bindKeys(v *viper.Viper) error {
	bindings := map[string][]string{
		"keys.groq":      {"GROQ_API_KEY"},
		"keys.openai":    {"OPENAI_API_KEY"},
		"keys.anthropic": {"ANTHROPIC_API_KEY"},
		"keys.gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}
	for key, envs := range bindings {
		input := append([]string{key}, envs...)
		if err := v.BindEnv(input...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks the numeric settings that would otherwise fail deep inside
// the pipeline.
func (c *Config) Validate() error {
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("retrieval.chunk_size must be positive, got %d", c.Retrieval.ChunkSize)
	}
	if c.Retrieval.ChunkOverlap < 0 {
		return fmt.Errorf("retrieval.chunk_overlap must not be negative, got %d", c.Retrieval.ChunkOverlap)
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf(
			"retrieval.chunk_overlap (%d) must be smaller than retrieval.chunk_size (%d)",
			c.Retrieval.ChunkOverlap,
			c.Retrieval.ChunkSize,
		)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Captions.DefaultLanguage == "" {
		return fmt.Errorf("captions.default_language must not be empty")
	}
	return nil
}

// APIKeyFor returns the key for a provider: an explicit key wins, otherwise
// the provider's conventional environment variable.
func (c *Config) APIKeyFor(provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(provider) {
	case "groq":
		return c.Keys.Groq
	case "openai":
		return c.Keys.OpenAI
	case "anthropic":
		return c.Keys.Anthropic
	case "gemini":
		return c.Keys.Gemini
	default:
		return ""
	}
}

// KeyEnvVar names the environment variable users should set for a provider.
func KeyEnvVar(provider string) string {
	switch strings.ToLower(provider) {
	case "groq":
		return "GROQ_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "API_KEY"
	}
}
