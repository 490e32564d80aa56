package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Finnhub     FinnhubConfig    `toml:"finnhub"`
	Yahoo       YahooConfig      `toml:"yahoo"`
	Reddit      RedditConfig     `toml:"reddit"`
	Bluesky     BlueskyConfig    `toml:"bluesky"`
	Classifier  ClassifierConfig `toml:"classifier"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Quotes      QuotesConfig     `toml:"quotes"`
	Trending    TrendingConfig   `toml:"trending"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                       // "stdout", "file"
}

// FinnhubConfig contains Finnhub API configuration (quotes, profiles, news)
type FinnhubConfig struct {
	APIKey    string        `toml:"api_key"`    // Finnhub API key
	BaseURL   string        `toml:"base_url"`   // Override for testing
	Timeout   time.Duration `toml:"timeout"`    // HTTP request timeout
	RateLimit int           `toml:"rate_limit"` // Requests per second
}

// YahooConfig contains Yahoo Finance chart API configuration (OHLCV history)
type YahooConfig struct {
	BaseURL  string        `toml:"base_url"`
	Timeout  time.Duration `toml:"timeout"`
	Period   string        `toml:"period"`   // History range, e.g. "1mo"
	Interval string        `toml:"interval"` // Candle interval, e.g. "1d"
}

// RedditConfig contains Reddit API configuration (social source)
type RedditConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	UserAgent    string   `toml:"user_agent"`
	Subreddits   []string `toml:"subreddits"` // Searched in order until the post target is met
}

// BlueskyConfig contains Bluesky AT Protocol configuration (social source)
type BlueskyConfig struct {
	Identifier string `toml:"identifier"` // Handle or email
	Password   string `toml:"password"`   // App password
	BaseURL    string `toml:"base_url"`   // PDS host
}

// ClassifierConfig contains the sentiment sidecar configuration
type ClassifierConfig struct {
	URL           string        `toml:"url"`            // Base URL of the finbert sidecar
	Timeout       time.Duration `toml:"timeout"`        // Per-classification timeout
	MaxConcurrent int           `toml:"max_concurrent"` // Bound on in-flight classifications
}

// GeminiConfig contains Google Gemini API configuration for query expansion
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration for query expansion
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider   `toml:"default_provider"` // "gemini" or "claude"
	Timeout         time.Duration `toml:"timeout"`          // Query expansion timeout
}

// PipelineConfig tunes the per-ticker analysis pipeline
type PipelineConfig struct {
	FreshnessWindow  time.Duration `toml:"freshness_window"`   // Cached results younger than this are served as-is
	StageTimeout     time.Duration `toml:"stage_timeout"`      // Timeout applied to each external call
	NewsWindowDays   int           `toml:"news_window_days"`   // News lookback window
	MaxArticles      int           `toml:"max_articles"`       // Cap on scored articles per run
	SocialPostTarget int           `toml:"social_post_target"` // Reddit stops searching once this many posts are found
	SocialMaxResults int           `toml:"social_max_results"` // Per-query cap for social searches
	RetentionDays    int           `toml:"retention_days"`     // Analysis rows older than this are pruned on insert
}

// QuotesConfig tunes the popular-quotes broadcaster
type QuotesConfig struct {
	Symbols        []string      `toml:"symbols" validate:"min=1"` // Fixed symbol set to refresh each tick
	Interval       time.Duration `toml:"interval"`                 // Broadcast tick interval
	CachedLimit    int           `toml:"cached_limit"`             // Rows read back when the market is closed
	MaxSubscribers int           `toml:"max_subscribers"`          // Registry capacity bound
}

// TrendingConfig tunes the daily trending snapshot
type TrendingConfig struct {
	AlphaVantageKey string        `toml:"alpha_vantage_key"`
	BaseURL         string        `toml:"base_url"`
	TTL             time.Duration `toml:"ttl"` // Snapshot refresh interval
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in hypr.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Finnhub: FinnhubConfig{
			BaseURL:   "https://finnhub.io/api/v1",
			Timeout:   30 * time.Second,
			RateLimit: 10,
		},
		Yahoo: YahooConfig{
			BaseURL:  "https://query1.finance.yahoo.com",
			Timeout:  30 * time.Second,
			Period:   "1mo",
			Interval: "1d",
		},
		Reddit: RedditConfig{
			UserAgent: "hypr/0.1 (market hype aggregator)",
			Subreddits: []string{
				"stocks", "investing", "wallstreetbets", "StockMarket",
				"finance", "economy", "business",
			},
		},
		Bluesky: BlueskyConfig{
			BaseURL: "https://bsky.social",
		},
		Classifier: ClassifierConfig{
			URL:           "http://localhost:8001",
			Timeout:       10 * time.Second,
			MaxConcurrent: 4,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   800,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Timeout:         30 * time.Second,
		},
		Pipeline: PipelineConfig{
			FreshnessWindow:  1 * time.Hour,
			StageTimeout:     30 * time.Second,
			NewsWindowDays:   2,
			MaxArticles:      20,
			SocialPostTarget: 20,
			SocialMaxResults: 30,
			RetentionDays:    7,
		},
		Quotes: QuotesConfig{
			Symbols:        []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META"},
			Interval:       15 * time.Second,
			CachedLimit:    10,
			MaxSubscribers: 256,
		},
		Trending: TrendingConfig{
			BaseURL: "https://www.alphavantage.co",
			TTL:     24 * time.Hour,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("HYPR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("HYPR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("HYPR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if path := os.Getenv("HYPR_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if level := os.Getenv("HYPR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Collaborator credentials are usually provided via environment
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		config.Finnhub.APIKey = key
	}
	if key := os.Getenv("ALPHA_VANTAGE_API_KEY"); key != "" {
		config.Trending.AlphaVantageKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if id := os.Getenv("REDDIT_CLIENT_ID"); id != "" {
		config.Reddit.ClientID = id
	}
	if secret := os.Getenv("REDDIT_CLIENT_SECRET"); secret != "" {
		config.Reddit.ClientSecret = secret
	}
	if ident := os.Getenv("BSKY_IDENTIFIER"); ident != "" {
		config.Bluesky.Identifier = ident
	}
	if pw := os.Getenv("BSKY_PASSWORD"); pw != "" {
		config.Bluesky.Password = pw
	}
	if url := os.Getenv("HYPR_CLASSIFIER_URL"); url != "" {
		config.Classifier.URL = url
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
