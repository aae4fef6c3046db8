package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Market      MarketConfig  `toml:"market"`
	Engine      EngineConfig  `toml:"engine"`
	Refresh     RefreshConfig `toml:"refresh"`
	EODHD       EODHDConfig   `toml:"eodhd"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	LLM         LLMConfig     `toml:"llm"`
	Pulse       PulseConfig   `toml:"pulse"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// MarketConfig defines the tracked universe and the static enrichment dataset.
type MarketConfig struct {
	DefaultExchange string `toml:"default_exchange"` // Exchange assumed for bare ticker codes
	ReferencePath   string `toml:"reference_path"`   // Optional override for the embedded reference dataset
}

// EngineConfig controls the parallel fetch coordinator.
type EngineConfig struct {
	Workers        int           `toml:"workers" validate:"gt=0"` // Concurrent fetch workers for full refresh
	FetchTimeout   time.Duration `toml:"fetch_timeout"`           // Hard per-ticker budget
	HistoryTimeout time.Duration `toml:"history_timeout"`         // Sub-budget for the previous-close history lookup
	QuoteChunkSize int           `toml:"quote_chunk_size"`        // Tickers per bulk quote request in the fast path
}

// RefreshConfig holds the cron schedules for the periodic jobs.
// Schedules use six-field cron expressions (seconds resolution).
type RefreshConfig struct {
	FullSchedule  string `toml:"full_schedule"`  // Full metadata refresh (default: daily)
	PriceSchedule string `toml:"price_schedule"` // Price/volume-only refresh (default: every 45s)
	NewsSchedule  string `toml:"news_schedule"`  // Headline refresh (default: every 30m)
	PulseSchedule string `toml:"pulse_schedule"` // Pulse regeneration (default: every 5m)
}

// EODHDConfig contains market data provider configuration
type EODHDConfig struct {
	APIKey    string `toml:"api_key"`    // EODHD API token
	BaseURL   string `toml:"base_url"`   // API base URL
	RateLimit string `toml:"rate_limit"` // Minimum interval between requests, duration string
	Timeout   string `toml:"timeout"`    // HTTP client timeout, duration string
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for summary generation
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for summary generation
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
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
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// PulseConfig controls the market pulse summary generator.
type PulseConfig struct {
	MoversLimit    int `toml:"movers_limit"`    // Top movers included in the prompt
	HeadlinesLimit int `toml:"headlines_limit"` // Recent headlines included in the prompt
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
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
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Market: MarketConfig{
			DefaultExchange: "ASX",
		},
		Engine: EngineConfig{
			Workers:        15,
			FetchTimeout:   5 * time.Second,
			HistoryTimeout: 2 * time.Second,
			QuoteChunkSize: 20,
		},
		Refresh: RefreshConfig{
			FullSchedule:  "0 0 6 * * *",  // Daily at 06:00
			PriceSchedule: "*/45 * * * * *",
			NewsSchedule:  "0 */30 * * * *",
			PulseSchedule: "0 */5 * * * *",
		},
		EODHD: EODHDConfig{
			APIKey:    "", // Resolved via env/KV store at startup
			BaseURL:   "https://eodhd.com/api",
			RateLimit: "100ms",
			Timeout:   "30s",
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Pulse: PulseConfig{
			MoversLimit:    30,
			HeadlinesLimit: 6,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override earlier files.
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

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETPULSE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("MARKETPULSE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MARKETPULSE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("MARKETPULSE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("MARKETPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("MARKETPULSE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("MARKETPULSE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Market configuration
	if exchange := os.Getenv("MARKETPULSE_DEFAULT_EXCHANGE"); exchange != "" {
		config.Market.DefaultExchange = exchange
	}
	if refPath := os.Getenv("MARKETPULSE_REFERENCE_PATH"); refPath != "" {
		config.Market.ReferencePath = refPath
	}

	// Engine configuration
	if workers := os.Getenv("MARKETPULSE_ENGINE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Engine.Workers = w
		}
	}
	if fetchTimeout := os.Getenv("MARKETPULSE_ENGINE_FETCH_TIMEOUT"); fetchTimeout != "" {
		if d, err := time.ParseDuration(fetchTimeout); err == nil {
			config.Engine.FetchTimeout = d
		}
	}
	if historyTimeout := os.Getenv("MARKETPULSE_ENGINE_HISTORY_TIMEOUT"); historyTimeout != "" {
		if d, err := time.ParseDuration(historyTimeout); err == nil {
			config.Engine.HistoryTimeout = d
		}
	}
	if chunkSize := os.Getenv("MARKETPULSE_ENGINE_QUOTE_CHUNK_SIZE"); chunkSize != "" {
		if c, err := strconv.Atoi(chunkSize); err == nil && c > 0 {
			config.Engine.QuoteChunkSize = c
		}
	}

	// Refresh schedules
	if schedule := os.Getenv("MARKETPULSE_REFRESH_FULL_SCHEDULE"); schedule != "" {
		config.Refresh.FullSchedule = schedule
	}
	if schedule := os.Getenv("MARKETPULSE_REFRESH_PRICE_SCHEDULE"); schedule != "" {
		config.Refresh.PriceSchedule = schedule
	}
	if schedule := os.Getenv("MARKETPULSE_REFRESH_NEWS_SCHEDULE"); schedule != "" {
		config.Refresh.NewsSchedule = schedule
	}
	if schedule := os.Getenv("MARKETPULSE_REFRESH_PULSE_SCHEDULE"); schedule != "" {
		config.Refresh.PulseSchedule = schedule
	}

	// EODHD configuration
	if apiKey := os.Getenv("MARKETPULSE_EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	}
	if baseURL := os.Getenv("MARKETPULSE_EODHD_BASE_URL"); baseURL != "" {
		config.EODHD.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("MARKETPULSE_EODHD_RATE_LIMIT"); rateLimit != "" {
		config.EODHD.RateLimit = rateLimit
	}
	if timeout := os.Getenv("MARKETPULSE_EODHD_TIMEOUT"); timeout != "" {
		config.EODHD.Timeout = timeout
	}

	// Gemini configuration
	if apiKey := os.Getenv("MARKETPULSE_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("MARKETPULSE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if maxTokens := os.Getenv("MARKETPULSE_GEMINI_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Gemini.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("MARKETPULSE_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if temperature := os.Getenv("MARKETPULSE_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("MARKETPULSE_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // MARKETPULSE_ prefix takes priority
	}
	if model := os.Getenv("MARKETPULSE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("MARKETPULSE_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("MARKETPULSE_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if temperature := os.Getenv("MARKETPULSE_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("MARKETPULSE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Pulse configuration
	if moversLimit := os.Getenv("MARKETPULSE_PULSE_MOVERS_LIMIT"); moversLimit != "" {
		if ml, err := strconv.Atoi(moversLimit); err == nil && ml > 0 {
			config.Pulse.MoversLimit = ml
		}
	}
	if headlinesLimit := os.Getenv("MARKETPULSE_PULSE_HEADLINES_LIMIT"); headlinesLimit != "" {
		if hl, err := strconv.Atoi(headlinesLimit); err == nil && hl > 0 {
			config.Pulse.HeadlinesLimit = hl
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables → KV store → config fallback → error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"eodhd_api_key":     {"MARKETPULSE_EODHD_API_KEY", "EODHD_API_KEY"},
		"gemini_api_key":    {"MARKETPULSE_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"MARKETPULSE_CLAUDE_API_KEY"},
		"claude_api_key":    {"MARKETPULSE_CLAUDE_API_KEY"},
	}

	// For Claude, also check the standard ANTHROPIC_API_KEY env var
	if name == "anthropic_api_key" || name == "claude_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
