package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Browser   BrowserConfig   `toml:"browser"`
	Engine    EngineConfig    `toml:"engine"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Cache     CacheConfig     `toml:"cache"`
	Log       LogConfig       `toml:"log"`
	LogBuffer LogBufferConfig `toml:"log_buffer"`
	Extractor ExtractorConfig `toml:"extractor"`
	YouTube   YouTubeConfig   `toml:"youtube"`
	LLM       LLMConfig       `toml:"llm"`
	Webhook   WebhookConfig   `toml:"webhook"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
	// Mode is the gin mode: "debug", "release" or "test".
	Mode string `toml:"mode" validate:"oneof=debug release test"`
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `toml:"headless"` // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int `toml:"max_pages" validate:"min=1"` // default: 10

	// Proxy is the proxy URL for all browser and HTTP traffic.
	Proxy string `toml:"proxy"`

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `toml:"no_sandbox"` // default: false

	// Bin overrides the Chromium binary path.
	Bin string `toml:"bin"`

	// Stealth installs the go-rod/stealth evasions in every tab.
	Stealth bool `toml:"stealth"` // default: true

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration `toml:"navigation_timeout"` // default: 15s

	// BlockedResourceTypes lists resource types to block in rendered tabs.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string `toml:"blocked_resource_types"`

	// BlockAds drops requests to known ad and tracking hosts.
	BlockAds bool `toml:"block_ads"` // default: true
}

// EngineConfig controls document loading.
type EngineConfig struct {
	// HTTPFirst tries the plain HTTP engine before the browser.
	HTTPFirst bool `toml:"http_first"` // default: true

	// HTTPTimeout is the deadline for the plain HTTP engine.
	HTTPTimeout time.Duration `toml:"http_timeout"` // default: 10s

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration `toml:"default_timeout"` // default: 30s

	// MaxTimeout is the maximum timeout a client may ask for.
	MaxTimeout time.Duration `toml:"max_timeout"` // default: 120s

	// DomainMemoryTTL is how long the engine that worked for a domain is
	// remembered.
	DomainMemoryTTL time.Duration `toml:"domain_memory_ttl"` // default: 1h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool     `toml:"enabled"` // default: true
	APIKeys []string `toml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gt=0"` // default: 5
	Burst             int     `toml:"burst" validate:"min=1"`              // default: 10
}

// CacheConfig controls the extraction cache.
type CacheConfig struct {
	MaxEntries int           `toml:"max_entries" validate:"min=0"` // default: 1000
	TTL        time.Duration `toml:"ttl"`                          // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"` // default: "info"
	Format string `toml:"format" validate:"oneof=json text"`            // default: "json"
}

// LogBufferConfig controls the bounded, persisted log buffer.
type LogBufferConfig struct {
	Capacity int `toml:"capacity" validate:"min=1"` // default: 1000

	// StorePath is the badger directory. Empty keeps logs in memory only.
	StorePath string `toml:"store_path"`
}

// ExtractorConfig controls live page extraction.
type ExtractorConfig struct {
	// Debounce coalesces mutation notifications. Zero re-extracts on every
	// mutation.
	Debounce time.Duration `toml:"debounce"`
}

// YouTubeConfig controls the watch page handler.
type YouTubeConfig struct {
	InitialDelay time.Duration `toml:"initial_delay"` // default: 1.5s
	ProcessDelay time.Duration `toml:"process_delay"` // default: 1s
}

// LLMConfig holds model provider credentials and sampling settings.
type LLMConfig struct {
	DefaultModel string  `toml:"default_model" validate:"required"` // default: "gpt4oMini"
	Temperature  float64 `toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int64   `toml:"max_tokens" validate:"min=1"` // default: 4096

	OpenAIKey    string `toml:"openai_key"`
	AnthropicKey string `toml:"anthropic_key"`
	GeminiKey    string `toml:"gemini_key"`
	GroqKey      string `toml:"groq_key"`
	DeepSeekKey  string `toml:"deepseek_key"`

	// BaseURLs overrides provider endpoints, keyed by provider name.
	BaseURLs map[string]string `toml:"base_urls"`
}

// APIKey returns the configured key for a provider name.
func (c LLMConfig) APIKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	case "google":
		return c.GeminiKey
	case "groq":
		return c.GroqKey
	case "deepseek":
		return c.DeepSeekKey
	}
	return ""
}

// WebhookConfig controls delivery of snapshots and video summaries.
type WebhookConfig struct {
	URL    string `toml:"url" validate:"omitempty,url"`
	Secret string `toml:"secret"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080, Mode: "release"},
		Browser: BrowserConfig{
			Headless:             true,
			MaxPages:             10,
			Stealth:              true,
			NavigationTimeout:    15 * time.Second,
			BlockedResourceTypes: []string{"Image", "Stylesheet", "Font", "Media"},
			BlockAds:             true,
		},
		Engine: EngineConfig{
			HTTPFirst:       true,
			HTTPTimeout:     10 * time.Second,
			DefaultTimeout:  30 * time.Second,
			MaxTimeout:      120 * time.Second,
			DomainMemoryTTL: time.Hour,
		},
		Auth:      AuthConfig{Enabled: true},
		RateLimit: RateLimitConfig{RequestsPerSecond: 5, Burst: 10},
		Cache:     CacheConfig{MaxEntries: 1000, TTL: time.Hour},
		Log:       LogConfig{Level: "info", Format: "json"},
		LogBuffer: LogBufferConfig{Capacity: 1000},
		YouTube: YouTubeConfig{
			InitialDelay: 1500 * time.Millisecond,
			ProcessDelay: time.Second,
		},
		LLM: LLMConfig{DefaultModel: "gpt4oMini", MaxTokens: 4096},
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := Default()
	applyEnv(cfg)
	return cfg
}

// LoadFile decodes a TOML file over the defaults, then applies environment
// overrides. The result is validated.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.Server.Host = envOr("PAGECAST_HOST", c.Server.Host)
	c.Server.Port = envIntOr("PAGECAST_PORT", c.Server.Port)
	c.Server.Mode = envOr("PAGECAST_MODE", c.Server.Mode)

	c.Browser.Headless = envBoolOr("PAGECAST_HEADLESS", c.Browser.Headless)
	c.Browser.MaxPages = envIntOr("PAGECAST_MAX_PAGES", c.Browser.MaxPages)
	c.Browser.Proxy = envOr("PAGECAST_PROXY", c.Browser.Proxy)
	c.Browser.NoSandbox = envBoolOr("PAGECAST_NO_SANDBOX", c.Browser.NoSandbox)
	c.Browser.Bin = envOr("PAGECAST_BROWSER_BIN", c.Browser.Bin)
	c.Browser.Stealth = envBoolOr("PAGECAST_STEALTH", c.Browser.Stealth)
	c.Browser.NavigationTimeout = envDurationOr("PAGECAST_NAV_TIMEOUT", c.Browser.NavigationTimeout)
	c.Browser.BlockedResourceTypes = envSliceOr("PAGECAST_BLOCKED_RESOURCES", c.Browser.BlockedResourceTypes)
	c.Browser.BlockAds = envBoolOr("PAGECAST_BLOCK_ADS", c.Browser.BlockAds)

	c.Engine.HTTPFirst = envBoolOr("PAGECAST_HTTP_FIRST", c.Engine.HTTPFirst)
	c.Engine.HTTPTimeout = envDurationOr("PAGECAST_HTTP_TIMEOUT", c.Engine.HTTPTimeout)
	c.Engine.DefaultTimeout = envDurationOr("PAGECAST_DEFAULT_TIMEOUT", c.Engine.DefaultTimeout)
	c.Engine.MaxTimeout = envDurationOr("PAGECAST_MAX_TIMEOUT", c.Engine.MaxTimeout)
	c.Engine.DomainMemoryTTL = envDurationOr("PAGECAST_DOMAIN_MEMORY_TTL", c.Engine.DomainMemoryTTL)

	c.Auth.Enabled = envBoolOr("PAGECAST_AUTH_ENABLED", c.Auth.Enabled)
	c.Auth.APIKeys = envSliceOr("PAGECAST_API_KEYS", c.Auth.APIKeys)

	c.RateLimit.RequestsPerSecond = envFloatOr("PAGECAST_RATE_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = envIntOr("PAGECAST_RATE_BURST", c.RateLimit.Burst)

	c.Cache.MaxEntries = envIntOr("PAGECAST_CACHE_MAX_ENTRIES", c.Cache.MaxEntries)
	c.Cache.TTL = envDurationOr("PAGECAST_CACHE_TTL", c.Cache.TTL)

	c.Log.Level = envOr("PAGECAST_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("PAGECAST_LOG_FORMAT", c.Log.Format)

	c.LogBuffer.Capacity = envIntOr("PAGECAST_LOG_CAPACITY", c.LogBuffer.Capacity)
	c.LogBuffer.StorePath = envOr("PAGECAST_LOG_STORE", c.LogBuffer.StorePath)

	c.Extractor.Debounce = envDurationOr("PAGECAST_EXTRACT_DEBOUNCE", c.Extractor.Debounce)

	c.YouTube.InitialDelay = envDurationOr("PAGECAST_YT_INITIAL_DELAY", c.YouTube.InitialDelay)
	c.YouTube.ProcessDelay = envDurationOr("PAGECAST_YT_PROCESS_DELAY", c.YouTube.ProcessDelay)

	c.LLM.DefaultModel = envOr("PAGECAST_MODEL", c.LLM.DefaultModel)
	c.LLM.Temperature = envFloatOr("PAGECAST_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = int64(envIntOr("PAGECAST_MAX_TOKENS", int(c.LLM.MaxTokens)))
	c.LLM.OpenAIKey = envOr("OPENAI_API_KEY", c.LLM.OpenAIKey)
	c.LLM.AnthropicKey = envOr("ANTHROPIC_API_KEY", c.LLM.AnthropicKey)
	c.LLM.GeminiKey = envOr("GEMINI_API_KEY", c.LLM.GeminiKey)
	c.LLM.GroqKey = envOr("GROQ_API_KEY", c.LLM.GroqKey)
	c.LLM.DeepSeekKey = envOr("DEEPSEEK_API_KEY", c.LLM.DeepSeekKey)

	c.Webhook.URL = envOr("PAGECAST_WEBHOOK_URL", c.Webhook.URL)
	c.Webhook.Secret = envOr("PAGECAST_WEBHOOK_SECRET", c.Webhook.Secret)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
