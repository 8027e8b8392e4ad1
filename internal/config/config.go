// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // concurrent handlers for light commands
	AdminIDs []int64 `yaml:"admin_ids"`

	RateLimit       int           `yaml:"rate_limit"`        // commands per window per user
	RateLimitWindow time.Duration `yaml:"rate_limit_window"` // default 1m
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type WebConfig struct {
	Port        int           `yaml:"port"`
	AdminSecret string        `yaml:"admin_secret"` // HS256 secret for admin endpoints
	SessionTTL  time.Duration `yaml:"session_ttl"`
}

type PathsConfig struct {
	WorkspaceBase   string        `yaml:"workspace_base"`
	OutputBase      string        `yaml:"output_base"`
	LogBase         string        `yaml:"log_base"`
	ArchiveBase     string        `yaml:"archive_base"`
	Retention       time.Duration `yaml:"retention"`        // how long job dirs survive
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // janitor tick
}

type AIConfig struct {
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	GatewayKey      string        `yaml:"gateway_key"`      // OpenAI-compatible gateway
	GatewayBaseURL  string        `yaml:"gateway_base_url"` // e.g. an OpenRouter-style endpoint
	DefaultModel    string        `yaml:"default_model"`
	DefaultProvider string        `yaml:"default_provider"` // openai | gemini | gateway
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	// ModelProviders overrides prefix routing for individual models.
	ModelProviders map[string]string `yaml:"model_providers"`

	CacheModels        []string `yaml:"cache_models"`         // prompt-cache capability allowlist
	DisablePromptCache bool     `yaml:"disable_prompt_cache"` // kill switch
}

type CodegenConfig struct {
	Pipeline          string `yaml:"pipeline"`           // direct | two_stage
	CorrectiveRetries int    `yaml:"corrective_retries"` // unset -> 1; negative -> strict single-shot
	MaxFiles          int    `yaml:"max_files"`
	MaxTotalContent   int    `yaml:"max_total_content"` // characters
}

type PricingEntry struct {
	Name           string  `yaml:"name"`
	InputPer1M     float64 `yaml:"input_per_1m"`
	OutputPer1M    float64 `yaml:"output_per_1m"`
	CacheReadPer1M float64 `yaml:"cache_read_per_1m"`
}

type PricingConfig struct {
	Models []PricingEntry `yaml:"models"` // merged over the built-in table
}

type StateConfig struct {
	Backend string `yaml:"backend"` // memory | redis
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Log     LogConfig     `yaml:"log"`
	Web     WebConfig     `yaml:"web"`
	Paths   PathsConfig   `yaml:"paths"`
	AI      AIConfig      `yaml:"ai"`
	Codegen CodegenConfig `yaml:"codegen"`
	Pricing PricingConfig `yaml:"pricing"`
	State   StateConfig   `yaml:"state"`
	Redis   RedisConfig   `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

// EnvCacheModels extends the prompt-cache allowlist without a config
// rollout (comma-separated model names).
const EnvCacheModels = "FORGE_CACHE_MODELS"

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Environment fallbacks and overrides.
	if cfg.AI.OpenAIKey == "" {
		cfg.AI.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.AI.GeminiKey == "" {
		cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if extra := os.Getenv(EnvCacheModels); extra != "" {
		for _, m := range strings.Split(extra, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.AI.CacheModels = append(cfg.AI.CacheModels, m)
			}
		}
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if strings.EqualFold(cfg.State.Backend, "redis") && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required when state.backend is redis")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills every zero field with its default. Exposed so tests
// can build configs without a YAML file.
func (cfg *Config) ApplyDefaults() {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 4
	}
	if cfg.Bot.RateLimit <= 0 {
		cfg.Bot.RateLimit = 5
	}
	if cfg.Bot.RateLimitWindow <= 0 {
		cfg.Bot.RateLimitWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8085
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 30 * time.Minute
	}
	if cfg.Paths.WorkspaceBase == "" {
		cfg.Paths.WorkspaceBase = "data/workspaces"
	}
	if cfg.Paths.OutputBase == "" {
		cfg.Paths.OutputBase = "data/output"
	}
	if cfg.Paths.LogBase == "" {
		cfg.Paths.LogBase = "data/logs"
	}
	if cfg.Paths.ArchiveBase == "" {
		cfg.Paths.ArchiveBase = "data/archives"
	}
	if cfg.Paths.Retention <= 0 {
		cfg.Paths.Retention = 72 * time.Hour
	}
	if cfg.Paths.CleanupInterval <= 0 {
		cfg.Paths.CleanupInterval = time.Hour
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "openai"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 16384
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 4
	}
	if cfg.AI.RequestTimeout <= 0 {
		cfg.AI.RequestTimeout = 2 * time.Minute
	}
	if cfg.Codegen.Pipeline == "" {
		cfg.Codegen.Pipeline = "direct"
	}
	if cfg.Codegen.CorrectiveRetries == 0 {
		cfg.Codegen.CorrectiveRetries = 1
	} else if cfg.Codegen.CorrectiveRetries < 0 {
		cfg.Codegen.CorrectiveRetries = 0
	}
	if cfg.Codegen.MaxFiles <= 0 {
		cfg.Codegen.MaxFiles = 60
	}
	if cfg.Codegen.MaxTotalContent <= 0 {
		cfg.Codegen.MaxTotalContent = 1_800_000
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = "memory"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
}
