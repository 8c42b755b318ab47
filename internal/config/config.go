package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Report strategies.
const (
	StrategyStatic    = "static"
	StrategyGenerated = "generated"
	StrategyRemote    = "remote"
	StrategyCollected = "collected"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the root configuration.
type Config struct {
	Report   ReportConfig   `yaml:"report"`
	LLM      LLMConfig      `yaml:"llm"`
	Sources  SourcesConfig  `yaml:"sources"`
	Filter   FilterConfig   `yaml:"filter"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// ReportConfig selects where daily reports come from.
type ReportConfig struct {
	Strategy    string `yaml:"strategy"`
	StaticDelay string `yaml:"static_delay"`
	PageURL     string `yaml:"page_url"` // link used in share text and digests
	TopItems    int    `yaml:"top_items"`
}

// ParseStaticDelay returns the static source delay, 600ms when unset or
// invalid.
func (r ReportConfig) ParseStaticDelay() time.Duration {
	d, err := time.ParseDuration(r.StaticDelay)
	if err != nil || d < 0 {
		return 600 * time.Millisecond
	}
	return d
}

// LLMConfig configures the remote report completer.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // "openai" or "anthropic"
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxRetries int    `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
}

// ParseRetryDelay returns the base backoff delay, 1s when unset or invalid.
func (l LLMConfig) ParseRetryDelay() time.Duration {
	d, err := time.ParseDuration(l.RetryDelay)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// SourcesConfig holds the live collectors used by the collected strategy.
type SourcesConfig struct {
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	RSS        RSSConfig        `yaml:"rss"`
}

// HackerNewsConfig for the Hacker News collector.
type HackerNewsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Limit   int    `yaml:"limit"`
	BaseURL string `yaml:"base_url"`
}

// RSSConfig for RSS feed collector.
type RSSConfig struct {
	Enabled bool       `yaml:"enabled"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FilterConfig configures content filtering.
type FilterConfig struct {
	ExtraKeywords   []string `yaml:"extra_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// DatabaseConfig configures engagement persistence.
type DatabaseConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// ScheduleConfig configures the daily digest job.
type ScheduleConfig struct {
	Cron       string `yaml:"cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			Strategy:    StrategyGenerated,
			StaticDelay: "600ms",
			TopItems:    5,
		},
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini-search-preview",
			RetryDelay: "1s",
		},
		Sources: SourcesConfig{
			HackerNews: HackerNewsConfig{Enabled: true, Limit: 100},
			RSS: RSSConfig{
				Enabled: true,
				Feeds: []FeedItem{
					{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
					{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
					{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
					{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
				},
			},
		},
		Database: DatabaseConfig{
			Backend:     BackendSQLite,
			Path:        "./aipulse.db",
			RedisPrefix: "aipulse:",
		},
		Schedule: ScheduleConfig{Cron: "0 7 * * *"},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads .env (if present), then the YAML file, then env var overrides.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown strategy and backend names.
func (c *Config) Validate() error {
	switch c.Report.Strategy {
	case StrategyStatic, StrategyGenerated, StrategyRemote, StrategyCollected:
	default:
		return fmt.Errorf("unknown report strategy %q", c.Report.Strategy)
	}
	switch c.Database.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown database backend %q", c.Database.Backend)
	}
	if c.Database.Backend == BackendRedis && c.Database.RedisURL == "" {
		return fmt.Errorf("database backend redis requires redis_url")
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AIPULSE_STRATEGY"); v != "" {
		cfg.Report.Strategy = v
	}
	if v := os.Getenv("AIPULSE_PAGE_URL"); v != "" {
		cfg.Report.PageURL = v
	}
	if v := os.Getenv("AIPULSE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Database.RedisURL = v
		cfg.Database.Backend = BackendRedis
	}
	if v := os.Getenv("AIPULSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, v)
	}
	if v := os.Getenv("AIPULSE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		cfg.LLM.Provider = "openai"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		cfg.LLM.Provider = "anthropic"
		if strings.HasPrefix(cfg.LLM.Model, "gpt-") {
			cfg.LLM.Model = ""
		}
	}
}
