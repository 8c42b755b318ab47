package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AIPULSE_STRATEGY", "AIPULSE_PAGE_URL", "AIPULSE_DB_PATH", "REDIS_URL",
		"AIPULSE_PORT", "FRONTEND_URL", "AIPULSE_LOG_LEVEL",
		"SLACK_WEBHOOK_URL", "DISCORD_WEBHOOK_URL", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assert.Equal(t, cfg.Report.Strategy, StrategyGenerated)
	assert.Equal(t, cfg.Report.ParseStaticDelay(), 600*time.Millisecond)
	assert.Equal(t, cfg.Database.Backend, BackendSQLite)
	assert.Equal(t, cfg.Schedule.Cron, "0 7 * * *")
	assert.Equal(t, cfg.Server.Port, 8080)
	assert.Equal(t, cfg.LLM.MaxRetries, 0)
	assert.Equal(t, cfg.LLM.ParseRetryDelay(), time.Second)
	assert.Equal(t, cfg.Log.SlogLevel(), slog.LevelInfo)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "aipulse.yaml")
	err := os.WriteFile(path, []byte(`
report:
  strategy: static
  static_delay: 0s
llm:
  max_retries: 3
  retry_delay: 250ms
database:
  backend: memory
server:
  port: 9090
log:
  level: debug
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assert.Equal(t, cfg.Report.Strategy, StrategyStatic)
	assert.Equal(t, cfg.Report.ParseStaticDelay(), time.Duration(0))
	assert.Equal(t, cfg.LLM.MaxRetries, 3)
	assert.Equal(t, cfg.LLM.ParseRetryDelay(), 250*time.Millisecond)
	assert.Equal(t, cfg.Database.Backend, BackendMemory)
	assert.Equal(t, cfg.Server.Port, 9090)
	assert.Equal(t, cfg.Log.SlogLevel(), slog.LevelDebug)
	// Untouched sections keep their defaults.
	assert.Equal(t, len(cfg.Sources.RSS.Feeds), 4)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIPULSE_STRATEGY", "remote")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/x")
	t.Setenv("AIPULSE_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assert.Equal(t, cfg.Report.Strategy, StrategyRemote)
	assert.Equal(t, cfg.LLM.Provider, "anthropic")
	assert.Equal(t, cfg.LLM.APIKey, "sk-ant")
	assert.Equal(t, cfg.LLM.Model, "")
	assert.Equal(t, cfg.Database.Backend, BackendRedis)
	assert.Equal(t, cfg.Alerts.Slack.Enabled, true)
	assert.Equal(t, cfg.Server.Port, 7070)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIPULSE_STRATEGY", "psychic")

	_, err := Load("")
	assert.NotEqual(t, err, nil)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotEqual(t, err, nil)
}
