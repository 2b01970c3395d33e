package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":4200", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.SchedulerInterval())
	assert.Equal(t, 10*time.Second, cfg.RunnerInterval())
	assert.Equal(t, 50, cfg.RunnerBatchSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BRAIND_LISTEN_ADDR", ":9999")
	t.Setenv("BRAIND_LOG_LEVEL", "debug")
	t.Setenv("WORKFLOW_SCHEDULER_INTERVAL_MS", "5000")
	t.Setenv("ACTION_RUNNER_INTERVAL_MS", "1000")
	t.Setenv("ACTION_RUNNER_BATCH_SIZE", "10")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.SchedulerInterval())
	assert.Equal(t, time.Second, cfg.RunnerInterval())
	assert.Equal(t, 10, cfg.RunnerBatchSize)
}

func TestLoad_IgnoresBadInts(t *testing.T) {
	t.Setenv("ACTION_RUNNER_BATCH_SIZE", "lots")
	t.Setenv("WORKFLOW_SCHEDULER_INTERVAL_MS", "-5")

	cfg := Load()

	assert.Equal(t, 50, cfg.RunnerBatchSize)
	assert.Equal(t, 60_000, cfg.SchedulerIntervalMS)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Config{LogLevel: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, Config{LogLevel: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "info"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: ""}.SlogLevel())
}
