package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all braind server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	ListenAddr string `json:"listen_addr"`
	DBPath     string `json:"db_path"`
	LogLevel   string `json:"log_level"`

	// Scheduler loop intervals in milliseconds.
	SchedulerIntervalMS int `json:"scheduler_interval_ms"`
	RunnerIntervalMS    int `json:"runner_interval_ms"`
	RunnerBatchSize     int `json:"runner_batch_size"`
}

// Default creates a Config with default values.
func Default() Config {
	return Config{
		ListenAddr:          ":4200",
		DBPath:              filepath.Join(braindDir(), "braind.db"),
		LogLevel:            "info",
		SchedulerIntervalMS: 60_000,
		RunnerIntervalMS:    10_000,
		RunnerBatchSize:     50,
	}
}

func braindDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".braind"
	}
	return filepath.Join(home, ".braind")
}

func settingsPath() string {
	return filepath.Join(braindDir(), "settings.json")
}

// Load builds the effective configuration from defaults, settings.json and
// environment variables, in increasing priority.
func Load() Config {
	cfg := Default()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("BRAIND_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BRAIND_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BRAIND_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if n, ok := envInt("WORKFLOW_SCHEDULER_INTERVAL_MS"); ok {
		cfg.SchedulerIntervalMS = n
	}
	if n, ok := envInt("ACTION_RUNNER_INTERVAL_MS"); ok {
		cfg.RunnerIntervalMS = n
	}
	if n, ok := envInt("ACTION_RUNNER_BATCH_SIZE"); ok {
		cfg.RunnerBatchSize = n
	}

	return cfg
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// SchedulerInterval returns the workflow scheduler tick interval.
func (c Config) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerIntervalMS) * time.Millisecond
}

// RunnerInterval returns the action runner tick interval.
func (c Config) RunnerInterval() time.Duration {
	return time.Duration(c.RunnerIntervalMS) * time.Millisecond
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
