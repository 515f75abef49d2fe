package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables.
// Environment variables override file and default values.
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("KAZARID_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Timer configuration
	applyEnvDuration("KAZARID_PLANNING_DURATION", &cfg.Timer.PlanningDuration)
	applyEnvDuration("KAZARID_FOCUS_DURATION", &cfg.Timer.FocusDuration)
	applyEnvDuration("KAZARID_BREAK_DURATION", &cfg.Timer.BreakDuration)
	applyEnvDuration("KAZARID_LONG_BREAK_DURATION", &cfg.Timer.LongBreakDuration)
	applyEnvDuration("KAZARID_TICK_INTERVAL", &cfg.Timer.TickInterval)
	applyEnvDuration("KAZARID_DRIFT_THRESHOLD", &cfg.Timer.DriftThreshold)
	applyEnvInt("KAZARID_LONG_BREAK_INTERVAL", &cfg.Timer.LongBreakInterval)
	applyEnvBool("KAZARID_AUTO_START_BREAKS", &cfg.Timer.AutoStartBreaks)
	applyEnvBool("KAZARID_AUTO_START_FOCUS", &cfg.Timer.AutoStartFocus)

	// Daemon configuration
	if pidFile := os.Getenv("KAZARID_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}
	if logFile := os.Getenv("KAZARID_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	// Web configuration
	if webHost := os.Getenv("KAZARID_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}
	if webPort := os.Getenv("KAZARID_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	// Idle configuration
	applyEnvBool("KAZARID_IDLE_ENABLED", &cfg.Idle.Enabled)
	applyEnvDuration("KAZARID_IDLE_THRESHOLD", &cfg.Idle.Threshold)
	applyEnvBool("KAZARID_IDLE_AUTO_RESUME", &cfg.Idle.AutoResume)

	// Notification configuration
	applyEnvBool("KAZARID_NOTIFY_ENABLED", &cfg.Notify.Enabled)
}

// New creates a new Config with default values, the config file applied,
// and environment overrides on top.
func New() *Config {
	cfg, err := LoadFile(DefaultConfigPath())
	if err != nil {
		cfg = Default()
	}
	LoadFromEnv(cfg)
	return cfg
}

func applyEnvDuration(key string, target *time.Duration) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		*target = d
	}
}

func applyEnvInt(key string, target *int) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		*target = n
	}
}

func applyEnvBool(key string, target *bool) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if b, err := strconv.ParseBool(value); err == nil {
		*target = b
	}
}
