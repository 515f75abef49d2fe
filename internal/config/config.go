package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kazari/kazarid/internal/timer"
)

// Config holds all daemon configuration.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Timer configuration
	Timer timer.Config

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig

	// Idle watcher configuration
	Idle IdleConfig

	// Notification configuration
	Notify NotifyConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
	LogFile string // Path to daemon log file
}

// WebConfig holds the command/event API server configuration
type WebConfig struct {
	Host string // Host to bind to; keep it on loopback
	Port int    // Port for the API server
}

// IdleConfig holds idle watcher configuration
type IdleConfig struct {
	Enabled      bool          // Pause a running focus phase when the user goes idle
	Threshold    time.Duration // User inactivity before pausing
	PollInterval time.Duration // How often to query idle time
	AutoResume   bool          // Resume when activity returns
}

// NotifyConfig holds desktop notification configuration
type NotifyConfig struct {
	Enabled bool // Send a desktop notification on phase change
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/kazarid/kazarid.db
		},
		Timer: timer.DefaultConfig(),
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/kazarid-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/kazarid-%d.log", os.Getuid()),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(),
		},
		Idle: IdleConfig{
			Enabled:      false,
			Threshold:    5 * time.Minute,
			PollInterval: 5 * time.Second,
			AutoResume:   true,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Timer.Validate(); err != nil {
		return err
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	if c.Idle.Enabled {
		if c.Idle.Threshold <= 0 {
			return fmt.Errorf("idle threshold must be positive, got %v", c.Idle.Threshold)
		}
		if c.Idle.PollInterval <= 0 {
			return fmt.Errorf("idle poll interval must be positive, got %v", c.Idle.PollInterval)
		}
	}

	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Timer:
    Planning: %v  Focus: %v  Break: %v  Long Break: %v (every %d)
    Auto-start Breaks: %v  Auto-start Focus: %v
    Tick Interval: %v  Drift Threshold: %v
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d
  Idle:
    Enabled: %v  Threshold: %v
  Notify:
    Enabled: %v`,
		c.Database.Path,
		c.Timer.PlanningDuration,
		c.Timer.FocusDuration,
		c.Timer.BreakDuration,
		c.Timer.LongBreakDuration,
		c.Timer.LongBreakInterval,
		c.Timer.AutoStartBreaks,
		c.Timer.AutoStartFocus,
		c.Timer.TickInterval,
		c.Timer.DriftThreshold,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
		c.Idle.Enabled,
		c.Idle.Threshold,
		c.Notify.Enabled,
	)
}
