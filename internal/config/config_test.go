package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero focus duration", func(c *Config) { c.Timer.FocusDuration = 0 }},
		{"port too low", func(c *Config) { c.Web.Port = 0 }},
		{"port too high", func(c *Config) { c.Web.Port = 70000 }},
		{"empty host", func(c *Config) { c.Web.Host = "" }},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }},
		{"idle enabled without threshold", func(c *Config) {
			c.Idle.Enabled = true
			c.Idle.Threshold = 0
		}},
		{"idle enabled without poll interval", func(c *Config) {
			c.Idle.Enabled = true
			c.Idle.PollInterval = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() succeeded, want error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAZARID_DB_PATH", "/tmp/test.db")
	t.Setenv("KAZARID_FOCUS_DURATION", "50m")
	t.Setenv("KAZARID_LONG_BREAK_INTERVAL", "3")
	t.Setenv("KAZARID_AUTO_START_FOCUS", "true")
	t.Setenv("KAZARID_WEB_PORT", "12345")
	t.Setenv("KAZARID_IDLE_ENABLED", "1")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Timer.FocusDuration != 50*time.Minute {
		t.Errorf("FocusDuration = %v, want 50m", cfg.Timer.FocusDuration)
	}
	if cfg.Timer.LongBreakInterval != 3 {
		t.Errorf("LongBreakInterval = %d, want 3", cfg.Timer.LongBreakInterval)
	}
	if !cfg.Timer.AutoStartFocus {
		t.Error("AutoStartFocus not applied")
	}
	if cfg.Web.Port != 12345 {
		t.Errorf("Web.Port = %d, want 12345", cfg.Web.Port)
	}
	if !cfg.Idle.Enabled {
		t.Error("Idle.Enabled not applied")
	}
}

func TestLoadFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("KAZARID_FOCUS_DURATION", "not-a-duration")
	t.Setenv("KAZARID_LONG_BREAK_INTERVAL", "-2")
	t.Setenv("KAZARID_WEB_PORT", "99999")

	cfg := Default()
	want := *cfg
	LoadFromEnv(cfg)

	if cfg.Timer.FocusDuration != want.Timer.FocusDuration {
		t.Errorf("FocusDuration = %v, want untouched %v", cfg.Timer.FocusDuration, want.Timer.FocusDuration)
	}
	if cfg.Timer.LongBreakInterval != want.Timer.LongBreakInterval {
		t.Errorf("LongBreakInterval = %d, want untouched %d", cfg.Timer.LongBreakInterval, want.Timer.LongBreakInterval)
	}
	if cfg.Web.Port != want.Web.Port {
		t.Errorf("Web.Port = %d, want untouched %d", cfg.Web.Port, want.Web.Port)
	}
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Timer.FocusDuration != Default().Timer.FocusDuration {
		t.Errorf("FocusDuration = %v, want default", cfg.Timer.FocusDuration)
	}
}

func TestLoadFileMalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timer: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() succeeded on malformed yaml, want error")
	}
}

func TestSaveAndLoadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Timer.FocusDuration = 50 * time.Minute
	cfg.Timer.LongBreakInterval = 3
	cfg.Timer.AutoStartFocus = true
	cfg.Timer.TickInterval = 250 * time.Millisecond
	cfg.Timer.DriftThreshold = 2 * time.Second
	cfg.Database.Path = "/tmp/roundtrip.db"
	cfg.Web.Port = 23456
	cfg.Idle.Enabled = true
	cfg.Idle.Threshold = 10 * time.Minute
	cfg.Notify.Enabled = false

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if loaded.Timer.FocusDuration != cfg.Timer.FocusDuration {
		t.Errorf("FocusDuration = %v, want %v", loaded.Timer.FocusDuration, cfg.Timer.FocusDuration)
	}
	if loaded.Timer.LongBreakInterval != cfg.Timer.LongBreakInterval {
		t.Errorf("LongBreakInterval = %d, want %d", loaded.Timer.LongBreakInterval, cfg.Timer.LongBreakInterval)
	}
	if loaded.Timer.AutoStartFocus != cfg.Timer.AutoStartFocus {
		t.Errorf("AutoStartFocus = %v, want %v", loaded.Timer.AutoStartFocus, cfg.Timer.AutoStartFocus)
	}
	if loaded.Timer.TickInterval != cfg.Timer.TickInterval {
		t.Errorf("TickInterval = %v, want %v", loaded.Timer.TickInterval, cfg.Timer.TickInterval)
	}
	if loaded.Database.Path != cfg.Database.Path {
		t.Errorf("Database.Path = %s, want %s", loaded.Database.Path, cfg.Database.Path)
	}
	if loaded.Web.Port != cfg.Web.Port {
		t.Errorf("Web.Port = %d, want %d", loaded.Web.Port, cfg.Web.Port)
	}
	if !loaded.Idle.Enabled || loaded.Idle.Threshold != cfg.Idle.Threshold {
		t.Errorf("Idle = %+v, want %+v", loaded.Idle, cfg.Idle)
	}
	if loaded.Notify.Enabled {
		t.Error("Notify.Enabled = true, want false")
	}
}

func TestSaveAndLoadFileKeepsSubMinuteDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Timer.FocusDuration = 90 * time.Second
	cfg.Timer.BreakDuration = 4*time.Minute + 30*time.Second
	cfg.Idle.Threshold = 90 * time.Second

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if loaded.Timer.FocusDuration != 90*time.Second {
		t.Errorf("FocusDuration = %v, want 90s", loaded.Timer.FocusDuration)
	}
	if loaded.Timer.BreakDuration != 4*time.Minute+30*time.Second {
		t.Errorf("BreakDuration = %v, want 4m30s", loaded.Timer.BreakDuration)
	}
	if loaded.Idle.Threshold != 90*time.Second {
		t.Errorf("Idle.Threshold = %v, want 90s", loaded.Idle.Threshold)
	}
}

func TestSaveFileEmptyPath(t *testing.T) {
	if err := SaveFile("", Default()); err == nil {
		t.Error("SaveFile(\"\") succeeded, want error")
	}
}
