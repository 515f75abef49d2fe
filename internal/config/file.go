package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// Durations are stored in whole seconds, matching the precision the
// configuration API accepts; anything finer has no use for phase lengths.
type yamlTimer struct {
	PlanningSeconds   int  `yaml:"planning_seconds"`
	FocusSeconds      int  `yaml:"focus_seconds"`
	BreakSeconds      int  `yaml:"break_seconds"`
	LongBreakSeconds  int  `yaml:"long_break_seconds"`
	LongBreakInterval int  `yaml:"long_break_interval"`
	AutoStartBreaks   bool `yaml:"auto_start_breaks"`
	AutoStartFocus    bool `yaml:"auto_start_focus"`
	TickIntervalMS    int  `yaml:"tick_interval_ms"`
	DriftThresholdMS  int  `yaml:"drift_threshold_ms"`
}

type yamlConfig struct {
	Timer    yamlTimer `yaml:"timer"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Web struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"web"`
	Idle struct {
		Enabled          bool `yaml:"enabled"`
		ThresholdSeconds int  `yaml:"threshold_seconds"`
		AutoResume       bool `yaml:"auto_resume"`
	} `yaml:"idle"`
	Notify struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"notify"`
}

// DefaultConfigPath returns the YAML config location under the user
// config directory.
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "kazarid", configFileName)
}

// LoadFile reads configuration from YAML. A missing file returns the
// defaults without error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fileData yamlConfig
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	applyYamlConfig(cfg, fileData)
	return cfg, nil
}

// SaveFile writes configuration to YAML, creating the directory if
// needed.
func SaveFile(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var fileData yamlConfig
	fileData.Timer = yamlTimer{
		PlanningSeconds:   int(cfg.Timer.PlanningDuration / time.Second),
		FocusSeconds:      int(cfg.Timer.FocusDuration / time.Second),
		BreakSeconds:      int(cfg.Timer.BreakDuration / time.Second),
		LongBreakSeconds:  int(cfg.Timer.LongBreakDuration / time.Second),
		LongBreakInterval: cfg.Timer.LongBreakInterval,
		AutoStartBreaks:   cfg.Timer.AutoStartBreaks,
		AutoStartFocus:    cfg.Timer.AutoStartFocus,
		TickIntervalMS:    int(cfg.Timer.TickInterval / time.Millisecond),
		DriftThresholdMS:  int(cfg.Timer.DriftThreshold / time.Millisecond),
	}
	fileData.Database.Path = cfg.Database.Path
	fileData.Web.Host = cfg.Web.Host
	fileData.Web.Port = cfg.Web.Port
	fileData.Idle.Enabled = cfg.Idle.Enabled
	fileData.Idle.ThresholdSeconds = int(cfg.Idle.Threshold / time.Second)
	fileData.Idle.AutoResume = cfg.Idle.AutoResume
	fileData.Notify.Enabled = cfg.Notify.Enabled

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func applyYamlConfig(cfg *Config, fileData yamlConfig) {
	if fileData.Timer.PlanningSeconds > 0 {
		cfg.Timer.PlanningDuration = time.Duration(fileData.Timer.PlanningSeconds) * time.Second
	}
	if fileData.Timer.FocusSeconds > 0 {
		cfg.Timer.FocusDuration = time.Duration(fileData.Timer.FocusSeconds) * time.Second
	}
	if fileData.Timer.BreakSeconds > 0 {
		cfg.Timer.BreakDuration = time.Duration(fileData.Timer.BreakSeconds) * time.Second
	}
	if fileData.Timer.LongBreakSeconds > 0 {
		cfg.Timer.LongBreakDuration = time.Duration(fileData.Timer.LongBreakSeconds) * time.Second
	}
	if fileData.Timer.LongBreakInterval > 0 {
		cfg.Timer.LongBreakInterval = fileData.Timer.LongBreakInterval
	}
	if fileData.Timer.TickIntervalMS > 0 {
		cfg.Timer.TickInterval = time.Duration(fileData.Timer.TickIntervalMS) * time.Millisecond
	}
	if fileData.Timer.DriftThresholdMS > 0 {
		cfg.Timer.DriftThreshold = time.Duration(fileData.Timer.DriftThresholdMS) * time.Millisecond
	}
	cfg.Timer.AutoStartBreaks = fileData.Timer.AutoStartBreaks
	cfg.Timer.AutoStartFocus = fileData.Timer.AutoStartFocus

	if fileData.Database.Path != "" {
		cfg.Database.Path = fileData.Database.Path
	}
	if fileData.Web.Host != "" {
		cfg.Web.Host = fileData.Web.Host
	}
	if fileData.Web.Port > 0 && fileData.Web.Port <= 65535 {
		cfg.Web.Port = fileData.Web.Port
	}

	cfg.Idle.Enabled = fileData.Idle.Enabled
	if fileData.Idle.ThresholdSeconds > 0 {
		cfg.Idle.Threshold = time.Duration(fileData.Idle.ThresholdSeconds) * time.Second
	}
	cfg.Idle.AutoResume = fileData.Idle.AutoResume
	cfg.Notify.Enabled = fileData.Notify.Enabled
}
