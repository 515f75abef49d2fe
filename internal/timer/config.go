package timer

import (
	"fmt"
	"time"
)

// Config holds pomodoro sequencing settings. It is an immutable value:
// updates replace the whole struct, never mutate it in place.
type Config struct {
	PlanningDuration  time.Duration `json:"planning_duration"`
	FocusDuration     time.Duration `json:"focus_duration"`
	BreakDuration     time.Duration `json:"break_duration"`
	LongBreakDuration time.Duration `json:"long_break_duration"`

	// LongBreakInterval is the number of completed focus phases between
	// long breaks.
	LongBreakInterval int `json:"long_break_interval"`

	AutoStartBreaks bool `json:"auto_start_breaks"`
	AutoStartFocus  bool `json:"auto_start_focus"`

	TickInterval   time.Duration `json:"tick_interval"`
	DriftThreshold time.Duration `json:"drift_threshold"`
}

// DefaultConfig returns the classic pomodoro settings.
func DefaultConfig() Config {
	return Config{
		PlanningDuration:  5 * time.Minute,
		FocusDuration:     25 * time.Minute,
		BreakDuration:     5 * time.Minute,
		LongBreakDuration: 15 * time.Minute,
		LongBreakInterval: 4,
		AutoStartBreaks:   true,
		AutoStartFocus:    false,
		TickInterval:      100 * time.Millisecond,
		DriftThreshold:    time.Second,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.PlanningDuration <= 0 {
		return fmt.Errorf("%w: planning duration must be positive, got %v", ErrConfiguration, c.PlanningDuration)
	}
	if c.FocusDuration <= 0 {
		return fmt.Errorf("%w: focus duration must be positive, got %v", ErrConfiguration, c.FocusDuration)
	}
	if c.BreakDuration <= 0 {
		return fmt.Errorf("%w: break duration must be positive, got %v", ErrConfiguration, c.BreakDuration)
	}
	if c.LongBreakDuration <= 0 {
		return fmt.Errorf("%w: long break duration must be positive, got %v", ErrConfiguration, c.LongBreakDuration)
	}
	if c.LongBreakInterval < 1 {
		return fmt.Errorf("%w: long break interval must be at least 1, got %d", ErrConfiguration, c.LongBreakInterval)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %v", ErrConfiguration, c.TickInterval)
	}
	if c.DriftThreshold < c.TickInterval {
		return fmt.Errorf("%w: drift threshold (%v) must not be below the tick interval (%v)", ErrConfiguration, c.DriftThreshold, c.TickInterval)
	}
	return nil
}

// PhaseDuration returns the configured duration for the first run of the
// given phase. Break length depends on session count and is decided by
// NextPhase, so this reports the short break.
func (c Config) PhaseDuration(p Phase) time.Duration {
	switch p {
	case PhaseFocus:
		return c.FocusDuration
	case PhaseBreak:
		return c.BreakDuration
	default:
		return c.PlanningDuration
	}
}

// Patch is a partial configuration update. Nil fields keep their current
// values.
type Patch struct {
	PlanningDuration  *time.Duration `json:"planning_duration,omitempty"`
	FocusDuration     *time.Duration `json:"focus_duration,omitempty"`
	BreakDuration     *time.Duration `json:"break_duration,omitempty"`
	LongBreakDuration *time.Duration `json:"long_break_duration,omitempty"`
	LongBreakInterval *int           `json:"long_break_interval,omitempty"`
	AutoStartBreaks   *bool          `json:"auto_start_breaks,omitempty"`
	AutoStartFocus    *bool          `json:"auto_start_focus,omitempty"`
	TickInterval      *time.Duration `json:"tick_interval,omitempty"`
	DriftThreshold    *time.Duration `json:"drift_threshold,omitempty"`
}

// Apply merges the patch into a copy of c.
func (c Config) Apply(p Patch) Config {
	merged := c
	if p.PlanningDuration != nil {
		merged.PlanningDuration = *p.PlanningDuration
	}
	if p.FocusDuration != nil {
		merged.FocusDuration = *p.FocusDuration
	}
	if p.BreakDuration != nil {
		merged.BreakDuration = *p.BreakDuration
	}
	if p.LongBreakDuration != nil {
		merged.LongBreakDuration = *p.LongBreakDuration
	}
	if p.LongBreakInterval != nil {
		merged.LongBreakInterval = *p.LongBreakInterval
	}
	if p.AutoStartBreaks != nil {
		merged.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartFocus != nil {
		merged.AutoStartFocus = *p.AutoStartFocus
	}
	if p.TickInterval != nil {
		merged.TickInterval = *p.TickInterval
	}
	if p.DriftThreshold != nil {
		merged.DriftThreshold = *p.DriftThreshold
	}
	return merged
}
