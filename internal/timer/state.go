package timer

import "time"

// Phase represents the current stage of the pomodoro cycle.
type Phase string

const (
	PhasePlanning Phase = "planning"
	PhaseFocus    Phase = "focus"
	PhaseBreak    Phase = "break"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhasePlanning, PhaseFocus, PhaseBreak:
		return true
	}
	return false
}

// Status represents the engine run state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusPaused:
		return true
	}
	return false
}

// State is an immutable snapshot of the engine. Consumers only ever see
// copies; the authoritative state lives inside the engine.
type State struct {
	Phase        Phase         `json:"phase"`
	Status       Status        `json:"status"`
	Remaining    time.Duration `json:"remaining"`
	Total        time.Duration `json:"total"`
	SessionCount int           `json:"session_count"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	PausedAt     *time.Time    `json:"paused_at,omitempty"`
}

// EventType defines the kind of engine event.
type EventType string

const (
	EventStateChanged  EventType = "state_changed"
	EventPhaseChanged  EventType = "phase_changed"
	EventConfigChanged EventType = "config_changed"
	EventWarning       EventType = "warning"
)

// PhaseResult describes one finished phase occupancy. It is attached to
// the event that ends the phase and is the recorder's only input.
type PhaseResult struct {
	Phase       Phase         `json:"phase"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at"`
	Duration    time.Duration `json:"duration"`
	Completed   bool          `json:"completed"`
	Interrupted bool          `json:"interrupted"`
}

// Event is a broadcast update from the engine.
type Event struct {
	Type    EventType    `json:"type"`
	State   State        `json:"state"`
	From    Phase        `json:"from,omitempty"`
	To      Phase        `json:"to,omitempty"`
	Ended   *PhaseResult `json:"ended,omitempty"`
	Config  *Config      `json:"config,omitempty"`
	Message string       `json:"message,omitempty"`
	At      time.Time    `json:"at"`
}

// Sink receives every engine event. It must not block; the fan-out layer
// is responsible for slow consumers.
type Sink func(Event)
