// Package timer implements the pomodoro phase state machine. One engine
// instance owns the authoritative timer state; everything outside the
// package works with snapshots and events.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kazari/kazarid/internal/clock"
)

// Engine is the single-writer timer state machine. All mutation goes
// through its exported operations, which are safe for concurrent use;
// callers that need command serialization across consumers layer it on
// top (see the broker package).
type Engine struct {
	mu   sync.Mutex
	clk  clock.Clock
	sink Sink

	cfg Config

	phase        Phase
	status       Status
	total        time.Duration
	remaining    time.Duration
	sessionCount int

	// Occupancy bookkeeping for the phase currently on the clock.
	occupied    bool
	startedAt   time.Time     // clock reading when the phase first ran
	pausedAt    time.Time     // clock reading of the pause in progress
	pausedTotal time.Duration // pauses plus recovered sleep gaps
	expected    time.Duration // nominal elapsed accumulated from ticks
}

// New creates an engine in the planning phase, idle, with the full
// planning duration on the clock. The sink receives every event and must
// not block or call back into the engine.
func New(cfg Config, clk clock.Clock, sink Sink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Engine{
		clk:       clk,
		sink:      sink,
		cfg:       cfg,
		phase:     PhasePlanning,
		status:    StatusIdle,
		total:     cfg.PlanningDuration,
		remaining: cfg.PlanningDuration,
	}, nil
}

// Run drives periodic ticks until the context is cancelled. The ticker
// drops missed ticks, so a slow tick is skipped rather than queued.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	interval := e.cfg.TickInterval
	e.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
			e.mu.Lock()
			current := e.cfg.TickInterval
			e.mu.Unlock()
			if current != interval {
				interval = current
				ticker.Reset(interval)
			}
		}
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Start begins or resumes the countdown. Starting a running timer is a
// no-op that returns the current state.
func (e *Engine) Start() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	switch e.status {
	case StatusRunning:
		return e.stateLocked(), nil
	case StatusPaused:
		e.pausedTotal += now.Sub(e.pausedAt)
		e.pausedAt = time.Time{}
		e.status = StatusRunning
	default: // idle: a fresh occupancy of the current phase
		e.occupied = true
		e.startedAt = now
		e.pausedAt = time.Time{}
		e.pausedTotal = 0
		e.expected = 0
		e.status = StatusRunning
	}

	state := e.stateLocked()
	e.emitLocked(Event{Type: EventStateChanged, State: state, At: now})
	return state, nil
}

// Pause freezes the countdown at the elapsed-corrected remaining time.
func (e *Engine) Pause() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusRunning {
		return e.stateLocked(), fmt.Errorf("%w: cannot pause while %s", ErrInvalidTransition, e.status)
	}

	now := e.clk.Now()
	actual := e.elapsedLocked(now)
	e.remaining = clampRemaining(e.total-actual, e.total)
	e.expected = actual
	e.status = StatusPaused
	e.pausedAt = now

	state := e.stateLocked()
	e.emitLocked(Event{Type: EventStateChanged, State: state, At: now})
	return state, nil
}

// Reset returns the current phase to its full duration and stops the
// countdown. A phase that was in progress is recorded as interrupted.
func (e *Engine) Reset() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	var ended *PhaseResult
	if e.occupied {
		ended = e.resultLocked(now, false, true)
	}

	e.status = StatusIdle
	e.remaining = e.total
	e.clearOccupancyLocked()

	state := e.stateLocked()
	e.emitLocked(Event{Type: EventStateChanged, State: state, Ended: ended, At: now})
	return state
}

// Skip ends the current phase as if its time ran out and applies the
// phase policy. The finishing session is recorded as interrupted unless
// the remaining time was already exactly zero.
func (e *Engine) Skip() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	if e.status == StatusRunning {
		actual := e.elapsedLocked(now)
		e.remaining = clampRemaining(e.total-actual, e.total)
	}

	var ended *PhaseResult
	if e.occupied {
		completed := e.remaining == 0
		ended = e.resultLocked(now, completed, !completed)
	}

	e.advanceLocked(now, ended, e.status == StatusRunning)
	return e.stateLocked()
}

// Configure merges a partial update into the configuration. A changed
// duration for the phase currently on the clock takes effect on the next
// phase entry; remaining and total are never altered retroactively.
func (e *Engine) Configure(p Patch) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	merged := e.cfg.Apply(p)
	if err := merged.Validate(); err != nil {
		return e.stateLocked(), err
	}
	e.cfg = merged

	now := e.clk.Now()
	cfg := merged
	state := e.stateLocked()
	e.emitLocked(Event{Type: EventConfigChanged, State: state, Config: &cfg, At: now})
	return state, nil
}

// Tick advances the countdown while running. Remaining time is always
// recomputed from the monotonic clock; the nominal tick count exists only
// to detect sleep gaps, which are credited as paused time instead of
// elapsed phase time.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusRunning {
		return
	}

	now := e.clk.Now()
	e.expected += e.cfg.TickInterval

	actual := now.Sub(e.startedAt) - e.pausedTotal
	if actual < 0 {
		// Implausible reading: realign the start so the nominal elapsed
		// holds and carry on.
		e.startedAt = now.Add(-(e.expected + e.pausedTotal))
		actual = e.expected
		e.emitLocked(Event{
			Type:    EventWarning,
			State:   e.stateLocked(),
			Message: "clock anomaly detected, countdown resynchronized",
			At:      now,
		})
	}

	drift := actual - e.expected
	if drift > e.cfg.DriftThreshold {
		// The process was asleep. The gap is pause, not phase time.
		e.pausedTotal += drift
		actual = e.expected
		e.emitLocked(Event{
			Type:    EventWarning,
			State:   e.stateLocked(),
			Message: fmt.Sprintf("clock gap of %v treated as paused time", drift.Round(time.Millisecond)),
			At:      now,
		})
	} else if drift != 0 {
		e.expected = actual
	}

	remaining := clampRemaining(e.total-actual, e.total)
	if remaining == 0 {
		e.remaining = 0
		ended := e.resultLocked(now, true, false)
		e.advanceLocked(now, ended, true)
		return
	}
	if remaining != e.remaining {
		e.remaining = remaining
		e.emitLocked(Event{Type: EventStateChanged, State: e.stateLocked(), At: now})
	}
}

// Restore loads a persisted snapshot. A snapshot captured while running
// comes back paused: no user time elapsed while the process was down.
func (e *Engine) Restore(s State) error {
	if !s.Phase.Valid() || !s.Status.Valid() {
		return fmt.Errorf("%w: unknown phase %q or status %q", ErrConfiguration, s.Phase, s.Status)
	}
	if s.Total <= 0 || s.Remaining < 0 || s.Remaining > s.Total {
		return fmt.Errorf("%w: remaining %v outside [0, %v]", ErrConfiguration, s.Remaining, s.Total)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	e.phase = s.Phase
	e.total = s.Total
	e.sessionCount = s.SessionCount

	if s.Status == StatusIdle {
		e.status = StatusIdle
		e.remaining = s.Total
		e.clearOccupancyLocked()
		return nil
	}

	elapsed := s.Total - s.Remaining
	e.status = StatusPaused
	e.remaining = s.Remaining
	e.occupied = true
	e.startedAt = now.Add(-elapsed)
	e.pausedAt = now
	e.pausedTotal = 0
	e.expected = elapsed
	return nil
}

func (e *Engine) elapsedLocked(now time.Time) time.Duration {
	actual := now.Sub(e.startedAt) - e.pausedTotal
	if actual < 0 {
		return 0
	}
	return actual
}

// advanceLocked moves into the next phase per the policy. The countdown
// keeps running only when it was running and the new phase is flagged for
// auto-start; otherwise the engine idles awaiting an explicit start.
func (e *Engine) advanceLocked(now time.Time, ended *PhaseResult, wasRunning bool) {
	tr := NextPhase(e.phase, e.sessionCount, e.cfg)
	from := e.phase

	e.phase = tr.Phase
	e.total = tr.Duration
	e.remaining = tr.Duration
	e.sessionCount = tr.SessionCount

	autoStart := e.cfg.AutoStartFocus
	if tr.Phase == PhaseBreak {
		autoStart = e.cfg.AutoStartBreaks
	}

	if wasRunning && autoStart {
		e.status = StatusRunning
		e.occupied = true
		e.startedAt = now
		e.pausedAt = time.Time{}
		e.pausedTotal = 0
		e.expected = 0
	} else {
		e.status = StatusIdle
		e.clearOccupancyLocked()
	}

	e.emitLocked(Event{
		Type:  EventPhaseChanged,
		State: e.stateLocked(),
		From:  from,
		To:    tr.Phase,
		Ended: ended,
		At:    now,
	})
}

func (e *Engine) resultLocked(now time.Time, completed, interrupted bool) *PhaseResult {
	active := now.Sub(e.startedAt) - e.pausedTotal
	if e.status == StatusPaused {
		active = now.Sub(e.startedAt) - e.pausedTotal - now.Sub(e.pausedAt)
	}
	if active < 0 {
		active = 0
	}
	return &PhaseResult{
		Phase:       e.phase,
		StartedAt:   e.startedAt,
		EndedAt:     now,
		Duration:    active,
		Completed:   completed,
		Interrupted: interrupted,
	}
}

func (e *Engine) clearOccupancyLocked() {
	e.occupied = false
	e.startedAt = time.Time{}
	e.pausedAt = time.Time{}
	e.pausedTotal = 0
	e.expected = 0
}

func (e *Engine) stateLocked() State {
	s := State{
		Phase:        e.phase,
		Status:       e.status,
		Remaining:    e.remaining,
		Total:        e.total,
		SessionCount: e.sessionCount,
	}
	if e.occupied {
		startedAt := e.startedAt
		s.StartedAt = &startedAt
	}
	if e.status == StatusPaused && !e.pausedAt.IsZero() {
		pausedAt := e.pausedAt
		s.PausedAt = &pausedAt
	}
	return s
}

func (e *Engine) emitLocked(event Event) {
	if e.sink != nil {
		e.sink(event)
	}
}

func clampRemaining(d, total time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > total {
		return total
	}
	return d
}
