package timer

import "time"

// Transition is the outcome of the phase policy: the phase to enter, its
// duration, and the session count after the transition.
type Transition struct {
	Phase        Phase
	Duration     time.Duration
	SessionCount int
}

// NextPhase decides what follows the current phase once its time is up.
// It is a pure function of its inputs.
//
// Planning leads into focus. A finished focus phase increments the
// session count and leads into a break; every LongBreakInterval-th break
// is a long one. A finished break leads back into focus.
func NextPhase(current Phase, sessionCount int, cfg Config) Transition {
	switch current {
	case PhaseFocus:
		count := sessionCount + 1
		duration := cfg.BreakDuration
		if cfg.LongBreakInterval > 0 && count%cfg.LongBreakInterval == 0 {
			duration = cfg.LongBreakDuration
		}
		return Transition{Phase: PhaseBreak, Duration: duration, SessionCount: count}
	case PhaseBreak, PhasePlanning:
		return Transition{Phase: PhaseFocus, Duration: cfg.FocusDuration, SessionCount: sessionCount}
	default:
		return Transition{Phase: PhaseFocus, Duration: cfg.FocusDuration, SessionCount: sessionCount}
	}
}
