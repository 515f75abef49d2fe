package web

import (
	"time"

	"github.com/kazari/kazarid/internal/models"
	"github.com/kazari/kazarid/internal/timer"
)

// Wire types use millisecond integers for durations so browser-side
// consumers never deal in nanoseconds.

type stateResponse struct {
	Phase        string     `json:"phase"`
	Status       string     `json:"status"`
	RemainingMS  int64      `json:"remaining_ms"`
	TotalMS      int64      `json:"total_ms"`
	SessionCount int        `json:"session_count"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	PausedAt     *time.Time `json:"paused_at,omitempty"`
}

func stateResponseFrom(s timer.State) stateResponse {
	return stateResponse{
		Phase:        string(s.Phase),
		Status:       string(s.Status),
		RemainingMS:  s.Remaining.Milliseconds(),
		TotalMS:      s.Total.Milliseconds(),
		SessionCount: s.SessionCount,
		StartedAt:    s.StartedAt,
		PausedAt:     s.PausedAt,
	}
}

type configResponse struct {
	PlanningMS        int64 `json:"planning_ms"`
	FocusMS           int64 `json:"focus_ms"`
	BreakMS           int64 `json:"break_ms"`
	LongBreakMS       int64 `json:"long_break_ms"`
	LongBreakInterval int   `json:"long_break_interval"`
	AutoStartBreaks   bool  `json:"auto_start_breaks"`
	AutoStartFocus    bool  `json:"auto_start_focus"`
	TickIntervalMS    int64 `json:"tick_interval_ms"`
	DriftThresholdMS  int64 `json:"drift_threshold_ms"`
}

func configResponseFrom(c timer.Config) configResponse {
	return configResponse{
		PlanningMS:        c.PlanningDuration.Milliseconds(),
		FocusMS:           c.FocusDuration.Milliseconds(),
		BreakMS:           c.BreakDuration.Milliseconds(),
		LongBreakMS:       c.LongBreakDuration.Milliseconds(),
		LongBreakInterval: c.LongBreakInterval,
		AutoStartBreaks:   c.AutoStartBreaks,
		AutoStartFocus:    c.AutoStartFocus,
		TickIntervalMS:    c.TickInterval.Milliseconds(),
		DriftThresholdMS:  c.DriftThreshold.Milliseconds(),
	}
}

type patchRequest struct {
	PlanningMS        *int64 `json:"planning_ms,omitempty"`
	FocusMS           *int64 `json:"focus_ms,omitempty"`
	BreakMS           *int64 `json:"break_ms,omitempty"`
	LongBreakMS       *int64 `json:"long_break_ms,omitempty"`
	LongBreakInterval *int   `json:"long_break_interval,omitempty"`
	AutoStartBreaks   *bool  `json:"auto_start_breaks,omitempty"`
	AutoStartFocus    *bool  `json:"auto_start_focus,omitempty"`
	TickIntervalMS    *int64 `json:"tick_interval_ms,omitempty"`
	DriftThresholdMS  *int64 `json:"drift_threshold_ms,omitempty"`
}

func (r patchRequest) toPatch() timer.Patch {
	var p timer.Patch
	p.PlanningDuration = msToDuration(r.PlanningMS)
	p.FocusDuration = msToDuration(r.FocusMS)
	p.BreakDuration = msToDuration(r.BreakMS)
	p.LongBreakDuration = msToDuration(r.LongBreakMS)
	p.LongBreakInterval = r.LongBreakInterval
	p.AutoStartBreaks = r.AutoStartBreaks
	p.AutoStartFocus = r.AutoStartFocus
	p.TickInterval = msToDuration(r.TickIntervalMS)
	p.DriftThreshold = msToDuration(r.DriftThresholdMS)
	return p
}

func msToDuration(ms *int64) *time.Duration {
	if ms == nil {
		return nil
	}
	d := time.Duration(*ms) * time.Millisecond
	return &d
}

type sessionResponse struct {
	Phase       string    `json:"phase"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationSec int64     `json:"duration_sec"`
	Completed   bool      `json:"completed"`
	Interrupted bool      `json:"interrupted"`
}

// sessionResponsesFrom strips storage detail from session records; the
// query surface serves the same shape as the event stream.
func sessionResponsesFrom(sessions []*models.Session) []sessionResponse {
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			Phase:       s.Phase,
			StartedAt:   s.StartedAt,
			EndedAt:     s.EndedAt,
			DurationSec: s.Duration,
			Completed:   s.Completed,
			Interrupted: s.Interrupted,
		})
	}
	return out
}

type eventResponse struct {
	Type    string           `json:"type"`
	State   stateResponse    `json:"state"`
	From    string           `json:"from,omitempty"`
	To      string           `json:"to,omitempty"`
	Ended   *sessionResponse `json:"ended,omitempty"`
	Message string           `json:"message,omitempty"`
	At      time.Time        `json:"at"`
}

func eventResponseFrom(e timer.Event) eventResponse {
	resp := eventResponse{
		Type:    string(e.Type),
		State:   stateResponseFrom(e.State),
		From:    string(e.From),
		To:      string(e.To),
		Message: e.Message,
		At:      e.At,
	}
	if e.Ended != nil {
		resp.Ended = &sessionResponse{
			Phase:       string(e.Ended.Phase),
			StartedAt:   e.Ended.StartedAt,
			EndedAt:     e.Ended.EndedAt,
			DurationSec: int64(e.Ended.Duration.Seconds()),
			Completed:   e.Ended.Completed,
			Interrupted: e.Ended.Interrupted,
		}
	}
	return resp
}
