package models

import "time"

// PhaseSummary aggregates session time for one phase.
type PhaseSummary struct {
	Phase            string  `json:"phase"`
	TotalSeconds     int64   `json:"total_seconds"`
	TotalMinutes     float64 `json:"total_minutes"`
	TotalHours       float64 `json:"total_hours"`
	SessionCount     int     `json:"session_count"`
	CompletedCount   int     `json:"completed_count"`
	InterruptedCount int     `json:"interrupted_count"`
	Percentage       float64 `json:"percentage,omitempty"`
}

// StatsPeriod is the time range a Stats report covers.
type StatsPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month", "all"
}

// Stats is derived on demand from the session log, never stored.
type Stats struct {
	Period        StatsPeriod    `json:"period"`
	Phases        []PhaseSummary `json:"phases"`
	TotalSeconds  int64          `json:"total_seconds"`
	TotalMinutes  float64        `json:"total_minutes"`
	TotalHours    float64        `json:"total_hours"`
	CurrentStreak int            `json:"current_streak"` // Consecutive days ending today with a completed focus session
	BestStreak    int            `json:"best_streak"`
	GeneratedAt   time.Time      `json:"generated_at"`
}
