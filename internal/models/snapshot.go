package models

import "time"

// DefaultScope is the single profile scope this build supports.
const DefaultScope = "default"

// StateSnapshot is the persisted timer state, one row per profile scope.
// It is upserted in place; history lives in the session log instead.
type StateSnapshot struct {
	Scope        string    `gorm:"primaryKey;size:64" json:"scope"`
	Phase        string    `gorm:"not null" json:"phase"`
	Status       string    `gorm:"not null" json:"status"`
	RemainingMS  int64     `gorm:"not null;default:0" json:"remaining_ms"`
	TotalMS      int64     `gorm:"not null;default:0" json:"total_ms"`
	SessionCount int       `gorm:"not null;default:0" json:"session_count"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
