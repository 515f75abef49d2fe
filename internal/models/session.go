package models

import (
	"time"

	"gorm.io/gorm"
)

// Session is one finished phase occupancy. Records are append-only and
// never mutated after creation.
type Session struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Phase       string         `gorm:"not null;index" json:"phase"`
	StartedAt   time.Time      `gorm:"not null;index" json:"started_at"`
	EndedAt     time.Time      `gorm:"not null" json:"ended_at"`
	Duration    int64          `gorm:"not null;default:0" json:"duration"` // Active seconds, pauses excluded
	Completed   bool           `gorm:"not null;default:false" json:"completed"`
	Interrupted bool           `gorm:"not null;default:false" json:"interrupted"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
