package models

import (
	"time"

	"gorm.io/gorm"
)

// ErrorLog captures a non-fatal failure, e.g. a session append that had
// to be retried. The timer never stops over these.
type ErrorLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Source    string         `gorm:"not null;index" json:"source"` // "recorder", "snapshot", "notify", ...
	ErrorMsg  string         `gorm:"not null" json:"error_msg"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
