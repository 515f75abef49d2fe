package database

import (
	"time"

	"github.com/kazari/kazarid/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for the timer core.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// AppendSession inserts a finished session. Sessions are append-only;
// there is deliberately no update path.
func (r *Repository) AppendSession(session *models.Session) error {
	result := r.db.Create(session)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert session")
	}
	return nil
}

// SessionsSince retrieves all sessions that started at or after the given
// time, oldest first.
func (r *Repository) SessionsSince(since time.Time) ([]*models.Session, error) {
	var sessions []*models.Session
	result := r.db.Where("started_at >= ?", since).Order("started_at ASC").Find(&sessions)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query sessions")
	}
	return sessions, nil
}

// LatestSessions retrieves the most recent sessions, newest first.
func (r *Repository) LatestSessions(limit int) ([]*models.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	var sessions []*models.Session
	result := r.db.Order("started_at DESC").Limit(limit).Find(&sessions)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query latest sessions")
	}
	return sessions, nil
}

// PhaseTotalsSince returns aggregated session time per phase since a
// given time. SQL does the SUM; callers compute derived fields.
func (r *Repository) PhaseTotalsSince(since time.Time) ([]models.PhaseSummary, error) {
	var summaries []models.PhaseSummary

	result := r.db.Model(&models.Session{}).
		Select("phase, SUM(duration) as total_seconds, COUNT(*) as session_count, " +
			"SUM(CASE WHEN completed THEN 1 ELSE 0 END) as completed_count, " +
			"SUM(CASE WHEN interrupted THEN 1 ELSE 0 END) as interrupted_count").
		Where("started_at >= ?", since).
		Group("phase").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query phase totals")
	}

	return summaries, nil
}

// CompletedFocusSince retrieves completed focus sessions for streak
// calculation, oldest first.
func (r *Repository) CompletedFocusSince(since time.Time) ([]*models.Session, error) {
	var sessions []*models.Session
	result := r.db.
		Where("phase = ? AND completed = ? AND started_at >= ?", "focus", true, since).
		Order("started_at ASC").
		Find(&sessions)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query completed focus sessions")
	}
	return sessions, nil
}

// SaveSnapshot upserts the timer state for a profile scope.
func (r *Repository) SaveSnapshot(snapshot *models.StateSnapshot) error {
	result := r.db.Save(snapshot)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to save state snapshot")
	}
	return nil
}

// LoadSnapshot retrieves the persisted timer state for a profile scope.
// Returns nil without error when no snapshot exists yet.
func (r *Repository) LoadSnapshot(scope string) (*models.StateSnapshot, error) {
	var snapshot models.StateSnapshot
	result := r.db.First(&snapshot, "scope = ?", scope)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to load state snapshot")
	}
	return &snapshot, nil
}

// PruneSessions deletes sessions older than a specified date (soft delete).
func (r *Repository) PruneSessions(before time.Time) (int64, error) {
	result := r.db.Where("started_at < ?", before).Delete(&models.Session{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to prune sessions")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log entry.
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// Clear removes all sessions from the database.
func (r *Repository) Clear() error {
	result := r.db.Exec("DELETE FROM sessions")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear sessions")
	}
	return nil
}
