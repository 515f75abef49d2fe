package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kazari/kazarid/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return NewRepository(db)
}

func testSession(phase string, startedAt time.Time, duration int64, completed bool) *models.Session {
	return &models.Session{
		Phase:       phase,
		StartedAt:   startedAt,
		EndedAt:     startedAt.Add(time.Duration(duration) * time.Second),
		Duration:    duration,
		Completed:   completed,
		Interrupted: !completed,
	}
}

func TestAppendAndQuerySessions(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i, s := range []*models.Session{
		testSession("focus", base, 1500, true),
		testSession("break", base.Add(30*time.Minute), 300, true),
		testSession("focus", base.Add(time.Hour), 900, false),
	} {
		if err := repo.AppendSession(s); err != nil {
			t.Fatalf("AppendSession(%d) error = %v", i, err)
		}
	}

	sessions, err := repo.SessionsSince(base.Add(15 * time.Minute))
	if err != nil {
		t.Fatalf("SessionsSince() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if !sessions[0].StartedAt.Before(sessions[1].StartedAt) {
		t.Error("sessions not ordered oldest first")
	}

	latest, err := repo.LatestSessions(2)
	if err != nil {
		t.Fatalf("LatestSessions() error = %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("got %d sessions, want 2", len(latest))
	}
	if latest[0].Phase != "focus" || latest[0].Duration != 900 {
		t.Errorf("newest session = %s/%d, want focus/900", latest[0].Phase, latest[0].Duration)
	}
}

func TestPhaseTotalsSince(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, s := range []*models.Session{
		testSession("focus", base, 1500, true),
		testSession("focus", base.Add(time.Hour), 1200, false),
		testSession("break", base.Add(2*time.Hour), 300, true),
	} {
		if err := repo.AppendSession(s); err != nil {
			t.Fatalf("AppendSession() error = %v", err)
		}
	}

	summaries, err := repo.PhaseTotalsSince(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("PhaseTotalsSince() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	// Ordered by total time descending, so focus comes first.
	focus := summaries[0]
	if focus.Phase != "focus" {
		t.Fatalf("first summary phase = %s, want focus", focus.Phase)
	}
	if focus.TotalSeconds != 2700 {
		t.Errorf("focus TotalSeconds = %d, want 2700", focus.TotalSeconds)
	}
	if focus.SessionCount != 2 {
		t.Errorf("focus SessionCount = %d, want 2", focus.SessionCount)
	}
	if focus.CompletedCount != 1 || focus.InterruptedCount != 1 {
		t.Errorf("focus completed/interrupted = %d/%d, want 1/1", focus.CompletedCount, focus.InterruptedCount)
	}
}

func TestCompletedFocusSince(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, s := range []*models.Session{
		testSession("focus", base, 1500, true),
		testSession("focus", base.Add(time.Hour), 900, false), // interrupted
		testSession("break", base.Add(2*time.Hour), 300, true),
	} {
		if err := repo.AppendSession(s); err != nil {
			t.Fatalf("AppendSession() error = %v", err)
		}
	}

	sessions, err := repo.CompletedFocusSince(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CompletedFocusSince() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].Phase != "focus" || !sessions[0].Completed {
		t.Errorf("got %s completed=%v, want a completed focus session", sessions[0].Phase, sessions[0].Completed)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	loaded, err := repo.LoadSnapshot(models.DefaultScope)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if loaded != nil {
		t.Fatalf("LoadSnapshot() = %+v before any save, want nil", loaded)
	}

	snapshot := &models.StateSnapshot{
		Scope:        models.DefaultScope,
		Phase:        "focus",
		Status:       "paused",
		RemainingMS:  90_000,
		TotalMS:      120_000,
		SessionCount: 3,
	}
	if err := repo.SaveSnapshot(snapshot); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	// A second save for the same scope replaces, never duplicates.
	snapshot.RemainingMS = 60_000
	if err := repo.SaveSnapshot(snapshot); err != nil {
		t.Fatalf("SaveSnapshot() second error = %v", err)
	}

	loaded, err = repo.LoadSnapshot(models.DefaultScope)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadSnapshot() = nil after save")
	}
	if loaded.RemainingMS != 60_000 {
		t.Errorf("RemainingMS = %d, want 60000", loaded.RemainingMS)
	}
	if loaded.Phase != "focus" || loaded.Status != "paused" || loaded.SessionCount != 3 {
		t.Errorf("loaded snapshot = %+v", loaded)
	}
}

func TestPruneSessions(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, s := range []*models.Session{
		testSession("focus", base.AddDate(0, -2, 0), 1500, true),
		testSession("focus", base, 1500, true),
	} {
		if err := repo.AppendSession(s); err != nil {
			t.Fatalf("AppendSession() error = %v", err)
		}
	}

	pruned, err := repo.PruneSessions(base.AddDate(0, -1, 0))
	if err != nil {
		t.Fatalf("PruneSessions() error = %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned %d sessions, want 1", pruned)
	}

	remaining, err := repo.SessionsSince(time.Time{})
	if err != nil {
		t.Fatalf("SessionsSince() error = %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("got %d sessions after prune, want 1", len(remaining))
	}
}

func TestClearRemovesAllSessions(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	if err := repo.AppendSession(testSession("focus", base, 1500, true)); err != nil {
		t.Fatalf("AppendSession() error = %v", err)
	}
	if err := repo.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	sessions, err := repo.SessionsSince(time.Time{})
	if err != nil {
		t.Fatalf("SessionsSince() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("got %d sessions after clear, want 0", len(sessions))
	}
}

func TestCreateErrorLog(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.CreateErrorLog(&models.ErrorLog{
		Timestamp: time.Now(),
		Source:    "recorder",
		ErrorMsg:  "disk full",
	})
	if err != nil {
		t.Fatalf("CreateErrorLog() error = %v", err)
	}
}
