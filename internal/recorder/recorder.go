// Package recorder turns engine events into the append-only session log
// and keeps the persisted state snapshot current. All writes happen on a
// background worker so slow disk I/O never delays timer ticking.
package recorder

import (
	"context"
	"time"

	"github.com/kazari/kazarid/internal/database"
	"github.com/kazari/kazarid/internal/logging"
	"github.com/kazari/kazarid/internal/models"
	"github.com/kazari/kazarid/internal/timer"
)

const (
	queueSize    = 64
	maxRetries   = 3
	retryBackoff = 500 * time.Millisecond

	// Snapshot writes are debounced; per-tick state changes collapse
	// into one save per interval. Phase changes save immediately.
	snapshotDebounce = 5 * time.Second
)

type job struct {
	session  *models.Session
	snapshot *models.StateSnapshot
}

// Recorder persists sessions and state snapshots write-behind.
type Recorder struct {
	repo  *database.Repository
	scope string
	queue chan job
}

// New creates a recorder writing through the given repository.
func New(repo *database.Repository) *Recorder {
	return &Recorder{
		repo:  repo,
		scope: models.DefaultScope,
		queue: make(chan job, queueSize),
	}
}

// Run consumes engine events until the channel closes or the context is
// cancelled. It is the only writer to the recorder queue.
func (r *Recorder) Run(ctx context.Context, events <-chan timer.Event) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.worker(ctx)
	}()

	var (
		lastSnapshotAt time.Time
		lastState      timer.State
		sawState       bool
	)
	finish := func() {
		// Final snapshot, so a restart resumes where the user left off.
		if sawState {
			r.enqueue(job{snapshot: snapshotFromState(r.scope, lastState)})
		}
		close(r.queue)
		<-done
	}

	for {
		select {
		case <-ctx.Done():
			finish()
			return
		case event, ok := <-events:
			if !ok {
				finish()
				return
			}
			lastState = event.State
			sawState = true

			if event.Ended != nil {
				r.enqueue(job{session: sessionFromResult(event.Ended)})
			}

			immediate := event.Type == timer.EventPhaseChanged || event.Type == timer.EventConfigChanged
			if immediate || time.Since(lastSnapshotAt) >= snapshotDebounce {
				r.enqueue(job{snapshot: snapshotFromState(r.scope, event.State)})
				lastSnapshotAt = time.Now()
			}
		}
	}
}

func (r *Recorder) enqueue(j job) {
	select {
	case r.queue <- j:
	default:
		// A full queue means the disk is badly behind; dropping a
		// snapshot is harmless, dropping a session is worth a log line.
		if j.session != nil {
			logging.Errorf("recorder queue full, dropping session record for phase %s", j.session.Phase)
		}
	}
}

func (r *Recorder) worker(ctx context.Context) {
	for j := range r.queue {
		switch {
		case j.session != nil:
			r.persist(ctx, "recorder", func() error { return r.repo.AppendSession(j.session) })
		case j.snapshot != nil:
			r.persist(ctx, "snapshot", func() error { return r.repo.SaveSnapshot(j.snapshot) })
		}
	}
}

// persist retries with backoff; a final failure lands in the error log
// table and is otherwise swallowed. Persistence trouble must never
// surface as a command failure.
func (r *Recorder) persist(ctx context.Context, source string, write func() error) {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = write(); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}

	logging.Errorf("%s write failed after %d retries: %v", source, maxRetries, err)
	errorLog := &models.ErrorLog{
		Timestamp: time.Now(),
		Source:    source,
		ErrorMsg:  err.Error(),
	}
	if dbErr := r.repo.CreateErrorLog(errorLog); dbErr != nil {
		logging.Errorf("failed to store error in database: %v (original error: %v)", dbErr, err)
	}
}

// History returns sessions since the given time, oldest first.
func (r *Recorder) History(since time.Time) ([]*models.Session, error) {
	return r.repo.SessionsSince(since)
}

// Latest returns the most recent sessions, newest first.
func (r *Recorder) Latest(limit int) ([]*models.Session, error) {
	return r.repo.LatestSessions(limit)
}

// LoadState restores the persisted timer state. Returns ok=false when no
// snapshot has been saved yet.
func (r *Recorder) LoadState() (timer.State, bool, error) {
	snapshot, err := r.repo.LoadSnapshot(r.scope)
	if err != nil || snapshot == nil {
		return timer.State{}, false, err
	}
	return stateFromSnapshot(snapshot), true, nil
}

func sessionFromResult(result *timer.PhaseResult) *models.Session {
	return &models.Session{
		Phase:       string(result.Phase),
		StartedAt:   result.StartedAt,
		EndedAt:     result.EndedAt,
		Duration:    int64(result.Duration.Seconds()),
		Completed:   result.Completed,
		Interrupted: result.Interrupted,
	}
}

func snapshotFromState(scope string, state timer.State) *models.StateSnapshot {
	return &models.StateSnapshot{
		Scope:        scope,
		Phase:        string(state.Phase),
		Status:       string(state.Status),
		RemainingMS:  state.Remaining.Milliseconds(),
		TotalMS:      state.Total.Milliseconds(),
		SessionCount: state.SessionCount,
	}
}

func stateFromSnapshot(snapshot *models.StateSnapshot) timer.State {
	return timer.State{
		Phase:        timer.Phase(snapshot.Phase),
		Status:       timer.Status(snapshot.Status),
		Remaining:    time.Duration(snapshot.RemainingMS) * time.Millisecond,
		Total:        time.Duration(snapshot.TotalMS) * time.Millisecond,
		SessionCount: snapshot.SessionCount,
	}
}
