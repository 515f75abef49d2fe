package idle

import (
	"context"
	"errors"
	"time"

	"github.com/kazari/kazarid/internal/broker"
	"github.com/kazari/kazarid/internal/config"
	"github.com/kazari/kazarid/internal/logging"
	"github.com/kazari/kazarid/internal/timer"
)

// Watcher polls the checker and pauses a running focus phase once the
// user has been idle past the threshold. It acts through the broker like
// any other consumer; it holds no timer state of its own.
type Watcher struct {
	cfg     config.IdleConfig
	broker  *broker.Broker
	checker Checker

	pausedByIdle bool
}

func NewWatcher(cfg config.IdleConfig, b *broker.Broker, checker Checker) *Watcher {
	return &Watcher{cfg: cfg, broker: b, checker: checker}
}

// Run polls until the context is cancelled. An unsupported checker shuts
// the watcher down quietly; the timer keeps working without it.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.poll() {
				return
			}
		}
	}
}

func (w *Watcher) poll() bool {
	idleFor, err := w.checker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			logging.Infof("idle detection unavailable, watcher disabled")
			return false
		}
		logging.Warnf("idle check failed: %v", err)
		return true
	}

	if w.pausedByIdle {
		// Activity ends the idle episode either way; the flag must clear
		// even without auto-resume, or the watcher never pauses again.
		if idleFor < w.cfg.Threshold {
			w.pausedByIdle = false
			if w.cfg.AutoResume {
				if _, err := w.broker.Dispatch(broker.Command{Type: broker.CommandStart}); err == nil {
					logging.Infof("user back after idle, focus resumed")
				}
			}
		}
		return true
	}

	if idleFor < w.cfg.Threshold {
		return true
	}

	snapshot := w.broker.Snapshot()
	if snapshot.Status != timer.StatusRunning || snapshot.Phase != timer.PhaseFocus {
		return true
	}

	if _, err := w.broker.Dispatch(broker.Command{Type: broker.CommandPause}); err != nil {
		logging.Warnf("idle pause failed: %v", err)
		return true
	}
	w.pausedByIdle = true
	w.broker.Warn("focus paused: user idle")
	logging.Infof("user idle for %v, focus paused", idleFor.Round(time.Second))
	return true
}
