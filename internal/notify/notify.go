// Package notify fires a desktop alert when the timer changes phase.
// Display is entirely the desktop's responsibility; the core only emits.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/kazari/kazarid/internal/logging"
	"github.com/kazari/kazarid/internal/timer"
)

// Notifier delivers a single alert. Failures are logged, never
// propagated; a missed notification must not disturb the timer.
type Notifier interface {
	Notify(title, body string) error
}

type desktopNotifier struct {
	sendPath string
}

type logNotifier struct{}

// New returns a desktop notifier when notify-send is available, and a
// log-only notifier otherwise.
func New() Notifier {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		logging.Debugf("notify-send not found, falling back to log notifications")
		return logNotifier{}
	}
	return &desktopNotifier{sendPath: path}
}

func (n *desktopNotifier) Notify(title, body string) error {
	cmd := exec.Command(n.sendPath, "--app-name=kazari", title, body)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

func (logNotifier) Notify(title, body string) error {
	logging.Infof("notification: %s - %s", title, body)
	return nil
}

// Watcher turns phase-change events into notifications.
type Watcher struct {
	notifier Notifier
}

func NewWatcher(notifier Notifier) *Watcher {
	return &Watcher{notifier: notifier}
}

// Run consumes events until the channel closes or the context is
// cancelled.
func (w *Watcher) Run(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type != timer.EventPhaseChanged {
				continue
			}
			title, body := message(event)
			if err := w.notifier.Notify(title, body); err != nil {
				logging.Warnf("notification failed: %v", err)
			}
		}
	}
}

func message(event timer.Event) (title, body string) {
	switch event.To {
	case timer.PhaseFocus:
		return "Focus time", "Break is over, back to work."
	case timer.PhaseBreak:
		return "Break time", fmt.Sprintf("Take %s off.", event.State.Total.Round(time.Second))
	default:
		return "Planning", "Plan your next session."
	}
}
