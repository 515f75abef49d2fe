package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kazari/kazarid/internal/timer"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeNotifier) Notify(title, body string) error {
	f.mu.Lock()
	f.calls = append(f.calls, title+": "+body)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestWatcherNotifiesOnPhaseChange(t *testing.T) {
	notifier := &fakeNotifier{}
	w := NewWatcher(notifier)

	events := make(chan timer.Event, 4)
	events <- timer.Event{Type: timer.EventStateChanged}
	events <- timer.Event{
		Type: timer.EventPhaseChanged,
		From: timer.PhaseFocus,
		To:   timer.PhaseBreak,
		State: timer.State{
			Phase: timer.PhaseBreak,
			Total: 5 * time.Minute,
		},
	}
	events <- timer.Event{Type: timer.EventWarning, Message: "noise"}
	close(events)

	w.Run(context.Background(), events)

	calls := notifier.all()
	if len(calls) != 1 {
		t.Fatalf("got %d notifications, want 1", len(calls))
	}
	if !strings.HasPrefix(calls[0], "Break time") {
		t.Errorf("notification = %q, want break announcement", calls[0])
	}
	if !strings.Contains(calls[0], "5m0s") {
		t.Errorf("notification = %q, want the break length", calls[0])
	}
}

func TestMessagePerPhase(t *testing.T) {
	tests := []struct {
		to        timer.Phase
		wantTitle string
	}{
		{timer.PhaseFocus, "Focus time"},
		{timer.PhaseBreak, "Break time"},
		{timer.PhasePlanning, "Planning"},
	}

	for _, tt := range tests {
		title, body := message(timer.Event{To: tt.to, State: timer.State{Total: time.Minute}})
		if title != tt.wantTitle {
			t.Errorf("message(to=%s) title = %q, want %q", tt.to, title, tt.wantTitle)
		}
		if body == "" {
			t.Errorf("message(to=%s) body is empty", tt.to)
		}
	}
}
