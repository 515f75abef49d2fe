package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kazari/kazarid/internal/clock"
	"github.com/kazari/kazarid/internal/timer"
)

func brokerTestConfig() timer.Config {
	cfg := timer.DefaultConfig()
	cfg.PlanningDuration = time.Minute
	cfg.FocusDuration = 2 * time.Minute
	cfg.BreakDuration = time.Minute
	cfg.TickInterval = 10 * time.Second
	cfg.DriftThreshold = 30 * time.Second
	return cfg
}

func newTestBroker(t *testing.T) (*Broker, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	b, err := New(brokerTestConfig(), clk)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, clk
}

func TestSubscribeDeliversSnapshotFirst(t *testing.T) {
	b, _ := newTestBroker(t)

	// State moves before anyone subscribes.
	if _, err := b.Dispatch(Command{Type: CommandStart}); err != nil {
		t.Fatalf("Dispatch(start) error = %v", err)
	}

	sub := b.Subscribe(8)
	defer sub.Cancel()

	select {
	case ev := <-sub.Events():
		if ev.Type != timer.EventStateChanged {
			t.Errorf("first event type = %s, want %s", ev.Type, timer.EventStateChanged)
		}
		if ev.State.Status != timer.StatusRunning {
			t.Errorf("first event status = %s, want %s", ev.State.Status, timer.StatusRunning)
		}
	default:
		t.Fatal("no snapshot event waiting for a late joiner")
	}
}

func TestDispatchBroadcastsToAllSubscribers(t *testing.T) {
	b, _ := newTestBroker(t)

	first := b.Subscribe(8)
	defer first.Cancel()
	second := b.Subscribe(8)
	defer second.Cancel()

	<-first.Events() // discard the seeded snapshots
	<-second.Events()

	if _, err := b.Dispatch(Command{Type: CommandStart}); err != nil {
		t.Fatalf("Dispatch(start) error = %v", err)
	}

	for i, sub := range []*Subscription{first, second} {
		select {
		case ev := <-sub.Events():
			if ev.State.Status != timer.StatusRunning {
				t.Errorf("subscriber %d: status = %s, want %s", i, ev.State.Status, timer.StatusRunning)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestDispatchErrorsAreNotBroadcast(t *testing.T) {
	b, _ := newTestBroker(t)

	sub := b.Subscribe(8)
	defer sub.Cancel()
	<-sub.Events()

	if _, err := b.Dispatch(Command{Type: CommandPause}); !errors.Is(err, timer.ErrInvalidTransition) {
		t.Fatalf("Dispatch(pause) error = %v, want ErrInvalidTransition", err)
	}

	select {
	case ev := <-sub.Events():
		t.Errorf("rejected command leaked an event: %+v", ev)
	default:
	}
}

func TestDispatchConfigure(t *testing.T) {
	b, _ := newTestBroker(t)

	if _, err := b.Dispatch(Command{Type: CommandConfigure}); !errors.Is(err, timer.ErrConfiguration) {
		t.Errorf("Dispatch(configure) without patch error = %v, want ErrConfiguration", err)
	}

	focus := 45 * time.Minute
	if _, err := b.Dispatch(Command{Type: CommandConfigure, Patch: &timer.Patch{FocusDuration: &focus}}); err != nil {
		t.Fatalf("Dispatch(configure) error = %v", err)
	}
	if got := b.Config().FocusDuration; got != focus {
		t.Errorf("FocusDuration = %v, want %v", got, focus)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	b, _ := newTestBroker(t)

	if _, err := b.Dispatch(Command{Type: "rewind"}); err == nil {
		t.Error("Dispatch(rewind) succeeded, want error")
	}
}

func TestSlowSubscriberConvergesOnLatestState(t *testing.T) {
	b, _ := newTestBroker(t)

	sub := b.Subscribe(1)
	defer sub.Cancel()

	// A burst of commands against a full buffer of one.
	commands := []CommandType{CommandStart, CommandPause, CommandStart, CommandSkip}
	for _, cmd := range commands {
		if _, err := b.Dispatch(Command{Type: cmd}); err != nil {
			t.Fatalf("Dispatch(%s) error = %v", cmd, err)
		}
	}

	var last timer.Event
	got := 0
	for {
		select {
		case ev := <-sub.Events():
			last = ev
			got++
			continue
		default:
		}
		break
	}
	if got != 1 {
		t.Errorf("buffered %d events, want 1 (drop-oldest)", got)
	}
	if last.State.Phase != b.Snapshot().Phase || last.State.Status != b.Snapshot().Status {
		t.Errorf("last event state %+v does not match snapshot %+v", last.State, b.Snapshot())
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	b, _ := newTestBroker(t)

	sub := b.Subscribe(4)
	sub.Cancel()
	sub.Cancel()

	// The seeded snapshot may still sit in the buffer; past it, the
	// channel must report closed.
	for i := 0; ; i++ {
		if _, ok := <-sub.Events(); !ok {
			break
		}
		if i > 4 {
			t.Fatal("events channel still open after Cancel")
		}
	}

	// Publishing after cancel must not panic on the closed channel.
	if _, err := b.Dispatch(Command{Type: CommandStart}); err != nil {
		t.Fatalf("Dispatch(start) error = %v", err)
	}
}

func TestRunClosesSubscriptionsOnShutdown(t *testing.T) {
	b, _ := newTestBroker(t)

	sub := b.Subscribe(4)
	<-sub.Events()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	for {
		if _, ok := <-sub.Events(); !ok {
			return
		}
	}
}

func TestConcurrentDispatchKeepsStateConsistent(t *testing.T) {
	b, _ := newTestBroker(t)

	var wg sync.WaitGroup
	commands := []CommandType{CommandStart, CommandPause, CommandReset, CommandSkip}
	for i := 0; i < 40; i++ {
		cmd := commands[i%len(commands)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Pause legitimately fails when the timer is not running.
			_, _ = b.Dispatch(Command{Type: cmd})
		}()
	}
	wg.Wait()

	s := b.Snapshot()
	if !s.Phase.Valid() || !s.Status.Valid() {
		t.Errorf("inconsistent state after concurrent dispatch: %+v", s)
	}
	if s.Remaining < 0 || s.Remaining > s.Total {
		t.Errorf("remaining %v outside [0, %v]", s.Remaining, s.Total)
	}
}

func TestJoinDuringCommandBurstConverges(t *testing.T) {
	b, _ := newTestBroker(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		commands := []CommandType{CommandStart, CommandSkip, CommandReset}
		for i := 0; i < 30; i++ {
			// Some commands legitimately fail depending on interleaving.
			_, _ = b.Dispatch(Command{Type: commands[i%len(commands)]})
		}
	}()

	var subs []*Subscription
	for i := 0; i < 10; i++ {
		subs = append(subs, b.Subscribe(64))
	}
	<-done

	final := b.Snapshot()
	for i, sub := range subs {
		var last timer.Event
		drained := false
		for {
			select {
			case ev := <-sub.Events():
				last = ev
				drained = true
				continue
			default:
			}
			break
		}
		if !drained {
			t.Errorf("subscriber %d received nothing", i)
			continue
		}
		if last.State.Phase != final.Phase || last.State.Status != final.Status ||
			last.State.SessionCount != final.SessionCount {
			t.Errorf("subscriber %d last state %+v, want %+v", i, last.State, final)
		}
		sub.Cancel()
	}
}

func TestWarnReachesSubscribers(t *testing.T) {
	b, _ := newTestBroker(t)

	sub := b.Subscribe(4)
	defer sub.Cancel()
	<-sub.Events()

	b.Warn("disk is grumpy")

	select {
	case ev := <-sub.Events():
		if ev.Type != timer.EventWarning {
			t.Errorf("event type = %s, want %s", ev.Type, timer.EventWarning)
		}
		if ev.Message != "disk is grumpy" {
			t.Errorf("message = %q", ev.Message)
		}
	default:
		t.Error("warning not delivered")
	}
}
