// Package broker is the single entry point between consumers and the
// timer engine: commands from any number of windows are serialized into
// the one engine instance, and every state change fans out to all
// subscribers. The engine itself stays consumer-agnostic.
package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kazari/kazarid/internal/clock"
	"github.com/kazari/kazarid/internal/timer"
)

// CommandType identifies a consumer command.
type CommandType string

const (
	CommandStart     CommandType = "start"
	CommandPause     CommandType = "pause"
	CommandReset     CommandType = "reset"
	CommandSkip      CommandType = "skip"
	CommandConfigure CommandType = "configure"
)

// Command is a consumer-issued request against the timer.
type Command struct {
	Type  CommandType  `json:"type"`
	Patch *timer.Patch `json:"patch,omitempty"`
}

// Broker owns the engine and the subscriber list.
type Broker struct {
	engine *timer.Engine

	dispatchMu sync.Mutex

	subMu  sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// New creates a broker around a fresh engine.
func New(cfg timer.Config, clk clock.Clock) (*Broker, error) {
	b := &Broker{subs: make(map[uint64]*Subscription)}
	engine, err := timer.New(cfg, clk, b.publish)
	if err != nil {
		return nil, err
	}
	b.engine = engine
	return b, nil
}

// Run drives the engine tick loop until the context is cancelled, then
// closes all subscriptions.
func (b *Broker) Run(ctx context.Context) {
	b.engine.Run(ctx)
	b.closeAll()
}

// Dispatch serializes a command into the engine and returns the
// resulting state. Command errors go back to the caller only; they are
// never broadcast.
func (b *Broker) Dispatch(cmd Command) (timer.State, error) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	switch cmd.Type {
	case CommandStart:
		return b.engine.Start()
	case CommandPause:
		return b.engine.Pause()
	case CommandReset:
		return b.engine.Reset(), nil
	case CommandSkip:
		return b.engine.Skip(), nil
	case CommandConfigure:
		if cmd.Patch == nil {
			return b.engine.Snapshot(), fmt.Errorf("%w: configure requires a patch", timer.ErrConfiguration)
		}
		return b.engine.Configure(*cmd.Patch)
	default:
		return b.engine.Snapshot(), fmt.Errorf("unknown command %q", cmd.Type)
	}
}

// Snapshot returns the current engine state.
func (b *Broker) Snapshot() timer.State {
	return b.engine.Snapshot()
}

// Config returns the active timer configuration.
func (b *Broker) Config() timer.Config {
	return b.engine.Config()
}

// Restore loads a persisted state into the engine. Call before Run.
func (b *Broker) Restore(s timer.State) error {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()
	return b.engine.Restore(s)
}

// Warn broadcasts an informational warning, e.g. persistence trouble.
func (b *Broker) Warn(message string) {
	b.publish(timer.Event{
		Type:    timer.EventWarning,
		State:   b.engine.Snapshot(),
		Message: message,
		At:      time.Now(),
	})
}

// Subscription is an explicit handle on an event feed. Cancel releases
// it; long-lived consumers must not rely on garbage collection.
type Subscription struct {
	id     uint64
	ch     chan timer.Event
	broker *Broker
	once   sync.Once
}

// Events returns the feed. The channel closes on Cancel or broker
// shutdown.
func (s *Subscription) Events() <-chan timer.Event {
	return s.ch
}

// Cancel unsubscribes and closes the feed. Safe to call twice.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.subMu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.subMu.Unlock()
		close(s.ch)
	})
}

// Subscribe registers a consumer feed. The current state is delivered as
// the first event, so a late joiner never observes stale-empty state.
func (b *Broker) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 16
	}

	sub := &Subscription{ch: make(chan timer.Event, buffer), broker: b}

	// Seed the feed before registering it, so the snapshot is always the
	// first event and never races a concurrent publish. Seeding under a
	// lock is not an option: publish runs inside the engine lock, and the
	// snapshot read needs that same lock.
	seeded := b.engine.Snapshot()
	sub.ch <- timer.Event{
		Type:  timer.EventStateChanged,
		State: seeded,
		At:    time.Now(),
	}

	b.subMu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	b.subMu.Unlock()

	// An event published between the seed and the registration was not
	// delivered. Re-read the state and refresh the feed if it moved, so a
	// joiner in that window converges now rather than on the next publish.
	if current := b.engine.Snapshot(); !stateEqual(current, seeded) {
		b.subMu.Lock()
		if _, registered := b.subs[sub.id]; registered {
			select {
			case sub.ch <- timer.Event{Type: timer.EventStateChanged, State: current, At: time.Now()}:
			default:
			}
		}
		b.subMu.Unlock()
	}
	return sub
}

// stateEqual compares the broadcastable fields; the occupancy timestamps
// are fresh pointers on every snapshot and carry no extra information.
func stateEqual(a, b timer.State) bool {
	return a.Phase == b.Phase &&
		a.Status == b.Status &&
		a.Remaining == b.Remaining &&
		a.Total == b.Total &&
		a.SessionCount == b.SessionCount
}

// publish fans an event out to every subscriber. Sends never block: a
// full feed drops its oldest event first, so a slow consumer loses
// intermediate updates but always converges on the latest state.
func (b *Broker) publish(event timer.Event) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- event:
			continue
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

func (b *Broker) closeAll() {
	b.subMu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subMu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}
