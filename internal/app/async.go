// Package app holds the application services and business logic.
package app

import (
	"context"
	"sync"
	"time"
)

// Delayer is the simulated-latency boundary for asynchronous store
// operations. Tests inject an instant implementation instead of waiting on
// real timers.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

type timerDelayer struct{}

func (timerDelayer) Delay(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewTimerDelayer returns a Delayer backed by real timers.
func NewTimerDelayer() Delayer { return timerDelayer{} }

// NoDelay is a Delayer that completes immediately. Intended for tests.
type NoDelay struct{}

// Delay completes immediately, still honoring a cancelled context.
func (NoDelay) Delay(ctx context.Context, d time.Duration) error { return ctx.Err() }

// notifier implements the subscribe/notify mechanism shared by the stores.
// Listeners run outside any store lock, so they may call back into the store.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// subscribe registers fn and returns a function that removes it again.
func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
