// Package events fans score events out to independent listeners.
package events

import (
	"context"
	"sync"

	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// Listener receives score events.
type Listener interface {
	OnScore(ctx context.Context, ev model.ScoreEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev model.ScoreEvent)

// OnScore calls f.
func (f ListenerFunc) OnScore(ctx context.Context, ev model.ScoreEvent) { f(ctx, ev) }

type subscription struct {
	id       uint64
	listener Listener
}

// Bus is a synchronous multi-subscriber sink. Listeners are called in
// subscription order on the publisher's goroutine; a panicking listener is
// logged and skipped.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger logger.Logger
}

// NewBus creates an empty bus.
func NewBus(l logger.Logger) *Bus {
	if l == nil {
		l = logger.NamedOrNop("events")
	}
	return &Bus{logger: l}
}

// Subscribe registers l and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, listener: l})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					// copy so snapshots held by in-flight publishes stay valid
					next := make([]subscription, 0, len(b.subs)-1)
					next = append(next, b.subs[:i]...)
					b.subs = append(next, b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Len returns the number of listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers ev to every current listener.
func (b *Bus) Publish(ctx context.Context, ev model.ScoreEvent) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s.listener, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, l Listener, ev model.ScoreEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("events", "listener_panic")
			b.logger.Error(ctx, "score listener panicked",
				logger.String("hit_id", ev.HitID),
				logger.Any("panic", r),
			)
		}
	}()
	l.OnScore(ctx, ev)
}
