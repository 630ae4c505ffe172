// Package queue buffers hit notifications between the API and the workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Hit is the payload flowing through the queue.
type Hit = *model.HitNotification

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a hit without blocking. It fails with ErrQueueFull when
	// the queue is at capacity and ErrQueueClosed after Close.
	Enqueue(ctx context.Context, h Hit) error

	// Dequeue returns the channel hits are delivered on, in enqueue order.
	// The channel is closed by Close once drained.
	Dequeue() <-chan Hit

	// Len returns the current number of queued hits.
	Len() int

	// Cap returns the configured capacity.
	Cap() int

	// Close stops accepting hits.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	hits     chan Hit
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.hits = make(chan Hit, q.capacity)
	return q
}

// Enqueue adds a hit to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, h Hit) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return err
	}

	select {
	case q.hits <- h:
		metrics.RecordQueueEnqueue()
		return nil
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Hit {
	return q.hits
}

// Len returns the current number of queued hits.
func (q *InMemoryQueue) Len() int {
	return len(q.hits)
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close stops accepting hits. Hits already queued remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.hits)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
