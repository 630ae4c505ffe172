// Package worker drains hit queues and hands each hit to its target.
//
// Every target is owned by exactly one worker: Pool routes a hit by the
// FNV-1a hash of its target id, so hits on one target are scored in the
// order they were submitted while different targets proceed in parallel.
package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Handler scores one hit. *scoring.Target implements it.
type Handler interface {
	Handle(ctx context.Context, n *model.HitNotification) (model.ScoreResult, bool)
}

// Resolver finds the handler for a target id.
type Resolver interface {
	Resolve(targetID string) (Handler, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(targetID string) (Handler, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(targetID string) (Handler, bool) { return f(targetID) }

// Queue defines how workers receive hits.
type Queue interface {
	Dequeue() <-chan queue.Hit
}

// Worker processes hits from a single queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called or
	// the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	resolver Resolver
	name     string

	processed atomic.Int64
	dropped   atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, resolver Resolver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		resolver: resolver,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.NamedOrNop("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	hits := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case h, ok := <-hits:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, h); err != nil {
				w.logger.Warn(ctx, "hit not scored", logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of hits that produced a score.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Dropped returns the number of hits that did not.
func (w *InMemoryWorker) Dropped() int64 { return w.dropped.Load() }

func (w *InMemoryWorker) process(ctx context.Context, h queue.Hit) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if r := recover(); r != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "panic")
			w.dropped.Add(1)
			err = fmt.Errorf("hit %s: handler panicked: %v", h.HitID, r)
		}
	}()

	handler, ok := w.resolver.Resolve(h.TargetID)
	if !ok {
		metrics.RecordWorkerError()
		metrics.RecordHitDropped(h.TargetID, "unknown_target")
		w.dropped.Add(1)
		return fmt.Errorf("hit %s: %w: %s", h.HitID, ErrUnknownTarget, h.TargetID)
	}

	if _, scored := handler.Handle(ctx, h); !scored {
		w.dropped.Add(1)
		return nil
	}
	w.processed.Add(1)
	return nil
}

// Stats summarizes a pool.
type Stats struct {
	Workers    int   `json:"workers"`
	QueueDepth int   `json:"queue_depth"`
	QueueCap   int   `json:"queue_capacity"`
	Processed  int64 `json:"processed"`
	Dropped    int64 `json:"dropped"`
}

// Pool runs one worker per queue and routes hits by target.
type Pool struct {
	workers []*InMemoryWorker
	queues  []*queue.InMemoryQueue

	metricsInterval time.Duration
	shutdown        chan struct{}
	logger          logger.Logger
}

// NewPool creates workerCount workers sharing queueSize slots evenly.
// workerCount < 1 uses runtime.NumCPU().
func NewPool(workerCount, queueSize int, resolver Resolver, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	perQueue := queueSize / workerCount
	if perQueue < 1 {
		perQueue = 1
	}

	p := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queues:          make([]*queue.InMemoryQueue, workerCount),
		metricsInterval: 5 * time.Second,
		shutdown:        make(chan struct{}),
		logger:          logger.NamedOrNop("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range p.workers {
		p.queues[i] = queue.NewInMemoryQueue(queue.WithCapacity(perQueue))
		p.workers[i] = NewInMemoryWorker(p.queues[i], resolver,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateQueueCapacity(perQueue * workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.runMetricsUpdater(ctx)
}

// Submit routes h to the worker owning its target.
func (p *Pool) Submit(ctx context.Context, h *model.HitNotification) error {
	return p.queues[p.shard(h.TargetID)].Enqueue(ctx, h)
}

func (p *Pool) shard(targetID string) int {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(targetID))
	return int(hasher.Sum32() % uint32(len(p.queues)))
}

// Stats returns a point-in-time summary.
func (p *Pool) Stats() Stats {
	s := Stats{Workers: len(p.workers)}
	for i, w := range p.workers {
		s.QueueDepth += p.queues[i].Len()
		s.QueueCap += p.queues[i].Cap()
		s.Processed += w.Processed()
		s.Dropped += w.Dropped()
	}
	return s
}

func (p *Pool) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(p.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	s := p.Stats()
	metrics.UpdateQueueSize(s.QueueDepth)
	if s.QueueCap > 0 {
		metrics.UpdateQueueUtilization(float64(s.QueueDepth) / float64(s.QueueCap))
	}
}

// Shutdown closes every queue and waits for the workers to drain them.
func (p *Pool) Shutdown(ctx context.Context) error {
	select {
	case <-p.shutdown:
		return nil
	default:
		close(p.shutdown)
	}

	for _, q := range p.queues {
		_ = q.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			stopCtx, stop := context.WithTimeout(context.Background(), workerShutdownTimeout)
			_ = w.Shutdown(stopCtx)
			stop()
		}
	}
	p.updateMetrics()
	return nil
}
