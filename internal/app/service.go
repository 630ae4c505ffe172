// Package service wires targets, the scoreboard, the hit pipeline and the
// score event bus into the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	workerpool "github.com/okian/bullseye/internal/adapters/mq/worker"
	repository "github.com/okian/bullseye/internal/adapters/repository"
	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/internal/domain/dedupe"
	"github.com/okian/bullseye/internal/domain/events"
	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/motion"
	"github.com/okian/bullseye/internal/domain/scoring"
	"github.com/okian/bullseye/internal/domain/types"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// Service implements the API dependencies for the shooting range.
type Service struct {
	mu sync.RWMutex

	// Core components
	scoreboard *repository.TreapStore
	deduper    dedupe.Deduper
	bus        *events.Bus
	pool       *workerpool.Pool
	targets    map[string]*scoring.Target

	motionMu sync.Mutex
	movers   map[string]*motion.Mover

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	ringSegments  int
	tickInterval  time.Duration
	anonymous     string
	targetConfigs []config.TargetConfig

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service. Components are created by Start; the event
// bus exists from the start so listeners can subscribe early.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     10_000,
		dedupeSize:    dedupe.DefaultMaxSize,
		ringSegments:  scoring.DefaultRingSegments,
		tickInterval:  20 * time.Millisecond,
		anonymous:     repository.DefaultAnonymousShooter,
		targetConfigs: config.DefaultTargets(),
		targets:       map[string]*scoring.Target{},
		movers:        map[string]*motion.Mover{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NamedOrNop("service")
	}
	s.bus = events.NewBus(s.logger.Named("events"))
	return s
}

// Start builds the targets and starts the worker pool and motion ticker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting range service...")

	s.scoreboard = repository.NewTreapStore(ctx, repository.WithAnonymousShooter(s.anonymous))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	targets := make(map[string]*scoring.Target, len(s.targetConfigs))
	movers := make(map[string]*motion.Mover)
	for i := range s.targetConfigs {
		tc := &s.targetConfigs[i]
		if _, dup := targets[tc.ID]; dup {
			_ = s.scoreboard.Close()
			return fmt.Errorf("%w: %s", ErrDuplicateTarget, tc.ID)
		}
		opts := append(tc.TargetOptions(),
			scoring.WithAccumulator(s.scoreboard),
			scoring.WithSink(s.bus),
			scoring.WithRingSegments(s.ringSegments),
			scoring.WithLogger(s.logger.Named("target")),
		)
		targets[tc.ID] = scoring.NewTarget(tc.ID, tc.ScoringConfig(), opts...)
		if tc.Motion != nil {
			movers[tc.ID] = motion.NewMover(tc.MotionConfig())
		}
	}
	s.targets = targets
	s.motionMu.Lock()
	s.movers = movers
	s.motionMu.Unlock()
	metrics.UpdateTargetCount(len(targets))

	s.pool = workerpool.NewPool(s.workerCount, s.queueSize, workerpool.ResolverFunc(s.Resolve),
		workerpool.WithPoolLogger(s.logger.Named("worker-pool")),
	)
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	if len(movers) > 0 {
		s.wg.Add(1)
		go s.runMotion(ctx, s.stopCh)
	}

	s.started = true
	s.logger.Info(ctx, "range service started",
		logger.Int("targets", len(targets)),
		logger.Int("moving", len(movers)),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued hits and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	pool, board := s.pool, s.scoreboard
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping range service...")

	s.wg.Wait()
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	_ = board.Close()

	s.logger.Info(ctx, "range service stopped")
}

func (s *Service) runMotion(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case now := <-ticker.C:
			s.advance(now.Sub(last).Seconds())
			last = now
		}
	}
}

// advance moves every moving target by dt seconds.
func (s *Service) advance(dt float64) {
	s.motionMu.Lock()
	defer s.motionMu.Unlock()

	for id, m := range s.movers {
		t, ok := s.lookup(id)
		if !ok {
			continue
		}
		t.MoveTo(m.Step(t.Position(), dt))
		metrics.RecordTargetMoved()
	}
}

// ToggleMotion switches a moving target between horizontal and vertical
// travel and returns the new axis.
func (s *Service) ToggleMotion(ctx context.Context, targetID string) (motion.Axis, error) {
	s.motionMu.Lock()
	defer s.motionMu.Unlock()

	m, ok := s.movers[targetID]
	if !ok {
		if _, exists := s.lookup(targetID); exists {
			return "", fmt.Errorf("%w: %s", ErrNotMoving, targetID)
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, targetID)
	}
	m.Toggle()
	s.logger.Info(ctx, "target motion toggled", logger.String("target", targetID), logger.String("axis", string(m.Axis())))
	return m.Axis(), nil
}

func (s *Service) lookup(id string) (*scoring.Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[id]
	return t, ok
}

// Resolve finds the target a worker should hand a hit to.
func (s *Service) Resolve(targetID string) (workerpool.Handler, bool) {
	t, ok := s.lookup(targetID)
	if !ok {
		return nil, false
	}
	return t, true
}

// SeenAndRecord atomically checks if a hit id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	d := s.dedupe()
	if d == nil {
		return false
	}
	seen := d.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordHitDuplicate()
	}
	return seen
}

// Unrecord removes a hit id from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if d := s.dedupe(); d != nil {
		d.Unrecord(ctx, id)
	}
}

// Size returns the current number of remembered hit ids.
func (s *Service) Size() int64 {
	if d := s.dedupe(); d != nil {
		return d.Size()
	}
	return 0
}

func (s *Service) dedupe() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

// Enqueue submits a hit for asynchronous scoring. It fails with
// ErrUnknownTarget for targets not on the range and with the queue's
// backpressure error when the owning worker is saturated.
func (s *Service) Enqueue(ctx context.Context, n *model.HitNotification) error {
	s.mu.RLock()
	started, pool := s.started, s.pool
	_, known := s.targets[n.TargetID]
	s.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}
	if !known {
		metrics.RecordHitDropped(n.TargetID, "unknown_target")
		return fmt.Errorf("%w: %s", ErrUnknownTarget, n.TargetID)
	}
	if n.HitID == "" {
		n.HitID = model.NewHitID()
	}
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = time.Now()
	}

	s.logger.Debug(ctx, "enqueueing hit",
		logger.String("hit_id", n.HitID),
		logger.String("target", n.TargetID),
		logger.String("kind", string(n.Kind)),
		logger.String("source", n.SourceID()),
	)
	return pool.Submit(ctx, n)
}

// Targets returns every target ordered by id.
func (s *Service) Targets(_ context.Context) []scoring.Snapshot {
	s.mu.RLock()
	list := make([]*scoring.Target, 0, len(s.targets))
	for _, t := range s.targets {
		list = append(list, t)
	}
	s.mu.RUnlock()

	out := make([]scoring.Snapshot, len(list))
	for i, t := range list {
		out[i] = t.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Target returns one target.
func (s *Service) Target(_ context.Context, id string) (scoring.Snapshot, error) {
	t, ok := s.lookup(id)
	if !ok {
		return scoring.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return t.Snapshot(), nil
}

// Outlines returns the world-space ring polylines of a target.
func (s *Service) Outlines(_ context.Context, id string) ([][]geometry.Point3, error) {
	t, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return t.Outlines(), nil
}

// Reconfigure applies new scoring parameters to a target.
func (s *Service) Reconfigure(ctx context.Context, id string, cfg scoring.Config) (scoring.Snapshot, error) {
	t, ok := s.lookup(id)
	if !ok {
		return scoring.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	eff := t.Reconfigure(cfg)
	metrics.RecordTargetReconfigured(id)
	s.logger.Info(ctx, "target reconfigured",
		logger.String("target", id),
		logger.Float64("radius", eff.ScoringRadius),
		logger.Float64("falloff", eff.FalloffExponent),
		logger.Bool("rings", eff.RingMode()),
	)
	return t.Snapshot(), nil
}

func (s *Service) board() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.scoreboard == nil {
		return nil, ErrNotStarted
	}
	return s.scoreboard, nil
}

// TopN returns the top N scoreboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	b, err := s.board()
	if err != nil {
		return nil, err
	}
	entries, err := b.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	apiEntries := make([]types.Entry, len(entries))
	for i, e := range entries {
		apiEntries[i] = toAPI(e)
	}
	return apiEntries, nil
}

// Rank returns the rank and total for a shooter.
func (s *Service) Rank(ctx context.Context, shooterID string) (types.Entry, error) {
	b, err := s.board()
	if err != nil {
		return types.Entry{}, err
	}
	e, err := b.Rank(ctx, shooterID)
	if err != nil {
		return types.Entry{}, err
	}
	return toAPI(e), nil
}

// Total returns the sum of every shooter's points.
func (s *Service) Total(ctx context.Context) (int64, error) {
	b, err := s.board()
	if err != nil {
		return 0, err
	}
	return b.Total(ctx), nil
}

// ResetScoreboard clears every shooter's total.
func (s *Service) ResetScoreboard(ctx context.Context) error {
	b, err := s.board()
	if err != nil {
		return err
	}
	b.Reset(ctx)
	s.logger.Info(ctx, "scoreboard reset")
	return nil
}

func toAPI(e repository.Entry) types.Entry {
	return types.Entry{Rank: e.Rank, ShooterID: e.ShooterID, Total: e.Total, Hits: e.Hits}
}

// Subscribe registers a score listener.
func (s *Service) Subscribe(l events.Listener) (unsubscribe func()) {
	return s.bus.Subscribe(l)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"targets":     len(s.targets),
		"listeners":   s.bus.Len(),
	}

	if s.started {
		ps := s.pool.Stats()
		stats["queueLength"] = ps.QueueDepth
		stats["processed"] = ps.Processed
		stats["dropped"] = ps.Dropped
		stats["shooters"] = s.scoreboard.Count(ctx)
		stats["totalPoints"] = s.scoreboard.Total(ctx)
		stats["seenHits"] = s.deduper.Size()

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		metrics.UpdateQueueSize(ps.QueueDepth)
	}

	return stats
}
