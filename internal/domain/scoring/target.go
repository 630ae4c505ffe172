package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

//go:generate go tool mockgen -destination=./mocks/accumulator_mock.go -package=mocks . Accumulator

// Accumulator receives awarded points. The scoreboard implements it.
type Accumulator interface {
	// AddScore adds amount to shooterID's running total and returns the new total.
	AddScore(ctx context.Context, shooterID string, amount int) (int64, error)
}

// Sink receives a ScoreEvent for every processed hit. Implementations fan
// out to any number of listeners.
type Sink interface {
	Publish(ctx context.Context, ev model.ScoreEvent)
}

// Drop reasons reported in metrics and logs.
const (
	DropNoContacts  = "no_contacts"
	DropNoGeometry  = "no_geometry"
	DropUnknownKind = "unknown_kind"
)

// Target is a scoring target: a collider placed in the world plus its
// scoring configuration and derived ring layout.
//
// Hits on one target must be delivered sequentially; configuration changes
// may race with hits and are serialized by the target's lock.
type Target struct {
	mu sync.RWMutex

	id        string
	collider  geometry.Shape
	transform geometry.Transform
	// explicit scoring centre; nil tracks the transform position
	center *geometry.Point3

	cfg          Config
	autoRadius   bool
	fallback     bool
	showRings    bool
	ringSegments int
	layout       RingLayout

	accumulator Accumulator
	sink        Sink
	logger      logger.Logger
	now         func() time.Time
}

// Option configures a Target.
type Option func(*Target)

// WithCollider sets the target's own collider.
func WithCollider(shape geometry.Shape) Option {
	return func(t *Target) {
		if shape != nil {
			t.collider = shape
		}
	}
}

// WithTransform places the target in the world.
func WithTransform(tr geometry.Transform) Option {
	return func(t *Target) { t.transform = tr }
}

// WithCenter pins the scoring centre to a world point instead of the
// target position.
func WithCenter(p geometry.Point3) Option {
	return func(t *Target) { t.center = &p }
}

// WithAutoRadius derives ScoringRadius from the collider on every
// Reconfigure. Enabled by default.
func WithAutoRadius(enabled bool) Option {
	return func(t *Target) { t.autoRadius = enabled }
}

// WithFallbackToClosestPoint scores contact-less collisions at the closest
// point of the striking geometry. Enabled by default.
func WithFallbackToClosestPoint(enabled bool) Option {
	return func(t *Target) { t.fallback = enabled }
}

// WithShowRings toggles ring outlines for visualization.
func WithShowRings(enabled bool) Option {
	return func(t *Target) { t.showRings = enabled }
}

// WithRingSegments sets the number of points per ring outline.
func WithRingSegments(n int) Option {
	return func(t *Target) {
		if n >= 3 {
			t.ringSegments = n
		}
	}
}

// WithAccumulator binds the scoreboard.
func WithAccumulator(a Accumulator) Option {
	return func(t *Target) { t.accumulator = a }
}

// WithSink binds the score event sink.
func WithSink(s Sink) Option {
	return func(t *Target) { t.sink = s }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Target) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Target) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTarget builds a target and applies cfg through Reconfigure.
func NewTarget(id string, cfg Config, opts ...Option) *Target {
	t := &Target{
		id:           id,
		transform:    geometry.Identity(),
		autoRadius:   true,
		fallback:     true,
		showRings:    true,
		ringSegments: DefaultRingSegments,
		logger:       logger.NamedOrNop("target"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Reconfigure(cfg)
	return t
}

// ID returns the target identifier.
func (t *Target) ID() string { return t.id }

// Reconfigure replaces the scoring configuration, re-derives the radius when
// auto radius is on, and rebuilds the ring layout. It returns the effective
// configuration.
func (t *Target) Reconfigure(cfg Config) Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reconfigureLocked(cfg)
}

func (t *Target) reconfigureLocked(cfg Config) Config {
	cfg = cfg.Clone()
	if cfg.CenterOrigin != nil {
		p := *cfg.CenterOrigin
		t.center = &p
	}
	cfg.CenterOrigin = nil

	if cfg.FalloffExponent < MinFalloffExponent {
		cfg.FalloffExponent = MinFalloffExponent
	}
	if cfg.FalloffExponent > MaxFalloffExponent {
		cfg.FalloffExponent = MaxFalloffExponent
	}

	if t.autoRadius && t.collider != nil {
		cfg.ScoringRadius = geometry.DeriveRadius(t.collider, t.transform)
	}
	if !(cfg.ScoringRadius > 0) {
		t.logger.Warn(context.Background(), "scoring radius not positive; applying floor",
			logger.String("target", t.id),
			logger.Float64("radius", cfg.ScoringRadius),
		)
		cfg.ScoringRadius = geometry.MinRadius
	}

	t.cfg = cfg
	t.layout = ComputeRingLayout(cfg)
	return t.effectiveLocked()
}

// SetTransform moves the target, keeps a pinned centre attached to it, and
// re-derives radius and layout.
func (t *Target) SetTransform(tr geometry.Transform) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shiftCenterLocked(tr.Position.Sub(t.transform.Position))
	t.transform = tr
	t.reconfigureLocked(t.cfg)
}

// MoveTo translates the target to position. Rotation, scale and therefore
// radius and layout are unchanged.
func (t *Target) MoveTo(position geometry.Point3) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shiftCenterLocked(position.Sub(t.transform.Position))
	t.transform.Position = position
}

func (t *Target) shiftCenterLocked(delta mgl64.Vec3) {
	if t.center != nil {
		moved := t.center.Add(delta)
		t.center = &moved
	}
}

// Position returns the target position.
func (t *Target) Position() geometry.Point3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.transform.Position
}

// Center returns the world-space scoring centre.
func (t *Target) Center() geometry.Point3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.centerLocked()
}

func (t *Target) centerLocked() geometry.Point3 {
	if t.center != nil {
		return *t.center
	}
	return t.transform.Position
}

// Config returns the effective configuration with CenterOrigin resolved.
func (t *Target) Config() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.effectiveLocked()
}

func (t *Target) effectiveLocked() Config {
	cfg := t.cfg.Clone()
	c := t.centerLocked()
	cfg.CenterOrigin = &c
	return cfg
}

// Layout returns the current ring layout.
func (t *Target) Layout() RingLayout {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append(RingLayout(nil), t.layout...)
}

// Outlines returns one world-space polyline per ring, or nil when rings are
// hidden.
func (t *Target) Outlines() [][]geometry.Point3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.showRings {
		return nil
	}
	center := t.centerLocked()
	rot := t.transform.Orientation()
	out := make([][]geometry.Point3, len(t.layout))
	for i, r := range t.layout {
		out[i] = Outline(center, rot, r.Radius, t.ringSegments)
	}
	return out
}

// Snapshot is a read-only view of a target for APIs.
type Snapshot struct {
	ID            string          `json:"id"`
	Kind          geometry.Kind   `json:"collider"`
	Position      geometry.Point3 `json:"position"`
	Center        geometry.Point3 `json:"center"`
	MaxScore      float64         `json:"max_score"`
	ScoringRadius float64         `json:"scoring_radius"`
	Falloff       float64         `json:"falloff_exponent"`
	UseRingScores bool            `json:"use_ring_scores"`
	RingScores    []float64       `json:"ring_scores,omitempty"`
	AutoRadius    bool            `json:"auto_radius"`
	Fallback      bool            `json:"fallback_to_closest_point"`
	ShowRings     bool            `json:"show_rings"`
	Rings         RingLayout      `json:"rings"`
}

// Snapshot returns the target state.
func (t *Target) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var kind geometry.Kind
	if t.collider != nil {
		kind = t.collider.Kind()
	}
	return Snapshot{
		ID:            t.id,
		Kind:          kind,
		Position:      t.transform.Position,
		Center:        t.centerLocked(),
		MaxScore:      t.cfg.MaxScore,
		ScoringRadius: t.cfg.ScoringRadius,
		Falloff:       t.cfg.FalloffExponent,
		UseRingScores: t.cfg.UseRingScores,
		RingScores:    append([]float64(nil), t.cfg.RingScores...),
		AutoRadius:    t.autoRadius,
		Fallback:      t.fallback,
		ShowRings:     t.showRings,
		Rings:         append(RingLayout(nil), t.layout...),
	}
}

// frame is the target state a single hit is resolved and scored against.
type frame struct {
	center   geometry.Point3
	cfg      Config
	fallback bool
	sink     Sink
	acc      Accumulator
}

func (t *Target) frame() frame {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return frame{
		center:   t.centerLocked(),
		cfg:      t.effectiveLocked(),
		fallback: t.fallback,
		sink:     t.sink,
		acc:      t.accumulator,
	}
}

// HandleCollision scores a solid contact. The first contact point is used;
// without contacts the closest point of the striking geometry to the scoring
// centre is used if the fallback is enabled. Otherwise, or when no striking
// geometry was reported, the hit is dropped and ok is false.
func (t *Target) HandleCollision(ctx context.Context, hitID string, c model.Collision) (model.ScoreResult, bool) {
	f := t.frame()

	var point geometry.Point3
	switch {
	case len(c.Contacts) > 0:
		point = c.Contacts[0]
	case !f.fallback:
		t.logger.Warn(ctx, "collision had no contact points and fallback is disabled",
			logger.String("target", t.id),
			logger.String("hit_id", hitID),
		)
		return t.drop(ctx, hitID, c.SourceID, DropNoContacts)
	case c.Geometry == nil:
		t.logger.Warn(ctx, "collision had neither contact points nor geometry",
			logger.String("target", t.id),
			logger.String("hit_id", hitID),
		)
		return t.drop(ctx, hitID, c.SourceID, DropNoGeometry)
	default:
		point = c.Geometry.ClosestPoint(c.Transform, f.center)
		t.logger.Warn(ctx, "collision had no contact points; using closest point fallback",
			logger.String("target", t.id),
			logger.String("hit_id", hitID),
		)
	}

	return t.process(ctx, f, hitID, model.HitCollision, model.HitEvent{Point: point, SourceID: c.SourceID}), true
}

// HandleTrigger scores an overlap at the closest point of the overlapping
// geometry to the scoring centre.
func (t *Target) HandleTrigger(ctx context.Context, hitID string, tr model.Trigger) (model.ScoreResult, bool) {
	if tr.Geometry == nil {
		t.logger.Warn(ctx, "trigger without geometry",
			logger.String("target", t.id),
			logger.String("hit_id", hitID),
		)
		return t.drop(ctx, hitID, tr.SourceID, DropNoGeometry)
	}
	f := t.frame()
	point := tr.Geometry.ClosestPoint(tr.Transform, f.center)
	return t.process(ctx, f, hitID, model.HitTrigger, model.HitEvent{Point: point, SourceID: tr.SourceID}), true
}

// Handle dispatches a queued notification by kind.
func (t *Target) Handle(ctx context.Context, n *model.HitNotification) (model.ScoreResult, bool) {
	metrics.RecordHitReceived(t.id, string(n.Kind))
	switch n.Kind {
	case model.HitCollision:
		return t.HandleCollision(ctx, n.HitID, n.Collision)
	case model.HitTrigger:
		return t.HandleTrigger(ctx, n.HitID, n.Trigger)
	default:
		t.logger.Warn(ctx, "unknown hit kind", logger.String("target", t.id), logger.String("kind", string(n.Kind)))
		return t.drop(ctx, n.HitID, n.SourceID(), DropUnknownKind)
	}
}

func (t *Target) drop(ctx context.Context, hitID, sourceID, reason string) (model.ScoreResult, bool) {
	metrics.RecordHitDropped(t.id, reason)
	t.logger.Debug(ctx, "hit dropped",
		logger.String("target", t.id),
		logger.String("hit_id", hitID),
		logger.String("source", sourceID),
		logger.String("reason", reason),
	)
	return model.ScoreResult{}, false
}

// process scores a hit resolved against f and forwards the rounded score to
// the sink and the accumulator.
func (t *Target) process(ctx context.Context, f frame, hitID string, kind model.HitKind, hit model.HitEvent) model.ScoreResult {
	start := time.Now()
	cfg, sink, acc := f.cfg, f.sink, f.acc

	raw, final := Score(hit.Point, cfg)
	dist := geometry.Distance(hit.Point, cfg.Origin())
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordHitScored(t.id, final)

	t.logger.Info(ctx, "target hit",
		logger.String("target", t.id),
		logger.String("source", hit.SourceID),
		logger.Vec3("point", hit.Point),
		logger.Float64("distance", dist),
		logger.Int("score", final),
	)

	if sink != nil {
		sink.Publish(ctx, model.ScoreEvent{
			HitID:      hitID,
			TargetID:   t.id,
			SourceID:   hit.SourceID,
			Kind:       kind,
			Point:      hit.Point,
			Distance:   dist,
			RawScore:   raw,
			FinalScore: final,
			At:         t.now(),
		})
	}

	if acc != nil {
		if _, err := acc.AddScore(ctx, hit.SourceID, final); err != nil {
			metrics.RecordErrorByComponent("target", "accumulator")
			t.logger.Error(ctx, "scoreboard update failed",
				logger.String("target", t.id),
				logger.String("source", hit.SourceID),
				logger.Error(err),
			)
		}
	}

	return model.ScoreResult{RawScore: raw, FinalScore: final}
}
