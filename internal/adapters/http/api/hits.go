package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/okian/bullseye/internal/domain/dedupe"
	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/pkg/logger"
)

// HitDependencies defines the interface for hit ingestion.
type HitDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, n *model.HitNotification) error
}

// HitsHandler handles hit reports.
type HitsHandler struct {
	deps   HitDependencies
	logger logger.Logger
}

// NewHitsHandler creates a new hits handler.
func NewHitsHandler(deps HitDependencies, l logger.Logger) *HitsHandler {
	if l == nil {
		l = logger.NamedOrNop("api")
	}
	return &HitsHandler{deps: deps, logger: l}
}

// shapeRequest describes the striking or overlapping geometry.
type shapeRequest struct {
	Kind     string    `json:"kind"`
	Radius   float64   `json:"radius"`
	Center   []float64 `json:"center"`
	Size     []float64 `json:"size"`
	Position []float64 `json:"position"`
	Rotation []float64 `json:"rotation"` // Euler degrees
	Scale    []float64 `json:"scale"`
}

// hitRequest is the body of POST /hits.
type hitRequest struct {
	HitID    string        `json:"hit_id"`
	TargetID string        `json:"target_id"`
	SourceID string        `json:"source_id"`
	Kind     string        `json:"kind"`
	Contacts [][]float64   `json:"contacts"`
	Other    *shapeRequest `json:"other"`
}

func toVec(name string, v []float64, def mgl64.Vec3) (mgl64.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return mgl64.Vec3{v[0], v[1], v[2]}, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("%s must have 3 components, got %d", name, len(v))
}

func (s *shapeRequest) shape() (geometry.Shape, geometry.Transform, error) {
	var tr geometry.Transform
	kind, ok := geometry.ParseKind(s.Kind)
	if !ok {
		return nil, tr, fmt.Errorf("unknown shape kind %q", s.Kind)
	}
	center, err := toVec("other.center", s.Center, mgl64.Vec3{})
	if err != nil {
		return nil, tr, err
	}
	size, err := toVec("other.size", s.Size, mgl64.Vec3{1, 1, 1})
	if err != nil {
		return nil, tr, err
	}
	pos, err := toVec("other.position", s.Position, mgl64.Vec3{})
	if err != nil {
		return nil, tr, err
	}
	rot, err := toVec("other.rotation", s.Rotation, mgl64.Vec3{})
	if err != nil {
		return nil, tr, err
	}
	scale, err := toVec("other.scale", s.Scale, mgl64.Vec3{1, 1, 1})
	if err != nil {
		return nil, tr, err
	}
	tr = geometry.EulerTransform(pos, rot, scale)

	switch kind {
	case geometry.KindSphere:
		if s.Radius < 0 {
			return nil, tr, errors.New("other.radius must not be negative")
		}
		return geometry.Sphere{Center: center, Radius: s.Radius}, tr, nil
	case geometry.KindBox:
		return geometry.Box{Center: center, Size: size}, tr, nil
	default:
		return geometry.Generic{Bounds: geometry.BoundsFromCenter(center, size.Mul(0.5))}, tr, nil
	}
}

// notification validates the request and converts it.
func (r *hitRequest) notification() (*model.HitNotification, error) {
	if strings.TrimSpace(r.TargetID) == "" {
		return nil, errors.New("missing target_id")
	}
	n := &model.HitNotification{
		HitID:    strings.TrimSpace(r.HitID),
		TargetID: r.TargetID,
		Kind:     model.HitKind(r.Kind),
	}

	var (
		shape geometry.Shape
		tr    geometry.Transform
	)
	if r.Other != nil {
		var err error
		if shape, tr, err = r.Other.shape(); err != nil {
			return nil, err
		}
	}

	switch n.Kind {
	case model.HitCollision:
		contacts := make([]geometry.Point3, 0, len(r.Contacts))
		for i, c := range r.Contacts {
			if len(c) != 3 {
				return nil, fmt.Errorf("contacts[%d] must have 3 components, got %d", i, len(c))
			}
			contacts = append(contacts, mgl64.Vec3{c[0], c[1], c[2]})
		}
		n.Collision = model.Collision{Contacts: contacts, Geometry: shape, Transform: tr, SourceID: r.SourceID}
	case model.HitTrigger:
		if shape == nil {
			return nil, errors.New("trigger requires other")
		}
		n.Trigger = model.Trigger{Geometry: shape, Transform: tr, SourceID: r.SourceID}
	default:
		return nil, fmt.Errorf("kind must be %q or %q", model.HitCollision, model.HitTrigger)
	}
	return n, nil
}

// HandlePostHit handles POST /hits requests.
func (h *HitsHandler) HandlePostHit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_hit"
	ctx := r.Context()

	var req hitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	n, err := req.notification()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if n.HitID == "" {
		n.HitID = uuid.NewString()
	}
	n.ReceivedAt = time.Now()

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(ctx, n.HitID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", HitID: n.HitID, Duplicate: true})
		return
	}

	if err := h.deps.Enqueue(ctx, n); err != nil {
		// Rollback the "seen" status so the client may retry
		h.deps.Unrecord(ctx, n.HitID)
		h.logger.Debug(ctx, "hit rejected",
			logger.String("hit_id", n.HitID),
			logger.String("target", n.TargetID),
			logger.Error(err),
		)
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", HitID: n.HitID})
}
