package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/adapters/render"
	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/motion"
	"github.com/okian/bullseye/internal/domain/scoring"
)

// TargetDependencies defines the interface for target inspection and tuning.
type TargetDependencies interface {
	Targets(ctx context.Context) []scoring.Snapshot
	Target(ctx context.Context, id string) (scoring.Snapshot, error)
	Outlines(ctx context.Context, id string) ([][]geometry.Point3, error)
	Reconfigure(ctx context.Context, id string, cfg scoring.Config) (scoring.Snapshot, error)
	ToggleMotion(ctx context.Context, id string) (motion.Axis, error)
}

// TargetsHandler handles target requests.
type TargetsHandler struct {
	deps     TargetDependencies
	renderer *render.Renderer
}

// NewTargetsHandler creates a new targets handler.
func NewTargetsHandler(deps TargetDependencies, renderer *render.Renderer) *TargetsHandler {
	if renderer == nil {
		renderer = render.New()
	}
	return &TargetsHandler{deps: deps, renderer: renderer}
}

// configRequest is the body of PUT /targets/{id}/config. Omitted fields keep
// their current value.
type configRequest struct {
	MaxScore        *float64  `json:"max_score"`
	ScoringRadius   *float64  `json:"scoring_radius"`
	FalloffExponent *float64  `json:"falloff_exponent"`
	UseRingScores   *bool     `json:"use_ring_scores"`
	RingScores      []float64 `json:"ring_scores"`
	Center          []float64 `json:"center"`
}

// apply merges the request onto the current target state.
func (c *configRequest) apply(cur scoring.Snapshot) (scoring.Config, error) {
	cfg := scoring.Config{
		MaxScore:        cur.MaxScore,
		ScoringRadius:   cur.ScoringRadius,
		FalloffExponent: cur.Falloff,
		UseRingScores:   cur.UseRingScores,
		RingScores:      append([]float64(nil), cur.RingScores...),
	}
	if c.MaxScore != nil {
		if *c.MaxScore < 0 {
			return cfg, errors.New("max_score must not be negative")
		}
		cfg.MaxScore = *c.MaxScore
	}
	if c.ScoringRadius != nil {
		cfg.ScoringRadius = *c.ScoringRadius
	}
	if c.FalloffExponent != nil {
		f := *c.FalloffExponent
		if f <= scoring.MinFalloffExponent || f > scoring.MaxFalloffExponent {
			return cfg, fmt.Errorf("falloff_exponent %v outside (%v, %v]", f, scoring.MinFalloffExponent, scoring.MaxFalloffExponent)
		}
		cfg.FalloffExponent = f
	}
	if c.UseRingScores != nil {
		cfg.UseRingScores = *c.UseRingScores
	}
	if c.RingScores != nil {
		cfg.RingScores = append([]float64(nil), c.RingScores...)
	}
	if cfg.UseRingScores && len(cfg.RingScores) == 0 {
		return cfg, errors.New("use_ring_scores requires ring_scores")
	}
	if c.Center != nil {
		if len(c.Center) != 3 {
			return cfg, fmt.Errorf("center must have 3 components, got %d", len(c.Center))
		}
		p := mgl64.Vec3{c.Center[0], c.Center[1], c.Center[2]}
		cfg.CenterOrigin = &p
	}
	return cfg, nil
}

type ringsResponse struct {
	TargetID string              `json:"target_id"`
	Rings    scoring.RingLayout  `json:"rings"`
	Outlines [][]geometry.Point3 `json:"outlines"`
}

type motionResponse struct {
	TargetID string      `json:"target_id"`
	Axis     motion.Axis `json:"axis"`
}

// HandleList handles GET /targets requests.
func (h *TargetsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Targets(r.Context()))
}

// HandleGet handles GET /targets/{id} requests.
func (h *TargetsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Target(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.get_target", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleConfigure handles PUT /targets/{id}/config requests.
func (h *TargetsHandler) HandleConfigure(w http.ResponseWriter, r *http.Request) {
	const op = "api.configure_target"
	ctx := r.Context()
	id := r.PathValue("id")

	var req configRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	cur, err := h.deps.Target(ctx, id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	cfg, err := req.apply(cur)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.deps.Reconfigure(ctx, id, cfg)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleRings handles GET /targets/{id}/rings requests.
func (h *TargetsHandler) HandleRings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rings"
	ctx := r.Context()
	id := r.PathValue("id")

	snap, err := h.deps.Target(ctx, id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	outlines, err := h.deps.Outlines(ctx, id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ringsResponse{TargetID: id, Rings: snap.Rings, Outlines: outlines})
}

// HandleRingsPNG handles GET /targets/{id}/rings.png requests.
func (h *TargetsHandler) HandleRingsPNG(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rings_png"
	snap, err := h.deps.Target(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.PNG(&buf, snap.Rings); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleToggleMotion handles POST /targets/{id}/motion/toggle requests.
func (h *TargetsHandler) HandleToggleMotion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	axis, err := h.deps.ToggleMotion(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap("api.toggle_motion", err))
		return
	}
	writeJSON(w, http.StatusOK, motionResponse{TargetID: id, Axis: axis})
}
