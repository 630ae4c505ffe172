// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/adapters/render"
	"github.com/okian/bullseye/internal/adapters/repository"
	service "github.com/okian/bullseye/internal/app"
	"github.com/okian/bullseye/internal/domain/types"
	"github.com/okian/bullseye/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HitDependencies
	TargetDependencies
	ScoreboardDependencies
	RankDependencies
}

// Entry mirrors the read shape returned by scoreboard queries.
type Entry = types.Entry

// DefaultMaxLimit caps GET /scoreboard?limit when no option is given.
const DefaultMaxLimit = 100

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server wires HTTP routes for the range API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	hitsHandler       *HitsHandler
	targetsHandler    *TargetsHandler
	scoreboardHandler *ScoreboardHandler
	rankHandler       *RankHandler
	stream            http.Handler

	maxLimit int
	renderer *render.Renderer
	logger   logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps the scoreboard page size.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRenderer sets the ring preview renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithStream mounts a live score feed on /stream.
func WithStream(h http.Handler) Option {
	return func(s *Server) {
		s.stream = h
	}
}

// WithLogger sets the API logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxLimit: DefaultMaxLimit,
		renderer: render.New(),
		logger:   logger.NamedOrNop("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.hitsHandler = NewHitsHandler(deps, s.logger)
	s.targetsHandler = NewTargetsHandler(deps, s.renderer)
	s.scoreboardHandler = NewScoreboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /hits", MetricsMiddleware(s.hitsHandler.HandlePostHit, "hits"))

	mux.HandleFunc("GET /targets", MetricsMiddleware(s.targetsHandler.HandleList, "targets"))
	mux.HandleFunc("GET /targets/{id}", MetricsMiddleware(s.targetsHandler.HandleGet, "target"))
	mux.HandleFunc("PUT /targets/{id}/config", MetricsMiddleware(s.targetsHandler.HandleConfigure, "target_config"))
	mux.HandleFunc("GET /targets/{id}/rings", MetricsMiddleware(s.targetsHandler.HandleRings, "target_rings"))
	mux.HandleFunc("GET /targets/{id}/rings.png", MetricsMiddleware(s.targetsHandler.HandleRingsPNG, "target_rings_png"))
	mux.HandleFunc("POST /targets/{id}/motion/toggle", MetricsMiddleware(s.targetsHandler.HandleToggleMotion, "target_motion"))

	mux.HandleFunc("GET /scoreboard", MetricsMiddleware(s.scoreboardHandler.HandleGetScoreboard, "scoreboard"))
	mux.HandleFunc("DELETE /scoreboard", MetricsMiddleware(s.scoreboardHandler.HandleReset, "scoreboard_reset"))
	mux.HandleFunc("GET /scoreboard/{shooter}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))

	if s.stream != nil {
		// Not wrapped: the middleware's writer does not support hijacking.
		mux.Handle("GET /stream", s.stream)
	}
	s.logger.Debug(ctx, "routes registered", logger.Bool("stream", s.stream != nil))
}

type ackResponse struct {
	Status    string `json:"status"`
	HitID     string `json:"hit_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates upstream errors to a status code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrUnknownTarget):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotMoving):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable), errors.Is(err, queue.ErrQueueClosed), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
