package api

import (
	"context"
	"net/http"
	"strconv"
)

// ScoreboardDependencies defines the interface for scoreboard operations.
type ScoreboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	ResetScoreboard(ctx context.Context) error
}

// ScoreboardHandler handles scoreboard requests.
type ScoreboardHandler struct {
	deps     ScoreboardDependencies
	maxLimit int
}

// NewScoreboardHandler creates a new scoreboard handler.
func NewScoreboardHandler(deps ScoreboardDependencies, maxLimit int) *ScoreboardHandler {
	if maxLimit < 1 {
		maxLimit = DefaultMaxLimit
	}
	return &ScoreboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetScoreboard handles GET /scoreboard?limit=N requests. A missing
// limit returns the first page of maxLimit entries.
func (h *ScoreboardHandler) HandleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scoreboard"
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleReset handles DELETE /scoreboard requests.
func (h *ScoreboardHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ResetScoreboard(r.Context()); err != nil {
		writeFailure(w, Wrap("api.reset_scoreboard", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
