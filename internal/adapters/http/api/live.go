package api

import (
	"net/http"

	"github.com/okian/strikeboard/internal/domain/model"
)

// LiveScoresHandler serves the raw rows viewers aggregate themselves.
type LiveScoresHandler struct {
	store Store
}

// NewLiveScoresHandler creates a new live scores handler.
func NewLiveScoresHandler(store Store) *LiveScoresHandler {
	return &LiveScoresHandler{store: store}
}

// HandleGetLiveScores handles GET /api/tournaments/{id}/live-scores.
func (h *LiveScoresHandler) HandleGetLiveScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_live_scores"
	id := tournamentID(r)

	events, err := h.store.LiveScores(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	positions, err := h.store.TeamPositions(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, model.LiveScores{LiveScores: events, TeamPositions: positions})
}
