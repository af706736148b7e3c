package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/strikeboard/internal/adapters/repository"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
)

type positionsBody struct {
	TeamPositions []model.PositionAssignment `json:"teamPositions"`
}

type positionsResponse struct {
	TeamPositions []model.TeamPosition `json:"teamPositions"`
}

// PositionsHandler reads and replaces a tournament's lane assignments.
type PositionsHandler struct {
	store     Store
	publisher Publisher
	logger    logger.Logger
}

// NewPositionsHandler creates a new positions handler.
func NewPositionsHandler(store Store, publisher Publisher, l logger.Logger) *PositionsHandler {
	return &PositionsHandler{store: store, publisher: publisher, logger: l}
}

// HandleGetPositions handles GET /api/tournaments/{id}/team-positions.
func (h *PositionsHandler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_team_positions"
	positions, err := h.store.TeamPositions(r.Context(), tournamentID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, positionsResponse{TeamPositions: positions})
}

// HandlePutPositions handles PUT /api/tournaments/{id}/team-positions and
// tells viewers the slots changed.
func (h *PositionsHandler) HandlePutPositions(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_team_positions"
	ctx := r.Context()
	id := tournamentID(r)

	var body positionsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	positions, err := h.store.ReplaceTeamPositions(ctx, id, body.TeamPositions)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidPosition) {
			writeError(w, http.StatusBadRequest, "invalid_position", wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}

	if err := h.publisher.Publish(ctx, model.Notification{Type: model.SlotsUpdated, TournamentID: id}); err != nil {
		// Positions are saved; polling viewers still converge.
		h.logger.Warn(ctx, "slots-updated not published", logger.String("tournament", id), logger.Error(err))
	}
	writeJSON(w, http.StatusOK, positionsResponse{TeamPositions: positions})
}
