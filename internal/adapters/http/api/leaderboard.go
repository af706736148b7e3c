package api

import (
	"net/http"
	"time"

	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/standings"
	"github.com/okian/strikeboard/pkg/metrics"
)

type leaderboardResponse struct {
	TournamentID string                         `json:"tournamentId"`
	Metric       game.Metric                    `json:"metric"`
	Teams        []standings.TeamScoreAggregate `json:"teams"`
	Dropped      int                            `json:"dropped"`
}

// LeaderboardHandler runs the aggregation server-side for clients that do
// not aggregate themselves.
type LeaderboardHandler struct {
	store  Store
	metric game.Metric
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(store Store, metric game.Metric) *LeaderboardHandler {
	return &LeaderboardHandler{store: store, metric: metric}
}

// HandleGetLeaderboard handles GET /api/tournaments/{id}/leaderboard?metric=.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	id := tournamentID(r)

	metric := h.metric
	if name := r.URL.Query().Get("metric"); name != "" {
		m, err := game.ParseMetric(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		metric = m
	}

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

	start := time.Now()
	board := standings.Aggregate(events, positions, standings.WithMetric(metric))
	metrics.RecordAggregation(float64(time.Since(start).Microseconds())/1000, board.Dropped)

	writeJSON(w, http.StatusOK, leaderboardResponse{
		TournamentID: id,
		Metric:       metric,
		Teams:        board.Teams,
		Dropped:      board.Dropped,
	})
}
