package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/strikeboard/internal/adapters/mq/queue"
	"github.com/okian/strikeboard/internal/adapters/repository"
	"github.com/okian/strikeboard/internal/domain/dedupe"
	"github.com/okian/strikeboard/internal/domain/frame"
	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/handicap"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
	"github.com/okian/strikeboard/pkg/metrics"
)

// scoreRequest is the body of POST /api/scores.
type scoreRequest struct {
	SubmissionID string        `json:"submissionId"`
	MatchID      string        `json:"matchId"`
	TeamMemberID string        `json:"teamMemberId"`
	GameNumber   int           `json:"gameNumber"`
	Frames       []frame.Frame `json:"frames"`
	Handicap     *int          `json:"handicap"`
	Average      *float64      `json:"average"`
}

func (req scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(req.MatchID) == "":
		return errors.New("missing matchId")
	case strings.TrimSpace(req.TeamMemberID) == "":
		return errors.New("missing teamMemberId")
	case req.GameNumber < 1:
		return errors.New("gameNumber must be positive")
	case req.Handicap != nil && *req.Handicap < 0:
		return errors.New("handicap must not be negative")
	case req.Average != nil && *req.Average < 0:
		return errors.New("average must not be negative")
	}
	return nil
}

type scoreResponse struct {
	Status       string       `json:"status"`
	SubmissionID string       `json:"submissionId,omitempty"`
	Duplicate    bool         `json:"duplicate"`
	Game         *game.Scored `json:"game,omitempty"`
}

// ScoresHandler accepts scorekeeper writes.
type ScoresHandler struct {
	store     Store
	submitter Submitter
	deduper   dedupe.Deduper
	handicap  handicap.Config
	logger    logger.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(store Store, submitter Submitter, deduper dedupe.Deduper, hc handicap.Config, l logger.Logger) *ScoresHandler {
	return &ScoresHandler{store: store, submitter: submitter, deduper: deduper, handicap: hc, logger: l}
}

// HandlePostScore handles POST /api/scores. Frames are validated and scored
// synchronously so the caller sees running totals and rule violations at
// once; persistence and viewer notification happen on the worker.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	ctx := r.Context()

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	hc := 0
	switch {
	case req.Handicap != nil:
		hc = *req.Handicap
	case req.Average != nil:
		hc = h.handicap.For(*req.Average)
	}

	scored, err := game.Score(game.Game{
		MatchID:      req.MatchID,
		TeamMemberID: req.TeamMemberID,
		GameNumber:   req.GameNumber,
		Frames:       req.Frames,
		Handicap:     hc,
	})
	if err != nil {
		metrics.RecordSubmission(metrics.SubmissionInvalid)
		writeError(w, http.StatusBadRequest, "invalid_frames", wrap(op, err))
		return
	}

	match, err := h.store.Match(ctx, req.MatchID)
	if err != nil {
		h.lookupFailed(w, r, op, err)
		return
	}
	member, err := h.store.TeamMember(ctx, req.TeamMemberID)
	if err != nil {
		h.lookupFailed(w, r, op, err)
		return
	}
	if !slices.Contains(match.TeamIDs, member.TeamID) {
		metrics.RecordSubmission(metrics.SubmissionInvalid)
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, fmt.Errorf("team member %s does not bowl in match %s", member.ID, match.ID)))
		return
	}

	id := req.SubmissionID
	if id != "" && h.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordSubmission(metrics.SubmissionDuplicate)
		writeJSON(w, http.StatusOK, scoreResponse{Status: "duplicate", SubmissionID: id, Duplicate: true})
		return
	}
	tracked := id != ""
	if !tracked {
		id = uuid.NewString()
	}

	err = h.submitter.Enqueue(ctx, model.Submission{
		ID:           id,
		MatchID:      req.MatchID,
		TeamMemberID: req.TeamMemberID,
		GameNumber:   req.GameNumber,
		Frames:       scored.Frames,
		Handicap:     hc,
		ReceivedAt:   time.Now().UTC(),
	})
	if err != nil {
		if tracked {
			h.deduper.Unrecord(ctx, id)
		}
		metrics.RecordSubmission(metrics.SubmissionRejected)
		if errors.Is(err, queue.ErrFull) {
			writeError(w, http.StatusTooManyRequests, "backpressure", newKind(op, ErrBackpressure))
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrapKind(op, ErrUnavailable, err))
		return
	}

	metrics.RecordSubmission(metrics.SubmissionAccepted)
	writeJSON(w, http.StatusAccepted, scoreResponse{Status: "accepted", SubmissionID: id, Game: &scored})
}

func (h *ScoresHandler) lookupFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", wrap(op, err))
		return
	}
	h.logger.Error(r.Context(), "roster lookup failed", logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
}
