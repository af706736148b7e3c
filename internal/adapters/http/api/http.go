// Package api exposes the scoring and leaderboard HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/okian/strikeboard/internal/adapters/http/swagger"
	"github.com/okian/strikeboard/internal/domain/dedupe"
	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/handicap"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
)

// Store is the read side of the repository plus position writes.
type Store interface {
	Match(ctx context.Context, id string) (model.Match, error)
	TeamMember(ctx context.Context, id string) (model.TeamMember, error)
	LiveScores(ctx context.Context, tournamentID string) ([]model.ScoreEvent, error)
	TeamPositions(ctx context.Context, tournamentID string) ([]model.TeamPosition, error)
	ReplaceTeamPositions(ctx context.Context, tournamentID string, assignments []model.PositionAssignment) ([]model.TeamPosition, error)
}

// Submitter queues accepted submissions for scoring.
type Submitter interface {
	Enqueue(ctx context.Context, s model.Submission) error
}

// Publisher announces tournament changes to viewers.
type Publisher interface {
	Publish(ctx context.Context, n model.Notification) error
}

// Dependencies bundles what the handlers need from other packages.
type Dependencies struct {
	Store     Store
	Submitter Submitter
	Deduper   dedupe.Deduper
	Publisher Publisher
	Stats     StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	liveScoresHandler  *LiveScoresHandler
	leaderboardHandler *LeaderboardHandler
	positionsHandler   *PositionsHandler

	websocket      http.Handler
	allowedOrigins []string
	handicap       handicap.Config
	metric         game.Metric
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithWebsocket mounts the viewer channel at /ws.
func WithWebsocket(h http.Handler) Option {
	return func(s *Server) { s.websocket = h }
}

// WithAllowedOrigins sets the CORS origins for browser displays.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithHandicap sets the formula used when a submission carries an average
// instead of a handicap.
func WithHandicap(c handicap.Config) Option {
	return func(s *Server) { s.handicap = c }
}

// WithMetric sets the leaderboard metric used when a request names none.
func WithMetric(m game.Metric) Option {
	return func(s *Server) {
		if m != "" {
			s.metric = m
		}
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
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		allowedOrigins: []string{"*"},
		handicap:       handicap.Config{BaseScore: 200, Percent: 80},
		metric:         game.TeamTotal,
		logger:         logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps.Stats)
	s.scoresHandler = NewScoresHandler(deps.Store, deps.Submitter, deps.Deduper, s.handicap, s.logger)
	s.liveScoresHandler = NewLiveScoresHandler(deps.Store)
	s.leaderboardHandler = NewLeaderboardHandler(deps.Store, s.metric)
	s.positionsHandler = NewPositionsHandler(deps.Store, deps.Publisher, s.logger)
	return s
}

// Handler returns the routed, CORS-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	router.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)
	if s.websocket != nil {
		router.Handle("/ws", s.websocket)
	}
	swagger.Register(router)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores")).
		Methods(http.MethodPost)
	api.HandleFunc("/tournaments/{id}/live-scores", MetricsMiddleware(s.liveScoresHandler.HandleGetLiveScores, "live_scores")).
		Methods(http.MethodGet)
	api.HandleFunc("/tournaments/{id}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard")).
		Methods(http.MethodGet)
	api.HandleFunc("/tournaments/{id}/team-positions", MetricsMiddleware(s.positionsHandler.HandleGetPositions, "team_positions")).
		Methods(http.MethodGet)
	api.HandleFunc("/tournaments/{id}/team-positions", MetricsMiddleware(s.positionsHandler.HandlePutPositions, "team_positions")).
		Methods(http.MethodPut)

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
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

func tournamentID(r *http.Request) string {
	return mux.Vars(r)["id"]
}
