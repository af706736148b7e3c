// Package worker scores queued submissions, persists the per-frame rows and
// tells viewers the tournament changed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/strikeboard/internal/adapters/repository"
	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
	"github.com/okian/strikeboard/pkg/metrics"
)

const (
	defaultWorkerCount  = 4
	poolShutdownTimeout = 30 * time.Second
)

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Submission
}

// Store is the part of the repository a worker writes through.
type Store interface {
	Match(ctx context.Context, id string) (model.Match, error)
	TeamMember(ctx context.Context, id string) (model.TeamMember, error)
	SaveGame(ctx context.Context, game model.GameKey, rows []model.ScoreEvent) error
}

// Publisher announces that a tournament's scores changed.
type Publisher interface {
	Publish(ctx context.Context, n model.Notification) error
}

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the submission in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	store     Store
	publisher Publisher
	name      string
	now       func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, store Store, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		store:     store,
		publisher: publisher,
		name:      "worker",
		now:       func() time.Time { return time.Now().UTC() },
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "submission failed",
					logger.String("worker", w.name),
					logger.String("submission", s.ID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process scores one submission, replaces its game rows and publishes a
// score-updated notification for the match's tournament.
func (w *InMemoryWorker) process(ctx context.Context, s model.Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	match, err := w.store.Match(ctx, s.MatchID)
	if err != nil {
		return w.fail(ctx, "roster", fmt.Errorf("resolve match: %w", err))
	}
	member, err := w.store.TeamMember(ctx, s.TeamMemberID)
	if err != nil {
		return w.fail(ctx, "roster", fmt.Errorf("resolve team member: %w", err))
	}

	scoreStart := time.Now()
	scored, err := game.Score(game.Game{
		MatchID:      s.MatchID,
		TeamMemberID: s.TeamMemberID,
		GameNumber:   s.GameNumber,
		Frames:       s.Frames,
		Handicap:     s.Handicap,
	})
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		return w.fail(ctx, "scoring", fmt.Errorf("score game: %w", err))
	}

	// Rows carry the receive time so a snapshot that reaches the store after
	// a newer one of the same game is recognised as stale.
	recordedAt := s.ReceivedAt
	if recordedAt.IsZero() {
		recordedAt = w.now()
	}
	rows := game.Events(scored, game.Meta{
		TournamentID: match.TournamentID,
		MatchTeamIDs: match.TeamIDs,
		TeamID:       member.TeamID,
		Member:       member.Member,
		RecordedAt:   recordedAt,
	})
	key := model.GameKey{MatchID: s.MatchID, TeamMemberID: s.TeamMemberID, GameNumber: s.GameNumber}
	if err := w.store.SaveGame(ctx, key, rows); err != nil {
		if errors.Is(err, repository.ErrStale) {
			w.logger.Debug(ctx, "stale submission skipped", logger.String("submission", s.ID))
			metrics.RecordErrorByComponent("worker", "stale")
			return nil
		}
		return w.fail(ctx, "store", fmt.Errorf("save game: %w", err))
	}

	n := model.Notification{Type: model.ScoreUpdated, TournamentID: match.TournamentID}
	if err := w.publisher.Publish(ctx, n); err != nil {
		// Rows are stored; viewers in polling mode still pick them up.
		metrics.RecordErrorByComponent("worker", "notify")
		w.logger.Warn(ctx, "score-updated not published",
			logger.String("submission", s.ID),
			logger.String("tournament", match.TournamentID),
			logger.Error(err))
		return nil
	}

	w.logger.Debug(ctx, "game scored",
		logger.String("submission", s.ID),
		logger.String("tournament", match.TournamentID),
		logger.Int("total", scored.TotalScore),
		logger.Bool("complete", scored.Complete))
	return nil
}

func (w *InMemoryWorker) fail(_ context.Context, kind string, err error) error {
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
	return err
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing one queue.
func NewPool(workerCount int, q Queue, store Store, publisher Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, store, publisher, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
