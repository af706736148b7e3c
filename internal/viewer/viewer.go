// Package viewer keeps one display in step with a tournament's live scores.
//
// A Session listens on a push channel for change notifications and pulls a
// full snapshot on each one. When the channel drops it falls back to pulling
// on a fixed interval until the channel comes back. Every pull rebuilds the
// board from scratch, so a missed or repeated notification never corrupts
// what is shown.
package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/internal/domain/standings"
	"github.com/okian/strikeboard/pkg/logger"
	"github.com/okian/strikeboard/pkg/metrics"
)

// State is where a session is in its connection lifecycle.
type State int

const (
	Connecting State = iota
	Live
	Degraded
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Live:
		return "live"
	case Degraded:
		return "degraded"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind identifies a ChannelEvent.
type EventKind int

const (
	Connected EventKind = iota
	Disconnected
	Notification
)

// ChannelEvent is what a Dialer reports about the push channel.
type ChannelEvent struct {
	Kind         EventKind
	Notification model.Notification
}

// Dialer opens the push channel for a tournament. The returned channel
// carries events until ctx is done and is then closed.
type Dialer interface {
	Dial(ctx context.Context, tournamentID string) (<-chan ChannelEvent, error)
}

// Puller fetches the current snapshot for a tournament.
type Puller interface {
	Pull(ctx context.Context, tournamentID string) (model.LiveScores, error)
}

// Session is one viewer's synchronisation loop.
type Session struct {
	tournamentID string
	dialer       Dialer
	puller       Puller

	clock    clockwork.Clock
	interval time.Duration
	metric   game.Metric
	onBoard  func(standings.Board)
	onState  func(State)
	logger   logger.Logger

	mu    sync.RWMutex
	state State
	board standings.Board
}

// New creates a session for tournamentID.
func New(tournamentID string, dialer Dialer, puller Puller, opts ...Option) *Session {
	s := &Session{
		tournamentID: tournamentID,
		dialer:       dialer,
		puller:       puller,
		clock:        clockwork.NewRealClock(),
		interval:     DefaultPollInterval,
		metric:       game.TeamTotal,
		logger:       logger.Get().Named("viewer"),
		state:        Connecting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Board returns the most recently built board.
func (s *Session) Board() standings.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

// Run drives the session until ctx is done or the channel closes. The
// channel and any poll ticker are released before it returns.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.setState(Connecting)
	events, err := s.dialer.Dial(ctx, s.tournamentID)
	if err != nil {
		s.setState(Closed)
		return fmt.Errorf("%w: %w", ErrDial, err)
	}

	var (
		ticker clockwork.Ticker
		tick   <-chan time.Time
	)
	stopPolling := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer func() {
		stopPolling()
		s.setState(Closed)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case Connected:
				stopPolling()
				s.setState(Live)
				s.pull(ctx)
			case Disconnected:
				if ticker == nil {
					ticker = s.clock.NewTicker(s.interval)
					tick = ticker.Chan()
				}
				s.setState(Degraded)
			case Notification:
				if ev.Notification.TournamentID == "" || ev.Notification.TournamentID == s.tournamentID {
					s.pull(ctx)
				}
			}
		case <-tick:
			s.pull(ctx)
		}
	}
}

func (s *Session) pull(ctx context.Context) {
	live, err := s.puller.Pull(ctx, s.tournamentID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.RecordViewerPull("error")
		s.logger.Warn(ctx, "pull failed",
			logger.String("tournament", s.tournamentID),
			logger.String("state", s.State().String()),
			logger.Error(err))
		return
	}
	metrics.RecordViewerPull("ok")

	board := standings.Aggregate(live.LiveScores, live.TeamPositions, standings.WithMetric(s.metric))
	if board.Dropped > 0 {
		s.logger.Debug(ctx, "rows without a positioned team", logger.Int("dropped", board.Dropped))
	}
	s.mu.Lock()
	s.board = board
	s.mu.Unlock()
	if s.onBoard != nil {
		s.onBoard(board)
	}
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	if prev == next {
		return
	}
	s.logger.Debug(context.Background(), "state changed",
		logger.String("from", prev.String()), logger.String("to", next.String()))
	if s.onState != nil {
		s.onState(next)
	}
}
