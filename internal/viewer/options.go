package viewer

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/standings"
	"github.com/okian/strikeboard/pkg/logger"
)

// DefaultPollInterval is how often a degraded session pulls.
const DefaultPollInterval = 3 * time.Second

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock driving the poll ticker.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithPollInterval sets the pull period while degraded.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMetric sets how a member's games fold into the member total.
func WithMetric(m game.Metric) Option {
	return func(s *Session) {
		if m != "" {
			s.metric = m
		}
	}
}

// WithOnBoard registers a hook called with every rebuilt board.
func WithOnBoard(fn func(standings.Board)) Option {
	return func(s *Session) { s.onBoard = fn }
}

// WithOnState registers a hook called on every state transition.
func WithOnState(fn func(State)) Option {
	return func(s *Session) { s.onState = fn }
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
