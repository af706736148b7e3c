// Package service wires the scoring pipeline, the store, the notifier and the
// viewer channel into one runnable unit.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/okian/strikeboard/internal/adapters/http/api"
	"github.com/okian/strikeboard/internal/adapters/http/ws"
	"github.com/okian/strikeboard/internal/adapters/mq/queue"
	"github.com/okian/strikeboard/internal/adapters/mq/worker"
	"github.com/okian/strikeboard/internal/adapters/notify"
	"github.com/okian/strikeboard/internal/adapters/repository"
	"github.com/okian/strikeboard/internal/config"
	"github.com/okian/strikeboard/internal/domain/dedupe"
	"github.com/okian/strikeboard/pkg/logger"
	"github.com/okian/strikeboard/pkg/metrics"
)

// Service owns every long-lived component of the server.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	store    repository.Store
	notifier notify.Notifier
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	hub      *ws.Hub
	handler  http.Handler

	// closers run on Stop in reverse order.
	closers []func() error
	cancel  context.CancelFunc
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults come from config.New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore injects a store instead of building one from config.
func WithStore(store repository.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithNotifier injects a notifier instead of building one from config.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(context.Background()),
		logger: logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts all components. The service keeps running after
// ctx is done until Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting strikeboard service...")

	if err := s.openStore(ctx); err != nil {
		s.closeAll()
		return err
	}
	if err := s.seed(ctx); err != nil {
		s.closeAll()
		return err
	}
	if err := s.openNotifier(ctx); err != nil {
		s.closeAll()
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.pool = worker.NewPool(s.cfg.WorkerCount, s.queue, s.store, s.notifier)
	s.pool.Start(runCtx)

	s.hub = ws.NewHub(ws.WithAllowedOrigins(s.cfg.CORSAllowedOrigins))
	go s.hub.Run(runCtx)
	notifications, err := s.notifier.Subscribe(runCtx)
	if err != nil {
		cancel()
		s.closeAll()
		return fmt.Errorf("subscribe to notifications: %w", err)
	}
	go s.hub.Forward(runCtx, notifications)

	s.handler = api.NewServer(api.Dependencies{
		Store:     s.store,
		Submitter: s.queue,
		Deduper:   s.deduper,
		Publisher: s.notifier,
		Stats:     s,
	},
		api.WithHandicap(s.cfg.Handicap()),
		api.WithMetric(s.cfg.Metric()),
		api.WithAllowedOrigins(s.cfg.CORSAllowedOrigins),
		api.WithWebsocket(s.hub),
	).Handler()

	s.started = true
	s.logger.Info(ctx, "strikeboard service started",
		logger.String("store", s.cfg.Store),
		logger.String("notifier", s.cfg.Notifier),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) error {
	if s.store != nil {
		return nil
	}
	switch s.cfg.Store {
	case config.StorePostgres:
		db, err := repository.Connect(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := repository.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return err
		}
		pg := repository.NewPostgresStore(db)
		s.store = pg
		s.closers = append(s.closers, pg.Close)
		s.logger.Info(ctx, "using postgres store")
	default:
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	return nil
}

func (s *Service) seed(ctx context.Context) error {
	if s.cfg.SeedFile == "" {
		return nil
	}
	roster, err := repository.LoadRoster(s.cfg.SeedFile)
	if err != nil {
		return err
	}
	if err := s.store.Seed(ctx, roster); err != nil {
		return fmt.Errorf("seed roster: %w", err)
	}
	s.logger.Info(ctx, "roster seeded",
		logger.String("file", s.cfg.SeedFile),
		logger.Int("teams", len(roster.Teams)),
		logger.Int("matches", len(roster.Matches)),
		logger.Int("teamMembers", len(roster.TeamMembers)),
	)
	return nil
}

func (s *Service) openNotifier(ctx context.Context) error {
	if s.notifier != nil {
		return nil
	}
	switch s.cfg.Notifier {
	case config.NotifierRedis:
		client := redis.NewClient(&redis.Options{Addr: s.cfg.RedisAddr})
		n, err := notify.NewRedis(ctx, &notify.RedisConfig{RedisClient: client, Channel: s.cfg.RedisChannel})
		if err != nil {
			_ = client.Close()
			return err
		}
		s.notifier = n
		s.closers = append(s.closers, n.Close, client.Close)
		s.logger.Info(ctx, "using redis notifier", logger.String("addr", s.cfg.RedisAddr))
	default:
		n := notify.NewMemory()
		s.notifier = n
		s.closers = append(s.closers, n.Close)
	}
	return nil
}

// Handler returns the HTTP handler serving the API and the viewer channel.
// It is nil before Start.
func (s *Service) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// Stop drains the queue and releases every component.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping strikeboard service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	s.closeAll()

	s.started = false
	s.logger.Info(ctx, "strikeboard service stopped")
}

func (s *Service) closeAll() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn(context.Background(), "close failed", logger.Error(err))
		}
	}
	s.closers = nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"store":      s.cfg.Store,
		"notifier":   s.cfg.Notifier,
		"queueSize":  s.cfg.QueueSize,
		"dedupeSize": s.cfg.DedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		rows := s.store.Count(ctx)

		stats["workerCount"] = s.pool.Size()
		stats["queueLength"] = queueLen
		stats["scoreRows"] = rows
		stats["viewers"] = s.hub.Count()
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateScoreRows(rows)
	}
	return stats
}
