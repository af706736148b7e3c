package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
	"github.com/okian/strikeboard/pkg/metrics"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "strikeboard:notifications"

// RedisConfig holds configuration for the Redis notifier.
type RedisConfig struct {
	RedisClient *redis.Client
	Channel     string
}

// Redis fans notifications out across server instances with Redis pub/sub.
type Redis struct {
	client  *redis.Client
	channel string
	logger  logger.Logger

	mu     sync.Mutex
	closed bool
	subs   []*redis.PubSub
}

var _ Notifier = (*Redis)(nil)

// NewRedis validates the config and pings the server.
func NewRedis(ctx context.Context, cfg *RedisConfig) (*Redis, error) {
	if cfg == nil || cfg.RedisClient == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrInvalidConfig)
	}
	if err := cfg.RedisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{
		client:  cfg.RedisClient,
		channel: channel,
		logger:  logger.Get().Named("notify"),
	}, nil
}

// Publish implements Notifier.
func (r *Redis) Publish(ctx context.Context, n model.Notification) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	metrics.RecordNotificationPublished(n.Type)
	return nil
}

// Subscribe implements Notifier.
func (r *Redis) Subscribe(ctx context.Context) (<-chan model.Notification, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.mu.Unlock()

	ps := r.client.Subscribe(ctx, r.channel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = ps.Close()
		return nil, ErrClosed
	}
	r.subs = append(r.subs, ps)
	r.mu.Unlock()

	out := make(chan model.Notification, defaultBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n model.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					r.logger.Warn(ctx, "dropping malformed notification", logger.Error(err))
					continue
				}
				select {
				case out <- n:
				default:
					metrics.RecordNotificationDropped()
				}
			}
		}
	}()
	return out, nil
}

// Close implements Notifier. Open subscriptions end; the client stays open.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for _, ps := range r.subs {
		_ = ps.Close()
	}
	r.subs = nil
	return nil
}
