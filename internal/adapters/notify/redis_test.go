package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/okian/strikeboard/internal/adapters/notify"
	"github.com/okian/strikeboard/internal/domain/model"
)

type RedisNotifierTestSuite struct {
	suite.Suite
	mr       *miniredis.Miniredis
	client   *redis.Client
	notifier *notify.Redis
	ctx      context.Context
	cancel   context.CancelFunc
}

func (s *RedisNotifierTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.ctx, s.cancel = context.WithCancel(context.Background())

	n, err := notify.NewRedis(s.ctx, &notify.RedisConfig{RedisClient: s.client, Channel: "test:notifications"})
	s.Require().NoError(err)
	s.notifier = n
}

func (s *RedisNotifierTestSuite) TearDownTest() {
	s.cancel()
	_ = s.notifier.Close()
	s.client.Close()
	s.mr.Close()
}

func TestRedisNotifierTestSuite(t *testing.T) {
	suite.Run(t, new(RedisNotifierTestSuite))
}

func (s *RedisNotifierTestSuite) TestPublishReachesEverySubscriber() {
	first, err := s.notifier.Subscribe(s.ctx)
	s.Require().NoError(err)
	second, err := s.notifier.Subscribe(s.ctx)
	s.Require().NoError(err)

	sent := model.Notification{Type: model.SlotsUpdated, TournamentID: "spring-open"}
	s.Require().NoError(s.notifier.Publish(s.ctx, sent))

	for _, ch := range []<-chan model.Notification{first, second} {
		select {
		case got := <-ch:
			s.Equal(sent, got)
		case <-time.After(2 * time.Second):
			s.Fail("notification not delivered")
		}
	}
}

func (s *RedisNotifierTestSuite) TestMalformedPayloadIsSkipped() {
	ch, err := s.notifier.Subscribe(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.client.Publish(s.ctx, "test:notifications", "not json").Err())
	sent := model.Notification{Type: model.ScoreUpdated, TournamentID: "t1"}
	s.Require().NoError(s.notifier.Publish(s.ctx, sent))

	select {
	case got := <-ch:
		s.Equal(sent, got)
	case <-time.After(2 * time.Second):
		s.Fail("notification not delivered")
	}
}

func (s *RedisNotifierTestSuite) TestSubscriptionEndsWithContext() {
	subCtx, subCancel := context.WithCancel(s.ctx)
	ch, err := s.notifier.Subscribe(subCtx)
	s.Require().NoError(err)
	subCancel()

	select {
	case _, ok := <-ch:
		s.False(ok)
	case <-time.After(2 * time.Second):
		s.Fail("subscription channel not closed")
	}
}

func (s *RedisNotifierTestSuite) TestClosedNotifierRefusesWork() {
	s.Require().NoError(s.notifier.Close())

	s.ErrorIs(s.notifier.Publish(s.ctx, model.Notification{Type: model.ScoreUpdated}), notify.ErrClosed)
	_, err := s.notifier.Subscribe(s.ctx)
	s.ErrorIs(err, notify.ErrClosed)
}

func (s *RedisNotifierTestSuite) TestFailedSubscribeLeavesNothingBehind() {
	s.mr.Close()

	_, err := s.notifier.Subscribe(s.ctx)
	s.Error(err)
	s.NoError(s.notifier.Close())
}

func (s *RedisNotifierTestSuite) TestNewRedisRequiresClient() {
	_, err := notify.NewRedis(s.ctx, nil)
	s.ErrorIs(err, notify.ErrInvalidConfig)
}
