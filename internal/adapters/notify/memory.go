package notify

import (
	"context"
	"sync"

	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/metrics"
)

// Memory is an in-process Notifier for single-instance deployments.
type Memory struct {
	mu     sync.Mutex
	subs   map[chan model.Notification]struct{}
	buffer int
	closed bool
}

var _ Notifier = (*Memory)(nil)

// NewMemory creates an in-process notifier.
func NewMemory() *Memory {
	return &Memory{
		subs:   make(map[chan model.Notification]struct{}),
		buffer: defaultBuffer,
	}
}

// Publish implements Notifier.
func (m *Memory) Publish(_ context.Context, n model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	metrics.RecordNotificationPublished(n.Type)
	for ch := range m.subs {
		select {
		case ch <- n:
		default:
			metrics.RecordNotificationDropped()
		}
	}
	return nil
}

// Subscribe implements Notifier.
func (m *Memory) Subscribe(ctx context.Context) (<-chan model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	ch := make(chan model.Notification, m.buffer)
	m.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}()
	return ch, nil
}

// Close implements Notifier. Every subscriber channel is closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}
	return nil
}
