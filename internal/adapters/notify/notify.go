// Package notify carries payload-free "tournament changed" signals from the
// scoring side to every process that serves viewers.
package notify

import (
	"context"

	"github.com/okian/strikeboard/internal/domain/model"
)

const defaultBuffer = 64

// Notifier publishes notifications and fans them out to subscribers.
type Notifier interface {
	Publish(ctx context.Context, n model.Notification) error
	// Subscribe returns a channel that receives every notification published
	// after the call. The channel closes when ctx is done or the notifier is
	// closed. Slow subscribers lose notifications instead of blocking
	// publishers.
	Subscribe(ctx context.Context) (<-chan model.Notification, error)
	Close() error
}
