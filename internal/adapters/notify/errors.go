package notify

import "errors"

// Sentinel kinds for notifier errors.
var (
	ErrClosed        = errors.New("notifier closed")
	ErrInvalidConfig = errors.New("invalid notifier config")
)
