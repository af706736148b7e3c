package viewer

import "errors"

var (
	// ErrPull marks a failed fetch of the live score snapshot.
	ErrPull = errors.New("viewer: pull failed")
	// ErrDial is returned when the channel cannot be set up at all.
	ErrDial = errors.New("viewer: dial failed")
)
