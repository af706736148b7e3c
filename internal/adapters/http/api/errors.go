package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("service unavailable")
)

func newKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
