package game

import "errors"

var (
	// ErrUnknownMetric is returned by ParseMetric for names it does not know.
	ErrUnknownMetric = errors.New("unknown aggregation metric")
	// ErrInvalidGame is returned when a game has no owner or a non-positive number.
	ErrInvalidGame = errors.New("invalid game")
)
