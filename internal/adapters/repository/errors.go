package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPosition = errors.New("invalid team position")
	ErrInvalidGame     = errors.New("score rows do not belong to the game")
	ErrStale           = errors.New("a newer write of the game is already stored")
)
