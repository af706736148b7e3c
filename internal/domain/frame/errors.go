package frame

import (
	"errors"
	"fmt"
)

// Sentinel kinds for frame errors.
var (
	ErrInvalidFrame = errors.New("invalid frame")
	ErrFrameCount   = errors.New("a game has exactly 10 frames")
)

// ValidationError describes the first rule a frame sequence broke.
type ValidationError struct {
	Frame  int    // 1-based frame number, 0 when the error concerns the whole game
	Field  string // roll1, roll2, roll3, number or frames
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Frame == 0 {
		return fmt.Sprintf("invalid frames: %s", e.Reason)
	}
	return fmt.Sprintf("frame %d %s: %s", e.Frame, e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidFrame).
func (e *ValidationError) Unwrap() error { return ErrInvalidFrame }
