// Package frame models the ten frames of a bowling game and scores them.
package frame

// Game-shape constants.
const (
	Count   = 10 // frames per game
	Last    = 10 // the terminal frame number
	AllPins = 10
)

// Frame is one of the ten ordered slots of a game. Nil rolls are not yet
// entered. Score and RunningTotal stay nil until every roll they depend on
// is known; consumers must treat nil as "not yet scorable", never as zero.
type Frame struct {
	Number int  `json:"frame"`
	Roll1  *int `json:"roll1"`
	Roll2  *int `json:"roll2"`
	Roll3  *int `json:"roll3,omitempty"`

	IsStrike     bool `json:"isStrike"`
	IsSpare      bool `json:"isSpare"`
	Score        *int `json:"frameScore"`
	RunningTotal *int `json:"runningTotal"`
}

// Pins returns a pointer to n, for building frames in code and tests.
func Pins(n int) *int { return &n }

// New builds a frame from roll values. Fewer values leave later rolls unset.
func New(number int, rolls ...int) Frame {
	f := Frame{Number: number}
	if len(rolls) > 0 {
		f.Roll1 = Pins(rolls[0])
	}
	if len(rolls) > 1 {
		f.Roll2 = Pins(rolls[1])
	}
	if len(rolls) > 2 {
		f.Roll3 = Pins(rolls[2])
	}
	return f
}

// Empty returns ten unset frames numbered 1..10.
func Empty() []Frame {
	frames := make([]Frame, Count)
	for i := range frames {
		frames[i].Number = i + 1
	}
	return frames
}

// Started reports whether any roll of the frame was entered.
func (f Frame) Started() bool { return f.Roll1 != nil }

// Value dereferences a roll or score, treating unset as zero.
func Value(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func clone(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
