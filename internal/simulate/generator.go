package simulate

import (
	"math/rand/v2"

	"github.com/okian/strikeboard/internal/domain/frame"
)

// Skill bounds for generated bowlers; the chance of clearing the pins still
// standing is baseClear + skill*skillClear.
const (
	baseClear  = 0.1
	skillClear = 0.5
)

// roll knocks down some of the standing pins.
func roll(r *rand.Rand, skill float64, standing int) int {
	if standing == 0 {
		return 0
	}
	if r.Float64() < baseClear+skill*skillClear {
		return standing
	}
	return r.IntN(standing)
}

// PlayGame bowls one game and returns the frames as a scorekeeper would
// enter them: one snapshot after every roll. The last snapshot is the
// finished game.
func PlayGame(r *rand.Rand, skill float64) [][]frame.Frame {
	frames := frame.Empty()
	var snapshots [][]frame.Frame
	record := func(i, pins int) {
		f := &frames[i]
		switch {
		case f.Roll1 == nil:
			f.Roll1 = frame.Pins(pins)
		case f.Roll2 == nil:
			f.Roll2 = frame.Pins(pins)
		default:
			f.Roll3 = frame.Pins(pins)
		}
		snapshot := make([]frame.Frame, len(frames))
		copy(snapshot, frames)
		snapshots = append(snapshots, snapshot)
	}

	for i := 0; i < frame.Count-1; i++ {
		first := roll(r, skill, frame.AllPins)
		record(i, first)
		if first < frame.AllPins {
			record(i, roll(r, skill, frame.AllPins-first))
		}
	}

	last := frame.Count - 1
	first := roll(r, skill, frame.AllPins)
	record(last, first)
	if first == frame.AllPins {
		second := roll(r, skill, frame.AllPins)
		record(last, second)
		standing := frame.AllPins - second
		if second == frame.AllPins {
			standing = frame.AllPins
		}
		record(last, roll(r, skill, standing))
		return snapshots
	}
	second := roll(r, skill, frame.AllPins-first)
	record(last, second)
	if first+second == frame.AllPins {
		record(last, roll(r, skill, frame.AllPins))
	}
	return snapshots
}
