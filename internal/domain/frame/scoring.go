package frame

// strikeBonusRolls and spareBonusRolls are the lookahead widths.
const (
	strikeBonusRolls = 2
	spareBonusRolls  = 1
)

// ComputeRunningTotals scores a game. It never mutates its input: the
// returned frames are copies with IsStrike, IsSpare, Score and RunningTotal
// populated. Roll values are assumed to have passed Validate.
//
// A running total is left nil when its own frame or any earlier frame cannot
// be scored yet, so a late roll entered for an earlier frame changes every
// downstream total on the next call.
func ComputeRunningTotals(frames []Frame) ([]Frame, error) {
	if len(frames) != Count {
		return nil, ErrFrameCount
	}

	out := make([]Frame, Count)
	for i, f := range frames {
		out[i] = Frame{
			Number: i + 1,
			Roll1:  clone(f.Roll1),
			Roll2:  clone(f.Roll2),
			Roll3:  clone(f.Roll3),
		}
	}

	running := 0
	scorable := true
	for i := range out {
		out[i].Score = score(out, i)
		if out[i].Score == nil {
			scorable = false
		}
		if scorable {
			running += *out[i].Score
			out[i].RunningTotal = Pins(running)
		}
	}
	return out, nil
}

// score marks strike/spare on frames[i] and returns its score, or nil while
// a roll it depends on is missing.
func score(frames []Frame, i int) *int {
	f := &frames[i]
	if f.Roll1 != nil {
		f.IsStrike = *f.Roll1 == AllPins
	}
	if !f.IsStrike && f.Roll1 != nil && f.Roll2 != nil {
		f.IsSpare = *f.Roll1+*f.Roll2 == AllPins
	}

	if f.Number == Last {
		if f.Roll1 == nil || f.Roll2 == nil {
			return nil
		}
		pins := *f.Roll1 + *f.Roll2
		if f.IsStrike || f.IsSpare {
			if f.Roll3 == nil {
				return nil
			}
			pins += *f.Roll3
		}
		return Pins(pins)
	}

	switch {
	case f.Roll1 == nil:
		return nil
	case f.IsStrike:
		return withBonus(AllPins, bonusRolls(frames, i, strikeBonusRolls), strikeBonusRolls)
	case f.Roll2 == nil:
		return nil
	case f.IsSpare:
		return withBonus(AllPins, bonusRolls(frames, i, spareBonusRolls), spareBonusRolls)
	default:
		return Pins(*f.Roll1 + *f.Roll2)
	}
}

func withBonus(base int, bonus []int, want int) *int {
	if len(bonus) < want {
		return nil
	}
	for _, pins := range bonus {
		base += pins
	}
	return Pins(base)
}

// bonusRolls returns up to n entered rolls that follow frame i, in the order
// they were bowled. Frame 10 contributes its rolls in sequence. Collection
// stops at the first missing roll.
func bonusRolls(frames []Frame, i, n int) []int {
	rolls := make([]int, 0, n)
	for j := i + 1; j < Count; j++ {
		next := frames[j]
		seq := []*int{next.Roll1}
		switch {
		case next.Number == Last:
			seq = append(seq, next.Roll2, next.Roll3)
		case next.Roll1 == nil || *next.Roll1 != AllPins:
			seq = append(seq, next.Roll2)
		}
		for _, r := range seq {
			if r == nil {
				return rolls
			}
			rolls = append(rolls, *r)
			if len(rolls) == n {
				return rolls
			}
		}
	}
	return rolls
}

// Total returns the latest determined running total and whether the whole
// game (frame 10) is scored.
func Total(scored []Frame) (total int, complete bool) {
	for _, f := range scored {
		if f.RunningTotal != nil {
			total = *f.RunningTotal
		}
	}
	if len(scored) == Count && scored[Count-1].RunningTotal != nil {
		complete = true
	}
	return total, complete
}
