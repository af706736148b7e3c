package frame

// Validate rejects out-of-range or inconsistent pin counts. It never clamps.
// Frames may be partially entered and gaps between frames are allowed, since
// scorekeepers do not always enter rolls in order.
func Validate(frames []Frame) error {
	if len(frames) != Count {
		return &ValidationError{Field: "frames", Reason: ErrFrameCount.Error()}
	}
	for i, f := range frames {
		n := i + 1
		if f.Number != 0 && f.Number != n {
			return &ValidationError{Frame: n, Field: "number", Reason: "frame out of order"}
		}
		if err := checkRange(n, f); err != nil {
			return err
		}
		if f.Roll2 != nil && f.Roll1 == nil {
			return &ValidationError{Frame: n, Field: "roll2", Reason: "entered before roll1"}
		}
		if f.Roll3 != nil && f.Roll2 == nil {
			return &ValidationError{Frame: n, Field: "roll3", Reason: "entered before roll2"}
		}
		var err error
		if n < Last {
			err = checkRegular(n, f)
		} else {
			err = checkLast(f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkRange(n int, f Frame) error {
	for _, r := range []struct {
		field string
		pins  *int
	}{{"roll1", f.Roll1}, {"roll2", f.Roll2}, {"roll3", f.Roll3}} {
		if r.pins != nil && (*r.pins < 0 || *r.pins > AllPins) {
			return &ValidationError{Frame: n, Field: r.field, Reason: "pin count must be between 0 and 10"}
		}
	}
	return nil
}

func checkRegular(n int, f Frame) error {
	if f.Roll3 != nil {
		return &ValidationError{Frame: n, Field: "roll3", Reason: "only frame 10 has a third roll"}
	}
	if f.Roll1 == nil || f.Roll2 == nil {
		return nil
	}
	if *f.Roll1 == AllPins {
		return &ValidationError{Frame: n, Field: "roll2", Reason: "no second roll after a strike"}
	}
	if *f.Roll1+*f.Roll2 > AllPins {
		return &ValidationError{Frame: n, Field: "roll2", Reason: "more than 10 pins in one frame"}
	}
	return nil
}

func checkLast(f Frame) error {
	if f.Roll1 == nil || f.Roll2 == nil {
		return nil
	}
	r1, r2 := *f.Roll1, *f.Roll2
	if r1 != AllPins && r1+r2 > AllPins {
		return &ValidationError{Frame: Last, Field: "roll2", Reason: "more than 10 pins before the rack is reset"}
	}
	if f.Roll3 == nil {
		return nil
	}
	r3 := *f.Roll3
	switch {
	case r1 == AllPins && r2 != AllPins && r2+r3 > AllPins:
		return &ValidationError{Frame: Last, Field: "roll3", Reason: "more than 10 pins before the rack is reset"}
	case r1 != AllPins && r1+r2 < AllPins:
		return &ValidationError{Frame: Last, Field: "roll3", Reason: "bonus roll requires a strike or spare"}
	}
	return nil
}
