// Package handicap derives a per-game handicap from a bowler's average.
package handicap

import "math"

// Config is the tournament-level handicap setting.
type Config struct {
	BaseScore float64 // target average every bowler is normalized to
	Percent   float64 // share of the gap that is awarded, e.g. 80
}

// Calculate returns max(0, round((baseScore-average) * percent / 100)).
// Bowlers at or above the base score receive no handicap.
func Calculate(average, baseScore, percent float64) int {
	h := math.Round((baseScore - average) * percent / 100)
	if h <= 0 {
		return 0
	}
	return int(h)
}

// For applies the configuration to an average.
func (c Config) For(average float64) int {
	return Calculate(average, c.BaseScore, c.Percent)
}
