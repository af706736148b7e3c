package game

import (
	"fmt"
	"math"
	"strings"
)

// Metric selects how a member's games fold into one member total.
type Metric string

// Supported metrics.
const (
	TeamTotal  Metric = "TEAM_TOTAL"
	AvgOfGames Metric = "AVG_OF_GAMES"
	BestGame   Metric = "BEST_GAME"
)

// ParseMetric accepts metric names case-insensitively. An empty name is TeamTotal.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return TeamTotal, nil
	case TeamTotal, AvgOfGames, BestGame:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Combine folds per-game scores: sum, rounded mean or maximum.
func (m Metric) Combine(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	switch m {
	case AvgOfGames:
		sum := 0
		for _, s := range scores {
			sum += s
		}
		return int(math.Round(float64(sum) / float64(len(scores))))
	case BestGame:
		best := scores[0]
		for _, s := range scores[1:] {
			best = max(best, s)
		}
		return best
	default:
		sum := 0
		for _, s := range scores {
			sum += s
		}
		return sum
	}
}
