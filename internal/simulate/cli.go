package simulate

import "os"

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Strikeboard score simulator
===========================

Bowls every member of a roster through their games, one roll per request,
then checks the server's team totals against what was bowled.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -roster string     Roster YAML with matches and team members (required)
  -games int         Games per member (default 3)
  -workers int       Games bowled concurrently (default CPU cores)
  -pace duration     Pause between rolls of one game (default 0)
  -settle duration   Wait before reading the leaderboard (default 2s)
  -timeout duration  HTTP request timeout (default 10s)
  -seed uint         Seed for reproducible games (default random)
  -help              Show this help message

Examples:
  go run ./cmd/simulate -roster deploy/roster.yaml
  go run ./cmd/simulate -roster deploy/roster.yaml -pace 500ms -workers 4
`)
}
