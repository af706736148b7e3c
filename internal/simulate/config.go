package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	RosterFile string        // Roster YAML naming the matches and members to play
	Games      int           // Games per member
	Workers    int           // Games played concurrently
	Pace       time.Duration // Pause between rolls of one game
	Settle     time.Duration // Wait before reading the leaderboard
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for reproducible games; 0 picks one
}

// Stats holds run statistics.
type Stats struct {
	GamesPlayed     int
	RollsSubmitted  int
	RollsAccepted   int
	RollsDuplicate  int
	RollsFailed     int
	TeamsVerified   int
	TeamsMismatched int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
