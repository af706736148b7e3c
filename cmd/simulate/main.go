package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/strikeboard/internal/simulate"
	"github.com/okian/strikeboard/pkg/logger"
)

const (
	defaultGames       = 3
	defaultSettle      = 2 * time.Second
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		roster  = flag.String("roster", "", "Roster YAML with matches and team members")
		games   = flag.Int("games", defaultGames, "Games per member")
		workers = flag.Int("workers", runtime.NumCPU(), "Games bowled concurrently")
		pace    = flag.Duration("pace", 0, "Pause between rolls of one game")
		settle  = flag.Duration("settle", defaultSettle, "Wait before reading the leaderboard")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed    = flag.Uint64("seed", 0, "Seed for reproducible games")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *roster == "" {
		simulate.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	stats, err := simulate.Run(ctx, &simulate.Config{
		BaseURL:    *baseURL,
		RosterFile: *roster,
		Games:      *games,
		Workers:    *workers,
		Pace:       *pace,
		Settle:     *settle,
		Timeout:    *timeout,
		Seed:       *seed,
	})
	if err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if stats.TeamsMismatched > 0 {
		os.Exit(2)
	}
}
