package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/okian/strikeboard/internal/config"
	"github.com/okian/strikeboard/internal/domain/standings"
	"github.com/okian/strikeboard/internal/viewer"
	"github.com/okian/strikeboard/internal/viewer/render"
	"github.com/okian/strikeboard/pkg/logger"
)

const clearScreen = "\033[H\033[2J"

func main() {
	tournament := flag.String("tournament", "", "Tournament to follow (overrides viewer_tournament_id)")
	noClear := flag.Bool("no-clear", false, "Append boards instead of redrawing the screen")
	flag.Parse()

	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("viewer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Debug(ctx, "no .env file loaded", logger.Error(err))
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	if *tournament != "" {
		cfg.ViewerTournamentID = *tournament
	}
	if cfg.ViewerTournamentID == "" {
		log.Error(ctx, "no tournament given; set -tournament or STRIKEBOARD_VIEWER_TOURNAMENT_ID")
		os.Exit(2)
	}

	wsURL, err := websocketURL(cfg.ViewerServerURL)
	if err != nil {
		log.Error(ctx, "invalid viewer_server_url", logger.String("url", cfg.ViewerServerURL), logger.Error(err))
		os.Exit(1)
	}

	session := viewer.New(cfg.ViewerTournamentID,
		&viewer.WSDialer{URL: wsURL, ReconnectDelay: cfg.ReconnectDelay(), Logger: log.Named("ws")},
		viewer.NewHTTPPuller(cfg.ViewerServerURL),
		viewer.WithPollInterval(cfg.PollInterval()),
		viewer.WithMetric(cfg.Metric()),
		viewer.WithLogger(log),
		viewer.WithOnState(func(s viewer.State) {
			log.Info(ctx, "channel state changed", logger.String("state", s.String()))
		}),
		viewer.WithOnBoard(func(b standings.Board) {
			if !*noClear {
				_, _ = io.WriteString(os.Stdout, clearScreen)
			}
			if err := draw(os.Stdout, cfg.ViewerTournamentID, b); err != nil {
				log.Warn(ctx, "render failed", logger.Error(err))
			}
		}),
	)

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "viewer stopped", logger.Error(err))
		os.Exit(1)
	}
}

// draw writes the standings table followed by the per-lane view.
func draw(w io.Writer, tournamentID string, b standings.Board) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", tournamentID); err != nil {
		return err
	}
	if err := render.Standings(w, b); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return render.Lanes(w, b)
}

// websocketURL maps the server's base URL onto its /ws endpoint.
func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
