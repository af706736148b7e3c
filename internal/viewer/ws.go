package viewer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/okian/strikeboard/internal/adapters/http/ws"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
)

// DefaultReconnectDelay is the pause between redial attempts.
const DefaultReconnectDelay = 2 * time.Second

// WSDialer connects to the server's websocket and joins one tournament,
// redialling until ctx is done.
type WSDialer struct {
	URL            string
	ReconnectDelay time.Duration
	Clock          clockwork.Clock
	Dialer         *websocket.Dialer
	Logger         logger.Logger
}

// Dial implements Dialer. The first event is Connected or, if the server is
// unreachable, Disconnected.
func (d *WSDialer) Dial(ctx context.Context, tournamentID string) (<-chan ChannelEvent, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	out := make(chan ChannelEvent, 16)
	go d.loop(ctx, tournamentID, out)
	return out, nil
}

func (d *WSDialer) loop(ctx context.Context, tournamentID string, out chan<- ChannelEvent) {
	defer close(out)
	var (
		clock  = d.Clock
		delay  = d.ReconnectDelay
		dialer = d.Dialer
		log    = d.Logger
	)
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if log == nil {
		log = logger.Get().Named("viewer.ws")
	}

	emit := func(ev ChannelEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	up := true // reported state; forces one Disconnected on first failure
	for {
		conn, _, err := dialer.DialContext(ctx, d.URL, nil)
		if err == nil {
			err = conn.WriteJSON(ws.ClientMessage{Type: ws.JoinTournament, TournamentID: tournamentID})
			if err == nil {
				up = true
				if !emit(ChannelEvent{Kind: Connected}) {
					_ = conn.Close()
					return
				}
				err = d.read(ctx, conn, emit)
			}
			_ = conn.Close()
		}
		if ctx.Err() != nil {
			return
		}
		log.Debug(ctx, "channel down", logger.String("url", d.URL), logger.Error(err))
		if up {
			up = false
			if !emit(ChannelEvent{Kind: Disconnected}) {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-clock.After(delay):
		}
	}
}

// read forwards notifications until the connection fails or ctx is done.
func (d *WSDialer) read(ctx context.Context, conn *websocket.Conn, emit func(ChannelEvent) bool) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var n model.Notification
		if err := conn.ReadJSON(&n); err != nil {
			return err
		}
		if !emit(ChannelEvent{Kind: Notification, Notification: n}) {
			return ctx.Err()
		}
	}
}
