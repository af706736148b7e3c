package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/strikeboard/internal/domain/model"
)

// HTTPPuller fetches snapshots from the live-scores endpoint.
type HTTPPuller struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPPuller creates a puller for the server at baseURL.
func NewHTTPPuller(baseURL string) *HTTPPuller {
	return &HTTPPuller{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Pull implements Puller.
func (p *HTTPPuller) Pull(ctx context.Context, tournamentID string) (model.LiveScores, error) {
	endpoint := p.BaseURL + "/api/tournaments/" + url.PathEscape(tournamentID) + "/live-scores"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.LiveScores{}, fmt.Errorf("%w: %w", ErrPull, err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return model.LiveScores{}, fmt.Errorf("%w: %w", ErrPull, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.LiveScores{}, fmt.Errorf("%w: status %d", ErrPull, resp.StatusCode)
	}
	var live model.LiveScores
	if err := json.NewDecoder(resp.Body).Decode(&live); err != nil {
		return model.LiveScores{}, fmt.Errorf("%w: decode: %w", ErrPull, err)
	}
	return live, nil
}
