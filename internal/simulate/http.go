package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Submission outcomes.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)

// HTTPClient talks to the scoring API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submit posts one snapshot and classifies the reply.
func (c *HTTPClient) submit(ctx context.Context, body scoreRequest) string {
	resp, err := c.Post(ctx, "/api/scores", body)
	if err != nil {
		return resultFailed
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return resultAccepted
	case http.StatusOK:
		var ack struct {
			Duplicate bool `json:"duplicate"`
		}
		if json.NewDecoder(resp.Body).Decode(&ack) == nil && ack.Duplicate {
			return resultDuplicate
		}
		return resultAccepted
	default:
		return resultFailed
	}
}

// leaderboard fetches the server-side standings for a tournament.
func (c *HTTPClient) leaderboard(ctx context.Context, tournamentID string) (leaderboardResponse, error) {
	var out leaderboardResponse
	resp, err := c.Get(ctx, "/api/tournaments/"+url.PathEscape(tournamentID)+"/leaderboard?metric=TEAM_TOTAL")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("leaderboard: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("leaderboard: %w", err)
	}
	return out, nil
}
