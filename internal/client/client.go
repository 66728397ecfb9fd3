// Package client talks to a remote typerush gateway over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/typerush/internal/model"
)

// DefaultTimeout bounds a single request when the caller sets none.
const DefaultTimeout = 5 * time.Second

// ErrStatus is returned (wrapped) when the gateway answers with a non-2xx code.
var ErrStatus = errors.New("unexpected gateway status")

// Client implements the gateway operations against a typerush server.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a client for baseURL. A non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gateway url must be http or https, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// SubmitSession posts a finished session.
func (c *Client) SubmitSession(ctx context.Context, userID string, summary model.SessionSummary) (model.SubmitResult, error) {
	summary.UserID = userID
	if summary.DifficultyName == "" {
		summary.DifficultyName = summary.Difficulty.String()
	}
	body, err := json.Marshal(summary)
	if err != nil {
		return model.SubmitResult{}, fmt.Errorf("failed to encode session: %w", err)
	}
	var out model.SubmitResult
	if err := c.do(ctx, http.MethodPost, "/typing/sessions", nil, body, &out); err != nil {
		return model.SubmitResult{}, fmt.Errorf("failed to submit session: %w", err)
	}
	return out, nil
}

// GetStats fetches the aggregate stats of a player.
func (c *Client) GetStats(ctx context.Context, userID string) (model.UserStats, error) {
	var out model.UserStats
	if err := c.do(ctx, http.MethodGet, "/typing/stats/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return model.UserStats{}, fmt.Errorf("failed to fetch stats: %w", err)
	}
	return out, nil
}

// Leaderboard fetches the top players by metric.
func (c *Client) Leaderboard(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error) {
	q := url.Values{}
	if metric != "" {
		q.Set("metric", metric)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Entries []model.LeaderboardEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/typing/leaderboard", q, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	return out.Entries, nil
}

// Ping checks the gateway health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to reach gateway: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) (err error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
