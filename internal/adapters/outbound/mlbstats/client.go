package mlbstats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/charleschow/mlb-winprob/internal/telemetry"
)

const DefaultBaseURL = "https://statsapi.mlb.com/api"

// ErrNotFound is returned when the Stats API has no such game.
var ErrNotFound = errors.New("mlbstats: not found")

// Client talks to the public MLB Stats API. Requests share one rate
// limiter, and concurrent reads of the same live feed share one request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	feeds      singleflight.Group
}

func NewClient(baseURL string, ratePerSec float64, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	burst := max(int(ratePerSec), 1)
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	telemetry.Metrics.RateLimiterWait.Since(waitStart)

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	telemetry.Metrics.StatsAPILatency.Since(start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	telemetry.Debugf("mlbstats: GET %s -> %d (%s)", path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("mlbstats: GET %s: status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// liveFeed fetches the v1.1 live feed for one game. Callers racing on the
// same gamePk get the same response.
func (c *Client) liveFeed(ctx context.Context, gamePk int) (*feedResponse, error) {
	key := strconv.Itoa(gamePk)
	// The shared fetch must not die with whichever caller started it; the
	// client timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.feeds.DoChan(key, func() (any, error) {
		var feed feedResponse
		if err := c.getJSON(fetchCtx, fmt.Sprintf("/v1.1/game/%d/feed/live", gamePk), &feed); err != nil {
			return nil, err
		}
		return &feed, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*feedResponse), nil
	}
}
