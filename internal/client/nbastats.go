package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/metrics"
	"github.com/dwlarson10/basketball-stats/internal/models"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public NBA Stats API root.
const DefaultBaseURL = "https://stats.nba.com/stats"

// Measure selects which statistical table variant an endpoint returns.
type Measure string

const (
	MeasureBase     Measure = "Base"
	MeasureAdvanced Measure = "Advanced"
)

// Client is the NBA Stats API client. The stats endpoints rate-limit
// aggressively, so requests are throttled with a polite delay and retried
// with exponential backoff on transient failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	reqDelay   time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// Options tune retry and throttling behavior. Zero values fall back to
// defaults suited to the public API.
type Options struct {
	MaxRetries   int
	RetryDelay   time.Duration
	RequestDelay time.Duration
}

// NewClient creates a new NBA Stats API client.
func NewClient(baseURL string, timeout time.Duration, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 1 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		reqDelay:   opts.RequestDelay,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// throttle enforces the polite inter-request delay.
func (c *Client) throttle(ctx context.Context) error {
	if c.reqDelay <= 0 {
		return nil
	}

	c.mu.Lock()
	wait := c.reqDelay - time.Since(c.lastCall)
	if wait <= 0 {
		c.lastCall = time.Now()
		c.mu.Unlock()
		return nil
	}
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// get performs a GET request against the stats API with retry logic.
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		// stats.nba.com rejects requests without browser-ish headers.
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Referer", "https://www.nba.com/")
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}

		log.Debug().
			Str("url", url).
			Int("attempt", attempt+1).
			Msg("Making API request")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordAPICall(path, "network_error", time.Since(start).Seconds())
			lastErr = fmt.Errorf("API request failed: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		metrics.RecordAPICall(path, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

		switch resp.StatusCode {
		case http.StatusOK:
			log.Debug().
				Str("url", url).
				Int("size", len(body)).
				Msg("API request successful")
			return body, nil

		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d", resp.StatusCode)
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, lastErr

		default:
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}

// fetchDash requests one LeagueDash table and decodes its first result set.
// The stats endpoints return complete tables per season, so an empty rowSet
// is the end-of-data signal.
func (c *Client) fetchDash(ctx context.Context, path string, lg league.League, seasonYear int, seasonType league.SeasonType, perMode league.PerMode, measure Measure) (*models.ResultSet, error) {
	params := map[string]string{
		"LeagueID":       string(lg),
		"Season":         league.SeasonString(seasonYear),
		"SeasonType":     string(seasonType),
		"PerMode":        string(perMode),
		"MeasureType":    string(measure),
		"PaceAdjust":     "N",
		"PlusMinus":      "N",
		"Rank":           "N",
		"LastNGames":     "0",
		"Month":          "0",
		"OpponentTeamID": "0",
		"Period":         "0",
		"SeasonSegment":  "",
		"DateFrom":       "",
		"DateTo":         "",
	}

	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	var resp models.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}

	return resp.First()
}

// FetchTeamStats fetches the league-wide team table for a season.
func (c *Client) FetchTeamStats(ctx context.Context, lg league.League, seasonYear int, seasonType league.SeasonType, perMode league.PerMode, measure Measure) (*models.ResultSet, error) {
	return c.fetchDash(ctx, "leaguedashteamstats", lg, seasonYear, seasonType, perMode, measure)
}

// FetchPlayerStats fetches the league-wide player table for a season.
func (c *Client) FetchPlayerStats(ctx context.Context, lg league.League, seasonYear int, seasonType league.SeasonType, perMode league.PerMode, measure Measure) (*models.ResultSet, error) {
	return c.fetchDash(ctx, "leaguedashplayerstats", lg, seasonYear, seasonType, perMode, measure)
}
