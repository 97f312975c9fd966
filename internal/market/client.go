// Package market fetches historical equity data from the NSE India API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockpulse/internal/logging"
)

const (
	defaultBaseURL = "https://www.nseindia.com"
	historicalPath = "/api/historical/cm/equity"

	// windowDays bounds each request range; the upstream API truncates
	// larger spans silently
	windowDays = 30

	// fetchConcurrency limits parallel window requests so the upstream
	// does not throttle us
	fetchConcurrency = 3
)

// Client talks to the NSE historical data API. The exchange requires a
// cookie bootstrap against the landing page before data endpoints respond.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.Mutex
	cookies []*http.Cookie
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a market data client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// browserHeaders mimic a desktop browser; the exchange rejects bare clients.
func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Connection":      "keep-alive",
	}
}

// refreshCookies performs the landing-page request that issues the session
// cookies required by the data endpoints.
func (c *Client) refreshCookies(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to build cookie request: %w", err)
	}
	for k, v := range browserHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch cookies: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Cleanup, error not critical
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // Drain for connection reuse

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cookie bootstrap returned status %d", resp.StatusCode)
	}

	c.mu.Lock()
	c.cookies = resp.Cookies()
	c.mu.Unlock()

	logging.Debug("Refreshed %d upstream cookies", len(resp.Cookies()))
	return nil
}

// historicalResponse is the upstream payload shape.
type historicalResponse struct {
	Data []historicalRow `json:"data"`
}

// historicalRow carries the subset of upstream columns we keep.
type historicalRow struct {
	Timestamp string  `json:"CH_TIMESTAMP"`
	Symbol    string  `json:"CH_SYMBOL"`
	High      float64 `json:"CH_TRADE_HIGH_PRICE"`
	Low       float64 `json:"CH_TRADE_LOW_PRICE"`
	Open      float64 `json:"CH_OPENING_PRICE"`
	Close     float64 `json:"CH_CLOSING_PRICE"`
}

// FetchHistory retrieves OHLC candles for symbol between start and end
// (inclusive), splitting the range into 30-day windows fetched over a small
// concurrent pool, then merging and sorting the result by date.
func (c *Client) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]Candle, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s", end.Format(DateLayout), start.Format(DateLayout))
	}

	if err := c.refreshCookies(ctx); err != nil {
		return nil, err
	}

	windows := splitWindows(start, end, windowDays)
	logging.Debug("Fetching %s history across %d windows", symbol, len(windows))

	results := make([][]Candle, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, w := range windows {
		g.Go(func() error {
			candles, err := c.fetchWindow(gctx, symbol, w.start, w.end)
			if err != nil {
				return err
			}
			results[i] = candles
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Candle
	for _, candles := range results {
		merged = append(merged, candles...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	return merged, nil
}

type window struct {
	start, end time.Time
}

// splitWindows cuts [start, end] into consecutive spans of at most days days.
func splitWindows(start, end time.Time, days int) []window {
	var windows []window
	for cur := start; !cur.After(end); {
		wEnd := cur.AddDate(0, 0, days)
		if wEnd.After(end) {
			wEnd = end
		}
		windows = append(windows, window{start: cur, end: wEnd})
		cur = wEnd.AddDate(0, 0, 1)
	}
	return windows
}

// fetchWindow retrieves one date window of historical rows.
func (c *Client) fetchWindow(ctx context.Context, symbol string, start, end time.Time) ([]Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("series", `["EQ"]`)
	params.Set("from", start.Format(DateLayout))
	params.Set("to", end.Format(DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+historicalPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	for k, v := range browserHeaders() {
		req.Header.Set(k, v)
	}
	c.mu.Lock()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Cleanup, error not critical

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d for %s window %s to %s",
			resp.StatusCode, symbol, start.Format(DateLayout), end.Format(DateLayout))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response received from upstream")
	}

	var payload historicalResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON from upstream: %w", err)
	}

	candles := make([]Candle, 0, len(payload.Data))
	for _, row := range payload.Data {
		date, err := time.Parse("2006-01-02", row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q from upstream: %w", row.Timestamp, err)
		}
		candles = append(candles, Candle{
			Date:   date,
			Symbol: row.Symbol,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
		})
	}
	return candles, nil
}
