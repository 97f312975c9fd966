// Package news fetches stock headlines from NewsAPI and ranks them by
// estimated market impact.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"stockpulse/internal/logging"
)

const (
	defaultBaseURL = "https://newsapi.org"
	everythingPath = "/v2/everything"

	// lookbackDays bounds how far back headlines are searched
	lookbackDays = 30

	// maxFetched caps how many articles are pulled per request
	maxFetched = 10

	// maxReturned caps how many scored items a query yields
	maxReturned = 5
)

// Item is a scored, classified headline.
type Item struct {
	Date      string `json:"date"`
	Headline  string `json:"headline"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
	Impact    string `json:"impact"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	ImageURL  string `json:"image_url"`

	score int
}

// Client queries NewsAPI for symbol-related headlines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	aliases    map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithAliases installs a symbol-to-company-name mapping used to widen the
// search query.
func WithAliases(aliases map[string]string) Option {
	return func(c *Client) {
		c.aliases = aliases
	}
}

// NewClient returns a news client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		aliases:    defaultAliases(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultAliases covers the most-traded NSE symbols; a YAML file can extend
// or replace this set.
func defaultAliases() map[string]string {
	return map[string]string{
		"RELIANCE": "Reliance Industries",
		"TCS":      "Tata Consultancy Services",
		"INFY":     "Infosys",
		"HDFCBANK": "HDFC Bank",
	}
}

type apiResponse struct {
	Status   string       `json:"status"`
	Articles []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// Fetch returns the top headlines for a symbol, scored and sorted by impact.
func (c *Client) Fetch(ctx context.Context, symbol string) ([]Item, error) {
	cleaned := cleanSymbol(symbol)
	query := cleaned
	if name, ok := c.aliases[cleaned]; ok {
		query = name
	}
	query += " stock market OR finance OR trading"

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", time.Now().AddDate(0, 0, -lookbackDays).Format("2006-01-02"))
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprint(maxFetched))
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+everythingPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build news request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Cleanup, error not critical

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON from news API: %w", err)
	}

	items := make([]Item, 0, len(payload.Articles))
	for _, article := range payload.Articles {
		item, ok := classify(article, cleaned)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].Date > items[j].Date
	})
	if len(items) > maxReturned {
		items = items[:maxReturned]
	}

	logging.Debug("News query for %s returned %d scored items", symbol, len(items))
	return items, nil
}

// cleanSymbol strips exchange suffixes.
func cleanSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.TrimSuffix(s, ".NSE")
	s = strings.TrimSuffix(s, ".NS")
	return s
}
