// Package searchapi implements the metered JSON search API provider.
package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

const engine = "google_trends_trending_now"

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// MinInterval spaces consecutive requests so concurrent regions do not
	// burn quota in a burst.
	MinInterval   time.Duration
	Locales       map[string]string
	DefaultLocale string
}

// Client implements source.Provider against a SerpApi-compatible search
// endpoint. Every request consumes paid quota.
type Client struct {
	apiKey        string
	httpClient    *http.Client
	baseURL       string
	limiter       *rate.Limiter
	locales       map[string]string
	defaultLocale string
	clock         clockwork.Clock
	logger        *slog.Logger
}

// NewClient creates a search API client.
func NewClient(opts Options, clock clockwork.Clock, logger *slog.Logger) *Client {
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Client{
		apiKey: opts.APIKey,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:       opts.BaseURL,
		limiter:       rate.NewLimiter(limit, 1),
		locales:       maps.Clone(opts.Locales),
		defaultLocale: opts.DefaultLocale,
		clock:         clock,
		logger:        logger,
	}
}

func (c *Client) Name() string                  { return "search_api" }
func (c *Client) Provenance() domain.Provenance { return domain.ProvenanceSearchAPI }

// Locale maps a region to the request locale, falling back to the default.
func (c *Client) Locale(region domain.Region) string {
	if l, ok := c.locales[string(region)]; ok && l != "" {
		return l
	}
	return c.defaultLocale
}

// Attempt fetches the region's trending searches in the order the API ranks
// them. Without an API key the provider is skipped.
func (c *Client) Attempt(ctx context.Context, region domain.Region) ([]domain.Row, error) {
	if c.apiKey == "" {
		return nil, domain.ErrProviderSkipped
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search api rate limit: %w", err)
	}

	params := url.Values{
		"engine":  {engine},
		"geo":     {string(region)},
		"hl":      {c.Locale(region)},
		"api_key": {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search api request: %w", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search api error: status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("search api error: %s", out.Error)
	}

	now := c.clock.Now()
	rows := make([]domain.Row, 0, len(out.TrendingSearches))
	for _, s := range out.TrendingSearches {
		row := domain.Row{Title: s.Query}
		if s.SearchVolume > 0 {
			row.SearchVolume = formatVolume(s.SearchVolume)
		}
		if s.StartTimestamp > 0 {
			row.StartedAgo = humanize.RelTime(time.Unix(s.StartTimestamp, 0), now, "ago", "from now")
		}
		rows = append(rows, row)
	}
	c.logger.Debug("search api answered", "region", region, "rows", len(rows))
	return rows, nil
}

// formatVolume renders a search count the way the trending page labels it,
// e.g. 200000 -> "200K+", 2500000 -> "2M+".
func formatVolume(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatInt(n/1_000_000, 10) + "M+"
	case n >= 1_000:
		return strconv.FormatInt(n/1_000, 10) + "K+"
	default:
		return strconv.FormatInt(n, 10) + "+"
	}
}

// redactKey keeps the API key out of logged transport errors, which embed
// the request URL.
func redactKey(err error, key string) error {
	msg := err.Error()
	if key == "" || !strings.Contains(msg, key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(msg, key, "REDACTED"))
}

// Search API response types.

type response struct {
	Error            string           `json:"error"`
	TrendingSearches []trendingSearch `json:"trending_searches"`
}

type trendingSearch struct {
	Query          string `json:"query"`
	SearchVolume   int64  `json:"search_volume"`
	StartTimestamp int64  `json:"start_timestamp"`
}
