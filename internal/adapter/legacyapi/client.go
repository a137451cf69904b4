// Package legacyapi implements the keyless legacy trends endpoints: the
// per-market hot list and the realtime stories feed.
package legacyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

const (
	hotListPath  = "/trends/hottrends/visualize/internal/data"
	realtimePath = "/trends/api/realtimetrends"
)

// xssiPrefix guards the realtime JSON body against script inclusion.
var xssiPrefix = []byte(")]}'")

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// MarketNames maps a region code to the hot-list market name.
	MarketNames       map[string]string
	DefaultMarketName string
	Locale            string
}

// Client implements source.Provider using the legacy endpoints. The hot
// list is tried first, then the realtime feed.
type Client struct {
	httpClient        *http.Client
	baseURL           string
	marketNames       map[string]string
	defaultMarketName string
	locale            string
	logger            *slog.Logger
}

// NewClient creates a legacy API client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	locale := opts.Locale
	if locale == "" {
		locale = "en-US"
	}
	return &Client{
		httpClient:        &http.Client{Timeout: opts.Timeout},
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		marketNames:       maps.Clone(opts.MarketNames),
		defaultMarketName: opts.DefaultMarketName,
		locale:            locale,
		logger:            logger,
	}
}

func (c *Client) Name() string                  { return "legacy_api" }
func (c *Client) Provenance() domain.Provenance { return domain.ProvenanceLegacyAPI }

// MarketName maps a region to its hot-list market, falling back to the
// default market.
func (c *Client) MarketName(region domain.Region) string {
	if n, ok := c.marketNames[string(region)]; ok && n != "" {
		return n
	}
	return c.defaultMarketName
}

// Attempt returns the hot list when it has usable titles, otherwise the
// realtime feed. Both failing yields the joined error.
func (c *Client) Attempt(ctx context.Context, region domain.Region) ([]domain.Row, error) {
	hot, hotErr := c.HotList(ctx, c.MarketName(region))
	if hotErr == nil && len(domain.Normalize(domain.TextRows(hot...))) > 0 {
		return domain.TextRows(hot...), nil
	}
	if hotErr != nil {
		c.logger.Debug("hot list unavailable", "region", region, "error", hotErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(hotErr, err)
	}

	live, liveErr := c.Realtime(ctx, region)
	if liveErr != nil {
		return nil, errors.Join(hotErr, liveErr)
	}
	return domain.TextRows(live...), nil
}

// HotList fetches the hot searches of one market.
func (c *Client) HotList(ctx context.Context, market string) ([]string, error) {
	body, err := c.get(ctx, hotListPath, nil)
	if err != nil {
		return nil, fmt.Errorf("hot list: %w", err)
	}
	var markets map[string][]string
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("decode hot list: %w", err)
	}
	return markets[market], nil
}

// Realtime fetches the realtime trending stories of a region. A story's
// title is used when present, otherwise its entity names joined by ", ".
func (c *Client) Realtime(ctx context.Context, region domain.Region) ([]string, error) {
	params := url.Values{
		"hl":   {c.locale},
		"tz":   {"360"},
		"cat":  {"all"},
		"fi":   {"0"},
		"fs":   {"0"},
		"geo":  {string(region)},
		"ri":   {"300"},
		"rs":   {"20"},
		"sort": {"0"},
	}
	body, err := c.get(ctx, realtimePath, params)
	if err != nil {
		return nil, fmt.Errorf("realtime: %w", err)
	}
	body = bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(body), xssiPrefix))

	var out realtimeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode realtime: %w", err)
	}

	titles := make([]string, 0, len(out.StorySummaries.TrendingStories))
	for _, s := range out.StorySummaries.TrendingStories {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = strings.Join(s.EntityNames, ", ")
		}
		titles = append(titles, title)
	}
	return titles, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Realtime feed response types.

type realtimeResponse struct {
	StorySummaries struct {
		TrendingStories []story `json:"trendingStories"`
	} `json:"storySummaries"`
}

type story struct {
	Title       string   `json:"title"`
	EntityNames []string `json:"entityNames"`
}
