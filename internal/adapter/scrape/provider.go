// Package scrape implements the unmetered headless-browser provider that
// reads the public trending page of a region.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// Page is what a Renderer captured from a trending page. ExportCSV is nil
// when the page offered no CSV export.
type Page struct {
	HTML      string
	ExportCSV []byte
}

// Renderer loads a URL in a browser and returns the settled page.
type Renderer interface {
	Render(ctx context.Context, url string) (Page, error)
}

// Options configures a Provider.
type Options struct {
	Domains       map[string]string
	DefaultDomain string
	// Timeout bounds one whole attempt: navigation, settle, export and
	// extraction.
	Timeout time.Duration
}

// Provider implements source.Provider by rendering the trending page and
// preferring its CSV export over DOM extraction.
type Provider struct {
	renderer      Renderer
	domains       map[string]string
	defaultDomain string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewProvider creates a scrape provider.
func NewProvider(r Renderer, opts Options, logger *slog.Logger) *Provider {
	return &Provider{
		renderer:      r,
		domains:       maps.Clone(opts.Domains),
		defaultDomain: opts.DefaultDomain,
		timeout:       opts.Timeout,
		logger:        logger,
	}
}

func (p *Provider) Name() string                  { return "scrape" }
func (p *Provider) Provenance() domain.Provenance { return domain.ProvenanceScrape }

// PageURL returns the trending page address for region.
func (p *Provider) PageURL(region domain.Region) string {
	host := p.defaultDomain
	if d, ok := p.domains[string(region)]; ok && d != "" {
		host = d
	}
	return fmt.Sprintf("https://%s/trending?geo=%s", host, region)
}

// Attempt renders the region's trending page and returns its rows.
func (p *Provider) Attempt(ctx context.Context, region domain.Region) ([]domain.Row, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	url := p.PageURL(region)
	page, err := p.renderer.Render(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("render trending page: %w", err)
	}

	if len(page.ExportCSV) > 0 {
		rows, err := ParseExportCSV(page.ExportCSV)
		if err != nil {
			p.logger.Debug("csv export unreadable, using page markup", "region", region, "error", err)
		} else if len(domain.Normalize(rows)) > 0 {
			return rows, nil
		}
	}

	rows, err := ExtractRows(page.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract trending rows: %w", err)
	}
	return rows, nil
}
