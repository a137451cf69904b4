package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	exportButton = `//button[contains(., 'Export')]`
	csvMenuItem  = `//*[@role='menuitem'][contains(., 'CSV')] | //a[contains(., 'CSV')]`

	visibleTimeout  = 2 * time.Second
	menuDelay       = 1200 * time.Millisecond
	downloadTimeout = 15 * time.Second
)

// ChromeRenderer renders pages in a fresh headless Chrome per call.
type ChromeRenderer struct {
	settle    time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewChromeRenderer creates a renderer that waits settle after navigation
// for client-side rendering to finish.
func NewChromeRenderer(settle time.Duration, logger *slog.Logger) *ChromeRenderer {
	return &ChromeRenderer{settle: settle, userAgent: defaultUserAgent, logger: logger}
}

// Render navigates to url, tries the CSV export, and captures the page
// markup. The browser is torn down before Render returns, on every path.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(r.userAgent))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	dir, err := os.MkdirTemp("", "trends-export-*")
	if err != nil {
		return Page{}, fmt.Errorf("create download dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := chromedp.Run(browserCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(dir).
			WithEventsEnabled(true),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.settle),
	); err != nil {
		return Page{}, fmt.Errorf("load %s: %w", url, err)
	}

	var page Page
	data, err := r.exportCSV(browserCtx, dir)
	if err != nil {
		r.logger.Debug("csv export unavailable", "url", url, "error", err)
	} else {
		page.ExportCSV = data
	}

	if len(page.ExportCSV) == 0 {
		// The trends table is virtualized; scrolling forces lazy rows in.
		_ = chromedp.Run(browserCtx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(1500*time.Millisecond),
			chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
			chromedp.Sleep(500*time.Millisecond),
		)
	}

	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery)); err != nil {
		return page, fmt.Errorf("capture %s: %w", url, err)
	}
	return page, nil
}

// exportCSV clicks Export then the CSV menu entry and waits for the file.
func (r *ChromeRenderer) exportCSV(ctx context.Context, dir string) ([]byte, error) {
	done := make(chan string, 1)
	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*browser.EventDownloadProgress); ok && e.State == browser.DownloadProgressStateCompleted {
			select {
			case done <- e.GUID:
			default:
			}
		}
	})

	if err := runWithin(ctx, visibleTimeout, chromedp.Click(exportButton, chromedp.BySearch)); err != nil {
		return nil, fmt.Errorf("export button: %w", err)
	}
	if err := chromedp.Run(ctx, chromedp.Sleep(menuDelay)); err != nil {
		return nil, err
	}
	if err := runWithin(ctx, visibleTimeout, chromedp.Click(csvMenuItem, chromedp.BySearch)); err != nil {
		return nil, fmt.Errorf("csv menu item: %w", err)
	}

	timer := time.NewTimer(downloadTimeout)
	defer timer.Stop()
	select {
	case guid := <-done:
		return os.ReadFile(filepath.Join(dir, guid))
	case <-timer.C:
		return nil, errors.New("csv download timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func runWithin(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}
