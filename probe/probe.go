// Package probe drives a headless browser against a running listings page and
// reports what it actually drew.
package probe

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"crous-x/utils"
)

// PageSnapshot is what the browser saw on one page load.
type PageSnapshot struct {
	URL          string    `json:"url"`
	Language     string    `json:"language"`
	Sort         string    `json:"sort"`
	Cards        int       `json:"cards"`
	Placeholders int       `json:"placeholders"`
	MapEnabled   bool      `json:"map_enabled"`
	Markers      int       `json:"markers"`
	ProbedAt     time.Time `json:"probed_at"`
}

// Prober loads listings pages in headless Chrome.
type Prober struct {
	chromeBin string
	timeout   time.Duration
	settle    time.Duration
	pool      *utils.WorkerPool
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// New creates a Prober. An empty chromeBin searches the usual install paths.
func New(chromeBin string, timeout time.Duration, maxRetries int, logger *utils.Logger) *Prober {
	return &Prober{
		chromeBin: FindChromeBinary(chromeBin),
		timeout:   timeout,
		settle:    time.Second,
		pool:      utils.NewWorkerPool(2, 250),
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

func (p *Prober) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if p.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(p.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// Probe loads pageURL once and counts the grid cards and map markers.
func (p *Prober) Probe(ctx context.Context, pageURL string) (*PageSnapshot, error) {
	browserCtx, cancel := p.allocator(ctx)
	defer cancel()
	return p.probe(browserCtx, pageURL)
}

// ProbeLanguages loads the page once per language, a few tabs at a time.
// Failed loads are logged and left out of the result.
func (p *Prober) ProbeLanguages(ctx context.Context, baseURL string, langs []string) []*PageSnapshot {
	browserCtx, cancel := p.allocator(ctx)
	defer cancel()

	// Start the browser before tabs are opened concurrently.
	if err := chromedp.Run(browserCtx); err != nil {
		p.logger.Error("[probe] Browser start failed: %v", err)
		return nil
	}

	var (
		mu      sync.Mutex
		results = make([]*PageSnapshot, 0, len(langs))
	)
	for _, lang := range langs {
		pageURL, err := WithLanguage(baseURL, lang)
		if err != nil {
			p.logger.Warn("[probe] Skipping %s: %v", lang, err)
			continue
		}
		p.pool.Submit(func() {
			snap, err := p.probe(browserCtx, pageURL)
			if err != nil {
				p.logger.Warn("[probe] %s failed: %v", pageURL, err)
				return
			}
			mu.Lock()
			results = append(results, snap)
			mu.Unlock()
		})
	}
	p.pool.Wait()
	return results
}

func (p *Prober) probe(browserCtx context.Context, pageURL string) (*PageSnapshot, error) {
	snap := &PageSnapshot{URL: pageURL}

	err := p.retry.Do(browserCtx, "probe "+pageURL, func(ctx context.Context) error {
		tabCtx, cancelTab := chromedp.NewContext(ctx)
		defer cancelTab()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, p.timeout)
		defer cancelTimeout()

		var seen struct {
			Language     string `json:"language"`
			Sort         string `json:"sort"`
			Cards        int    `json:"cards"`
			Placeholders int    `json:"placeholders"`
			MapEnabled   bool   `json:"mapEnabled"`
			Markers      int    `json:"markers"`
		}

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("#listings-grid", chromedp.ByQuery),
			chromedp.Sleep(p.settle),
			chromedp.Evaluate(`
				(function() {
					var mapEl = document.getElementById('map');
					var active = document.querySelector('.sort button.active');
					return {
						language:     document.documentElement.lang || '',
						sort:         active ? active.getAttribute('data-sort') : '',
						cards:        document.querySelectorAll('#listings-grid .card').length,
						placeholders: document.querySelectorAll('#listings-grid .placeholder').length,
						mapEnabled:   !!mapEl && !mapEl.classList.contains('disabled'),
						markers:      document.querySelectorAll('.leaflet-marker-icon').length
					};
				})()
			`, &seen),
		)
		if err != nil {
			return fmt.Errorf("chromedp probe: %w", err)
		}

		snap.Language = seen.Language
		snap.Sort = seen.Sort
		snap.Cards = seen.Cards
		snap.Placeholders = seen.Placeholders
		snap.MapEnabled = seen.MapEnabled
		snap.Markers = seen.Markers
		snap.ProbedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("[probe] %s: %d cards, %d placeholders, %d markers (lang %s)",
		pageURL, snap.Cards, snap.Placeholders, snap.Markers, snap.Language)
	return snap, nil
}

// WithLanguage sets the lang query parameter on pageURL.
func WithLanguage(pageURL, lang string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("probe: parse %q: %w", pageURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("probe: %q is not an absolute url", pageURL)
	}
	q := u.Query()
	q.Set("lang", lang)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FindChromeBinary returns configured when set, otherwise the first Chrome or
// Chromium found on PATH or in the usual install locations.
func FindChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
