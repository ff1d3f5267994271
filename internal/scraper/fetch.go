package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/safebite/platform/internal/common/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}

// FetchRequest describes one search results page to load
type FetchRequest struct {
	HomeURL      string
	URL          string
	WaitSelector string

	// Location is typed into LocationInput and the first LocationSuggestion picked.
	// Only the browser fetcher can do this.
	Location           string
	LocationInput      string
	LocationSuggestion string
}

// PageFetcher loads a page and returns its rendered HTML
type PageFetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (string, error)
}

// NewFetcher builds the fetcher selected by SCRAPER_MODE
func NewFetcher(cfg *config.ScraperConfig) PageFetcher {
	if cfg.Mode == "http" {
		return NewHTTPFetcher(cfg)
	}
	return NewBrowserFetcher(cfg)
}

func pickUserAgent(configured string) string {
	if configured != "" {
		return configured
	}
	return userAgents[rand.Intn(len(userAgents))]
}

// BrowserFetcher renders pages in headless Chromium with stealth patches
type BrowserFetcher struct {
	config *config.ScraperConfig

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserFetcher creates a fetcher; the browser is launched on first use
func NewBrowserFetcher(cfg *config.ScraperConfig) *BrowserFetcher {
	return &BrowserFetcher{config: cfg}
}

func (f *BrowserFetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	logrus.Info("Launching headless browser")
	l := launcher.New().Headless(true).NoSandbox(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	f.launcher = l
	f.browser = browser
	return browser, nil
}

// Fetch visits the home page, optionally sets the delivery location, then loads the search page
func (f *BrowserFetcher) Fetch(ctx context.Context, req FetchRequest) (string, error) {
	browser, err := f.connect()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if f.config.RequestTimeout > 0 {
		page = page.Timeout(f.config.RequestTimeout)
		defer page.CancelTimeout()
	}
	log := logrus.WithField("url", req.URL)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: pickUserAgent(f.config.UserAgent)}); err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1280, Height: 800, DeviceScaleFactor: 1}); err != nil {
		return "", fmt.Errorf("failed to set viewport: %w", err)
	}

	if req.HomeURL != "" {
		if err := page.Navigate(req.HomeURL); err != nil {
			return "", fmt.Errorf("failed to open %s: %w", req.HomeURL, err)
		}
		_ = page.WaitStable(time.Second)
	}

	if req.Location != "" && req.LocationInput != "" {
		err := rod.Try(func() {
			short := page.Timeout(10 * time.Second)
			defer short.CancelTimeout()
			short.MustElement(req.LocationInput).MustInput(req.Location)
			if req.LocationSuggestion != "" {
				short.MustElement(req.LocationSuggestion).MustClick()
			}
			short.MustWaitStable()
		})
		if err != nil {
			log.WithError(err).Warn("Failed to set delivery location")
		}
	}

	if err := page.Navigate(req.URL); err != nil {
		return "", fmt.Errorf("failed to open %s: %w", req.URL, err)
	}
	if err := page.WaitStable(2 * time.Second); err != nil {
		log.WithError(err).Debug("Page did not settle")
	}
	if req.WaitSelector != "" {
		waiter := page.Timeout(10 * time.Second)
		if _, err := waiter.Element(req.WaitSelector); err != nil {
			log.WithError(err).Debug("Wait selector not found")
		}
		waiter.CancelTimeout()
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.launcher.Kill()
	f.browser, f.launcher = nil, nil
	return err
}

// HTTPFetcher downloads pages with plain HTTP requests. It cannot run scripts,
// so it only suits sites that render results server side.
type HTTPFetcher struct {
	config   *config.ScraperConfig
	clients  []*http.Client
	next     atomic.Uint64
	limiter  *rate.Limiter
	attempts int
}

// NewHTTPFetcher creates a rate-limited fetcher that rotates through the configured proxies
func NewHTTPFetcher(cfg *config.ScraperConfig) *HTTPFetcher {
	var clients []*http.Client
	for _, proxy := range cfg.Proxies {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			logrus.WithError(err).WithField("proxy", proxy).Warn("Ignoring invalid proxy")
			continue
		}
		clients = append(clients, &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		})
	}
	if len(clients) == 0 {
		clients = append(clients, &http.Client{Timeout: cfg.RequestTimeout})
	}

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	return &HTTPFetcher{
		config:   cfg,
		clients:  clients,
		limiter:  rate.NewLimiter(limit, 1),
		attempts: attempts,
	}
}

// Fetch GETs req.URL, retrying failed attempts on the next proxy
func (f *HTTPFetcher) Fetch(ctx context.Context, req FetchRequest) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.config.RetryDelay):
			}
		}

		body, err := f.get(ctx, req.URL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		logrus.WithError(err).WithFields(logrus.Fields{
			"url":     req.URL,
			"attempt": attempt,
		}).Warn("Fetch failed")
	}
	return "", fmt.Errorf("giving up on %s after %d attempts: %w", req.URL, f.attempts, lastErr)
}

func (f *HTTPFetcher) get(ctx context.Context, target string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", pickUserAgent(f.config.UserAgent))
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")

	client := f.clients[f.next.Add(1)%uint64(len(f.clients))]
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}
