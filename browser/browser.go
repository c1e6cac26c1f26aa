// Package browser drives a headless Chromium through go-rod. It renders
// documents for engine.RodEngine and opens live tabs that the extractor and
// the YouTube handler can watch.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pagecast/config"
	"github.com/use-agent/pagecast/engine"
	"github.com/use-agent/pagecast/models"
	"github.com/ysmood/gson"
)

// Browser owns the Chromium process and a pool of reusable render tabs.
// It is safe for concurrent use.
type Browser struct {
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
	cfg      config.BrowserConfig
	active   atomic.Int32
}

// Launch starts a headless browser and creates the page pool.
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAPIError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewAPIError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	slog.Info("page pool created", "maxPages", cfg.MaxPages)
	return &Browser{
		browser:  b,
		pagePool: rod.NewPagePool(cfg.MaxPages),
		cfg:      cfg,
	}, nil
}

// Active returns the number of tabs currently rendering.
func (b *Browser) Active() int { return int(b.active.Load()) }

// Render loads req in a pooled tab and returns the DOM once it settles.
// It has the engine.RenderFunc signature.
func (b *Browser) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	b.active.Add(1)
	defer b.active.Add(-1)

	page, err := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewAPIError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}
	// about:blank on the context-free page so cleanup survives an expired ctx.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pagePool.Put(page)
	}()

	if req.Stealth || b.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	applyHeaders(page, req)

	if router := setupHijack(page, b.cfg.BlockedResourceTypes, b.cfg.BlockAds); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)
	if err := b.navigate(p, req.URL); err != nil {
		return nil, err
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("dom did not settle, using current document", "url", req.URL, "error", err)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to read page HTML")
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}
	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
	}, nil
}

// Open navigates a new, unpooled tab to pageURL and keeps it open for
// watching. The caller must Close the returned Tab.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Tab, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewAPIError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}
	if b.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	p := page.Context(ctx)
	if err := b.navigate(p, pageURL); err != nil {
		_ = page.Close()
		return nil, err
	}
	if err := p.WaitLoad(); err != nil {
		slog.Debug("load event not seen, continuing", "url", pageURL, "error", err)
	}
	return newTab(page), nil
}

func (b *Browser) navigate(p *rod.Page, target string) error {
	nav := p
	if b.cfg.NavigationTimeout > 0 {
		nav = p.Timeout(b.cfg.NavigationTimeout)
	}
	if err := nav.Navigate(target); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	return nil
}

// Close drains the page pool and kills the browser process.
func (b *Browser) Close() {
	slog.Info("browser shutting down: draining page pool")
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("browser shutdown complete")
}

// applyHeaders sets custom headers, a search-engine Referer and cookies.
func applyHeaders(page *rod.Page, req *engine.FetchRequest) {
	headers := make(map[string]string, len(req.Headers)+1)
	if _, ok := req.Headers["Referer"]; !ok {
		if ref := searchReferer(req.URL); ref != "" {
			headers["Referer"] = ref
		}
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	if len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	for _, c := range req.Cookies {
		domain := c.Domain
		if domain == "" {
			if u, err := url.Parse(req.URL); err == nil {
				domain = u.Host
			}
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		_, _ = proto.NetworkSetCookie{Name: c.Name, Value: c.Value, Domain: domain, Path: path}.Call(page)
	}
}

func searchReferer(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
}

func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// navigationStatus reads the HTTP status of the main document, or 0.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func evalStringOrEmpty(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError maps rod failures to coded API errors.
func categorizeError(err error, msg string) *models.APIError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAPIError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewAPIError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewAPIError(models.ErrCodeNavigation, msg, err)
	}
}
