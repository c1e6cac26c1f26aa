package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// minStaticText is the amount of visible body text below which a statically
// fetched page is assumed to be rendered client-side.
const minStaticText = 200

// Loader tries engines in order, moving to the next one when an engine fails
// or returns a document that still needs JavaScript. The engine that worked
// for a domain is remembered and tried first next time.
type Loader struct {
	engines []Engine
	memory  *DomainMemory
}

// NewLoader creates a Loader. engines are tried in the given order; memory
// may be nil.
func NewLoader(memory *DomainMemory, engines ...Engine) *Loader {
	return &Loader{engines: engines, memory: memory}
}

// Load returns the first acceptable document.
func (l *Loader) Load(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(l.engines) == 0 {
		return nil, errors.New("loader: no engines configured")
	}
	domain := siteKey(req.URL)

	if remembered := l.memory.Get(domain); remembered != "" {
		for _, eng := range l.engines {
			if eng.Name() != remembered {
				continue
			}
			result, err := eng.Fetch(ctx, req)
			if err == nil {
				slog.Debug("domain memory hit", "domain", domain, "engine", remembered)
				return result, nil
			}
			slog.Info("remembered engine failed, trying all engines", "domain", domain, "engine", remembered, "error", err)
			l.memory.Delete(domain)
			break
		}
	}

	var lastErr error
	var fallback *FetchResult
	for i, eng := range l.engines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := eng.Fetch(ctx, req)
		if err != nil {
			slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
			lastErr = err
			continue
		}
		last := i == len(l.engines)-1
		if !last && NeedsBrowser(result.HTML) {
			slog.Debug("document needs javascript, escalating", "engine", eng.Name(), "url", req.URL)
			fallback = result
			continue
		}
		l.memory.Set(domain, eng.Name())
		return result, nil
	}

	if fallback != nil {
		slog.Warn("no engine rendered the page, using static document", "url", req.URL, "error", lastErr)
		return fallback, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("loader: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

// NeedsBrowser reports whether a statically fetched document looks like an
// application shell: little visible text plus script or a noscript warning.
func NeedsBrowser(rawHTML string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return true
	}
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	text := strings.Join(strings.Fields(body.Text()), " ")
	if len(text) >= minStaticText {
		return false
	}
	if doc.Find("script").Length() > 0 {
		return true
	}
	noscript := strings.ToLower(doc.Find("noscript").Text())
	return strings.Contains(noscript, "javascript")
}

// siteKey is the registrable domain (eTLD+1) of rawURL, so www.example.com
// and shop.example.com share one memory entry. IPs and single-label hosts
// are used as is.
func siteKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := u.Hostname()
	if net.ParseIP(host) != nil {
		return host
	}
	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return site
	}
	return host
}
