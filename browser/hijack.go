package browser

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// adHosts are ad and tracking domains dropped when ad blocking is on.
// Subdomains match too.
var adHosts = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"googletagservices.com": {},
	"connect.facebook.net":  {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"amazon-adsystem.com":   {},
	"criteo.com":            {},
	"criteo.net":            {},
	"outbrain.com":          {},
	"taboola.com":           {},
	"moatads.com":           {},
	"pubmatic.com":          {},
	"rubiconproject.com":    {},
	"scorecardresearch.com": {},
	"quantserve.com":        {},
	"hotjar.com":            {},
	"chartbeat.com":         {},
	"consensu.org":          {},
}

func isAdHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for host != "" {
		if _, ok := adHosts[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}

// blockedSet converts configured resource type names; unknown names are
// ignored.
func blockedSet(names []string) map[proto.NetworkResourceType]struct{} {
	set := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[name]; ok {
			set[rt] = struct{}{}
		}
	}
	return set
}

// shouldBlock decides one intercepted request.
func shouldBlock(blocked map[proto.NetworkResourceType]struct{}, blockAds bool, rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := blocked[rt]; ok {
		return true
	}
	if !blockAds {
		return false
	}
	u, err := url.Parse(rawURL)
	return err == nil && isAdHost(u.Hostname())
}

// setupHijack intercepts the page's requests and fails the blocked ones.
// It returns nil when nothing is blocked; otherwise the caller must Stop the
// router.
func setupHijack(page *rod.Page, blockedTypes []string, blockAds bool) *rod.HijackRouter {
	blocked := blockedSet(blockedTypes)
	if len(blocked) == 0 && !blockAds {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if shouldBlock(blocked, blockAds, h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
