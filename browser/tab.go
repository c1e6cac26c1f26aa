package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/use-agent/pagecast/extractor"
	"github.com/use-agent/pagecast/youtube"
	"github.com/ysmood/gson"
)

var (
	_ extractor.Source = (*Tab)(nil)
	_ youtube.Page     = (*Tab)(nil)
)

// bindingSeq keeps exposed function names unique within the process.
var bindingSeq atomic.Uint64

// observeScript installs a MutationObserver that calls window[name] on every
// change. It waits for the document element when run before the page has one.
const observeScript = `(name) => {
	const registry = window.__pagecastStops || (window.__pagecastStops = {});
	const start = () => {
		const obs = new MutationObserver(() => { if (window[name]) window[name](); });
		obs.observe(document.documentElement || document, { subtree: true, childList: true, characterData: true });
		registry[name] = () => obs.disconnect();
	};
	if (document.documentElement) start();
	else document.addEventListener("DOMContentLoaded", start, { once: true });
}`

// listenScript forwards a document event to window[name].
const listenScript = `(name, event) => {
	const registry = window.__pagecastStops || (window.__pagecastStops = {});
	const fn = () => { if (window[name]) window[name](); };
	document.addEventListener(event, fn);
	registry[name] = () => document.removeEventListener(event, fn);
}`

const unbindScript = `(name) => {
	const registry = window.__pagecastStops || {};
	if (registry[name]) { registry[name](); delete registry[name]; }
}`

// Tab is a live browser tab. Callbacks registered with On and
// ObserveMutations survive navigations within the tab.
type Tab struct {
	page *rod.Page

	mu    sync.Mutex
	stops []func() error
}

func newTab(page *rod.Page) *Tab {
	return &Tab{page: page}
}

// URL returns the tab's current location.
func (t *Tab) URL(ctx context.Context) (string, error) {
	res, err := t.page.Context(ctx).Eval(`() => window.location.href`)
	if err != nil {
		return "", fmt.Errorf("browser: read location: %w", err)
	}
	return res.Value.Str(), nil
}

// HTML serializes the current DOM.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	html, err := t.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: read html: %w", err)
	}
	return html, nil
}

// Global returns window[name] as JSON, or nil when it is undefined.
func (t *Tab) Global(ctx context.Context, name string) (json.RawMessage, error) {
	res, err := t.page.Context(ctx).Eval(`(name) => {
		const v = window[name];
		return v === undefined || v === null ? null : JSON.stringify(v);
	}`, name)
	if err != nil {
		return nil, fmt.Errorf("browser: read global %s: %w", name, err)
	}
	if res.Value.Nil() {
		return nil, nil
	}
	return json.RawMessage(res.Value.Str()), nil
}

// Scripts returns the text of every inline script.
func (t *Tab) Scripts(ctx context.Context) ([]string, error) {
	res, err := t.page.Context(ctx).Eval(`() => Array.from(document.querySelectorAll("script:not([src])"), s => s.textContent)`)
	if err != nil {
		return nil, fmt.Errorf("browser: read scripts: %w", err)
	}
	arr := res.Value.Arr()
	scripts := make([]string, 0, len(arr))
	for _, v := range arr {
		scripts = append(scripts, v.Str())
	}
	return scripts, nil
}

// On calls fn every time the document dispatches event.
func (t *Tab) On(event string, fn func()) (func() error, error) {
	return t.bind("event", fn, listenScript, event)
}

// ObserveMutations calls fn for every subtree, child list or character data
// mutation of the document.
func (t *Tab) ObserveMutations(fn func()) (func() error, error) {
	return t.bind("mutation", fn, observeScript)
}

// bind exposes fn to the page under a fresh name and runs install with that
// name, both now and in every new document of the tab.
func (t *Tab) bind(kind string, fn func(), install string, args ...string) (func() error, error) {
	name := bindingName(kind)

	var stopped atomic.Bool
	unexpose, err := t.page.Expose(name, func(gson.JSON) (interface{}, error) {
		if !stopped.Load() {
			fn()
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("browser: expose %s: %w", name, err)
	}

	code := callExpr(install, append([]string{name}, args...)...)
	removeNewDoc, err := t.page.EvalOnNewDocument(code)
	if err != nil {
		_ = unexpose()
		return nil, fmt.Errorf("browser: install %s bridge: %w", kind, err)
	}
	callArgs := make([]interface{}, 0, len(args)+1)
	callArgs = append(callArgs, name)
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	if _, err := t.page.Eval(install, callArgs...); err != nil {
		_ = removeNewDoc()
		_ = unexpose()
		return nil, fmt.Errorf("browser: install %s bridge: %w", kind, err)
	}

	var once sync.Once
	var stopErr error
	stop := func() error {
		once.Do(func() {
			stopped.Store(true)
			_, evalErr := t.page.Eval(unbindScript, name)
			stopErr = errors.Join(evalErr, removeNewDoc(), unexpose())
		})
		return stopErr
	}

	t.mu.Lock()
	t.stops = append(t.stops, stop)
	t.mu.Unlock()
	return stop, nil
}

func bindingName(kind string) string {
	return fmt.Sprintf("__pagecast_%s_%d", kind, bindingSeq.Add(1))
}

// callExpr renders an immediately invoked call of fn with string arguments.
func callExpr(fn string, args ...string) string {
	quoted := make([]byte, 0, 64)
	for i, a := range args {
		if i > 0 {
			quoted = append(quoted, ", "...)
		}
		b, _ := json.Marshal(a)
		quoted = append(quoted, b...)
	}
	return fmt.Sprintf("(%s)(%s)", fn, quoted)
}

// Close removes every bridge and closes the tab.
func (t *Tab) Close() error {
	t.mu.Lock()
	stops := t.stops
	t.stops = nil
	t.mu.Unlock()

	var errs []error
	for _, stop := range stops {
		if err := stop(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, t.page.Close())
	return errors.Join(errs...)
}
