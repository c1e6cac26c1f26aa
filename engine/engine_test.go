package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeEngine struct {
	name  string
	html  string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(_ context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{HTML: f.html, FinalURL: req.URL, EngineName: f.name}, nil
}

var (
	staticPage = "<html><body><article>" + strings.Repeat("Plenty of server rendered text. ", 20) + "</article></body></html>"
	shellPage  = `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`
)

func TestLoader_StaticPageStaysOnHTTP(t *testing.T) {
	httpEng := &fakeEngine{name: "http", html: staticPage}
	rodEng := &fakeEngine{name: "rod", html: staticPage}
	l := NewLoader(nil, httpEng, rodEng)

	res, err := l.Load(context.Background(), &FetchRequest{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.EngineName != "http" || rodEng.calls != 0 {
		t.Errorf("engine = %s, rod calls = %d; want http only", res.EngineName, rodEng.calls)
	}
}

func TestLoader_EscalatesShellPage(t *testing.T) {
	httpEng := &fakeEngine{name: "http", html: shellPage}
	rodEng := &fakeEngine{name: "rod", html: staticPage}
	l := NewLoader(NewDomainMemory(time.Hour), httpEng, rodEng)

	res, err := l.Load(context.Background(), &FetchRequest{URL: "https://spa.example/"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.EngineName != "rod" {
		t.Errorf("engine = %s, want rod", res.EngineName)
	}

	// The domain is now remembered: rod is tried first.
	if _, err := l.Load(context.Background(), &FetchRequest{URL: "https://spa.example/other"}); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if httpEng.calls != 1 || rodEng.calls != 2 {
		t.Errorf("calls http=%d rod=%d, want 1 and 2", httpEng.calls, rodEng.calls)
	}
}

func TestLoader_FallsBackToStaticWhenBrowserFails(t *testing.T) {
	httpEng := &fakeEngine{name: "http", html: shellPage}
	rodEng := &fakeEngine{name: "rod", err: errors.New("browser crashed")}

	res, err := NewLoader(nil, httpEng, rodEng).Load(context.Background(), &FetchRequest{URL: "https://spa.example/"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.EngineName != "http" {
		t.Errorf("engine = %s, want the static document", res.EngineName)
	}
}

func TestLoader_AllFail(t *testing.T) {
	want := errors.New("rod down")
	l := NewLoader(nil, &fakeEngine{name: "http", err: errors.New("tls")}, &fakeEngine{name: "rod", err: want})

	if _, err := l.Load(context.Background(), &FetchRequest{URL: "https://x.example/"}); !errors.Is(err, want) {
		t.Errorf("err = %v, want last engine error", err)
	}
	if _, err := NewLoader(nil).Load(context.Background(), &FetchRequest{URL: "https://x.example/"}); err == nil {
		t.Error("loader without engines should fail")
	}
}

func TestNeedsBrowser(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"server rendered", staticPage, false},
		{"app shell", shellPage, true},
		{"noscript warning", `<html><body><noscript>You need to enable JavaScript to run this app.</noscript></body></html>`, true},
		{"short static page", `<html><body><p>Hello</p></body></html>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsBrowser(tt.html); got != tt.want {
				t.Errorf("NeedsBrowser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomainMemory_Expiry(t *testing.T) {
	now := time.Now()
	dm := NewDomainMemory(time.Minute)
	dm.now = func() time.Time { return now }

	dm.Set("example.com", "rod")
	if got := dm.Get("example.com"); got != "rod" {
		t.Errorf("Get() = %q, want rod", got)
	}
	now = now.Add(2 * time.Minute)
	if got := dm.Get("example.com"); got != "" {
		t.Errorf("expired Get() = %q, want empty", got)
	}

	var nilMemory *DomainMemory
	nilMemory.Set("a", "b")
	if nilMemory.Get("a") != "" {
		t.Error("nil memory should remember nothing")
	}
}

func TestHTTPEngine_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			if r.Header.Get("X-Test") != "1" {
				t.Errorf("custom header missing")
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, "<html><head><title> Demo </title></head><body>hi</body></html>")
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{}`)
		case "/captions":
			w.Header().Set("Content-Type", "text/xml")
			io.WriteString(w, "<transcript/>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e, err := NewHTTPEngine("", 5*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPEngine: %v", err)
	}

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/page", Headers: map[string]string{"X-Test": "1"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Title != "Demo" || res.StatusCode != 200 || res.EngineName != "http" {
		t.Errorf("result = %+v", res)
	}

	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/json"}); err == nil {
		t.Error("non-html response should fail")
	}

	body, err := e.Get(context.Background(), srv.URL+"/captions")
	if err != nil || string(body) != "<transcript/>" {
		t.Errorf("Get() = %q, %v", body, err)
	}
	if _, err := e.Get(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("Get should fail on 404")
	}
}

func TestRodEngine_ForcesStealth(t *testing.T) {
	var gotStealth bool
	e := NewRodEngine(func(_ context.Context, req *FetchRequest) (*FetchResult, error) {
		gotStealth = req.Stealth
		return &FetchResult{HTML: "<html></html>"}, nil
	}, true)

	req := &FetchRequest{URL: "https://example.com"}
	res, err := e.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !gotStealth || req.Stealth {
		t.Errorf("stealth = %v, caller request mutated = %v", gotStealth, req.Stealth)
	}
	if res.EngineName != "rod" {
		t.Errorf("EngineName = %q", res.EngineName)
	}

	if _, err := NewRodEngine(nil, false).Fetch(context.Background(), req); err == nil {
		t.Error("missing render func should fail")
	}
}

func TestSiteKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://www.example.com/a", "example.com"},
		{"https://shop.example.co.uk/", "example.co.uk"},
		{"http://127.0.0.1:8080/", "127.0.0.1"},
		{"http://localhost/", "localhost"},
	}
	for _, tt := range tests {
		if got := siteKey(tt.in); got != tt.want {
			t.Errorf("siteKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
