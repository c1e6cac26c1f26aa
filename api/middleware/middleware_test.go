package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagecast/config"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(apiKeyContextKey)) })
	return r
}

func get(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1", "k2"}))

	tests := []struct {
		name, header, value string
		want                int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "X-API-Key", "nope", http.StatusUnauthorized},
		{"x-api-key", "X-API-Key", "k1", http.StatusOK},
		{"bearer", "Authorization", "Bearer k2", http.StatusOK},
		{"basic scheme", "Authorization", "Basic k2", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if w := get(r, tt.header, tt.value); w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.want)
		}
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth([]string{""}))
	if w := get(r, "", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	for i := 0; i < 2; i++ {
		if w := get(r, "", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	if w := get(r, "", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", w.Code)
	}
}

func TestLimiterSet_PerIdentityAndSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newLimiterSet(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	s.now = func() time.Time { return now }

	if !s.allow("a") || s.allow("a") {
		t.Error("a should get exactly one request")
	}
	if !s.allow("b") {
		t.Error("b has its own bucket")
	}

	now = now.Add(2 * time.Hour)
	s.allow("c")
	if _, ok := s.entries["a"]; ok {
		t.Error("idle bucket for a should be swept")
	}
	if len(s.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(s.entries))
	}
}
