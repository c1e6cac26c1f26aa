package cache

import (
	"testing"
	"time"

	"github.com/use-agent/pagecast/models"
)

func newTestCache(max int) (*Cache, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(max, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_GetRespectsMaxAge(t *testing.T) {
	c, now := newTestCache(10)
	defer c.Close()
	page := &models.PageContent{Title: "Demo"}
	c.Set("k", page)

	if _, ok := c.Get("k", 0); ok {
		t.Error("maxAge 0 should disable lookups")
	}
	got, ok := c.Get("k", time.Minute)
	if !ok || got != page {
		t.Fatalf("Get() = %v, %v; want cached page", got, ok)
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k", time.Minute); ok {
		t.Error("stale entry should miss")
	}
}

func TestCache_EvictsOldest(t *testing.T) {
	c, now := newTestCache(2)
	defer c.Close()

	c.Set("a", &models.PageContent{Title: "a"})
	*now = now.Add(time.Second)
	c.Set("b", &models.PageContent{Title: "b"})
	*now = now.Add(time.Second)
	c.Set("c", &models.PageContent{Title: "c"})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get("a", time.Hour); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c", time.Hour); !ok {
		t.Error("newest entry missing")
	}
}

func TestCache_Prune(t *testing.T) {
	c, now := newTestCache(10)
	defer c.Close()
	c.ttl = time.Hour

	c.Set("old", &models.PageContent{})
	*now = now.Add(2 * time.Hour)
	c.Set("new", &models.PageContent{})
	c.prune()

	if c.Len() != 1 {
		t.Errorf("Len() after prune = %d, want 1", c.Len())
	}
}

func TestKey(t *testing.T) {
	if Key("https://a", "") == Key("https://a", "main") {
		t.Error("selector should change the key")
	}
	if Key("https://a", "main") != Key("https://a", "main") {
		t.Error("key should be deterministic")
	}
}
