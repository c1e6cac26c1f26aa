package extractor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/pagecast/models"
)

type fakeSource struct {
	mu      sync.Mutex
	html    string
	notify  func()
	stopped bool
}

func (f *fakeSource) URL(context.Context) (string, error) { return "https://example.com/live", nil }

func (f *fakeSource) HTML(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html, nil
}

func (f *fakeSource) ObserveMutations(fn func()) (func() error, error) {
	f.mu.Lock()
	f.notify = fn
	f.mu.Unlock()
	return func() error {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
		return nil
	}, nil
}

func (f *fakeSource) mutate(html string) {
	f.mu.Lock()
	f.html = html
	fn := f.notify
	f.mu.Unlock()
	fn()
}

type collector struct {
	mu    sync.Mutex
	snaps []*models.PageContent
}

func (c *collector) handle(pc *models.PageContent) {
	c.mu.Lock()
	c.snaps = append(c.snaps, pc)
	c.mu.Unlock()
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snaps)
}

func TestObserver_ExtractsOnEveryMutation(t *testing.T) {
	src := &fakeSource{html: "<title>v0</title>"}
	var c collector

	o, err := InitializePageExtraction(context.Background(), src, testLogger(), WithSnapshotHandler(c.handle))
	if err != nil {
		t.Fatalf("InitializePageExtraction: %v", err)
	}

	src.mutate("<title>v1</title>")
	src.mutate("<title>v2</title>")

	if got := c.count(); got != 3 {
		t.Fatalf("got %d snapshots, want 3", got)
	}
	if c.snaps[2].Title != "v2" || c.snaps[2].URL != "https://example.com/live" {
		t.Errorf("last snapshot = %+v", c.snaps[2])
	}

	if err := o.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !src.stopped {
		t.Error("Stop did not disconnect the source")
	}
	src.mutate("<title>v3</title>")
	if got := c.count(); got != 3 {
		t.Errorf("got %d snapshots after Stop, want 3", got)
	}
	if err := o.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestObserver_Debounce(t *testing.T) {
	src := &fakeSource{html: "<title>v0</title>"}
	var c collector

	o, err := InitializePageExtraction(context.Background(), src, testLogger(),
		WithSnapshotHandler(c.handle), WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("InitializePageExtraction: %v", err)
	}
	defer o.Stop()

	for i := 0; i < 5; i++ {
		src.mutate("<title>burst</title>")
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := c.count(); got != 2 {
		t.Errorf("got %d snapshots, want initial plus one coalesced", got)
	}
}

type brokenSource struct{ fakeSource }

func (b *brokenSource) ObserveMutations(func()) (func() error, error) {
	return nil, errors.New("page closed")
}

func TestObserver_InstallFailure(t *testing.T) {
	if _, err := InitializePageExtraction(context.Background(), &brokenSource{}, testLogger()); err == nil {
		t.Error("expected install failure to be returned")
	}
}
