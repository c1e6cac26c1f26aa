package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/pagecast/logbuf"
	"github.com/use-agent/pagecast/models"
	"github.com/use-agent/pagecast/storage"
)

const samplePlayer = `{"videoDetails":{"videoId":"ABC123","title":"Demo video"},` +
	`"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
	`{"baseUrl":"https://captions.example/en","languageCode":"en"},` +
	`{"baseUrl":"https://captions.example/de","languageCode":"de"}]}}}`

const sampleXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0" dur="1">Hello
there</text><text start="1" dur="1">general &amp; kenobi</text></transcript>`

type fakePage struct {
	mu      sync.Mutex
	url     string
	global  json.RawMessage
	scripts []string
	events  map[string]func()
	mutate  func()
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) setURL(u string) {
	p.mu.Lock()
	p.url = u
	p.mu.Unlock()
}

func (p *fakePage) Global(context.Context, string) (json.RawMessage, error) { return p.global, nil }

func (p *fakePage) Scripts(context.Context) ([]string, error) { return p.scripts, nil }

func (p *fakePage) On(event string, fn func()) (func() error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string]func())
	}
	p.events[event] = fn
	return func() error { return nil }, nil
}

func (p *fakePage) ObserveMutations(fn func()) (func() error, error) {
	p.mu.Lock()
	p.mutate = fn
	p.mu.Unlock()
	return func() error { return nil }, nil
}

func (p *fakePage) fire(event string) {
	p.mu.Lock()
	fn := p.events[event]
	p.mu.Unlock()
	fn()
}

func (p *fakePage) mutated() {
	p.mu.Lock()
	fn := p.mutate
	p.mu.Unlock()
	fn()
}

type countingFetcher struct {
	calls atomic.Int32
	body  string
	err   error
}

func (f *countingFetcher) Get(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func newLogger() *logbuf.Logger {
	return logbuf.New(logbuf.WithStore(storage.NewMemoryStore()))
}

func logsContain(t *testing.T, l *logbuf.Logger, substr string) bool {
	t.Helper()
	return strings.Contains(strings.Join(l.Logs(context.Background()), "\n"), substr)
}

func TestProcessVideo_SameIDIsNoOp(t *testing.T) {
	page := &fakePage{url: "https://www.youtube.com/watch?v=ABC123", global: json.RawMessage(samplePlayer)}
	fetch := &countingFetcher{body: sampleXML}
	log := newLogger()
	h := New(page, fetch, log)

	first := h.ProcessVideo(context.Background())
	require.NotNil(t, first)
	assert.Equal(t, "ABC123", first.VideoID)
	assert.Equal(t, "Demo video", first.Title)
	assert.Equal(t, "en", first.Language)
	assert.Equal(t, "Hello there general & kenobi", first.Transcript)
	assert.Equal(t, first.Transcript, first.Summary)

	second := h.ProcessVideo(context.Background())
	assert.Nil(t, second)
	assert.Equal(t, int32(1), fetch.calls.Load(), "second call must not fetch")
	assert.True(t, logsContain(t, log, "video already processed"))
}

func TestProcessVideo_NewIDProcessesAgain(t *testing.T) {
	page := &fakePage{url: "https://www.youtube.com/watch?v=ABC123", global: json.RawMessage(samplePlayer)}
	fetch := &countingFetcher{body: sampleXML}
	h := New(page, fetch, newLogger())

	require.NotNil(t, h.ProcessVideo(context.Background()))
	page.setURL("https://www.youtube.com/watch?v=XYZ789")
	require.NotNil(t, h.ProcessVideo(context.Background()))
	assert.Equal(t, "XYZ789", h.Session().LastVideoID())
	assert.Equal(t, int32(2), fetch.calls.Load())
}

func TestProcessVideo_NotAVideo(t *testing.T) {
	page := &fakePage{url: "https://www.youtube.com/feed/trending"}
	fetch := &countingFetcher{body: sampleXML}
	log := newLogger()

	assert.Nil(t, New(page, fetch, log).ProcessVideo(context.Background()))
	assert.Zero(t, fetch.calls.Load())
	assert.True(t, logsContain(t, log, "not a video page"))
}

func TestProcessVideo_ScriptFallback(t *testing.T) {
	page := &fakePage{
		url: "https://www.youtube.com/watch?v=ABC123",
		scripts: []string{
			"window.other = {};",
			`var ytInitialPlayerResponse = ` + samplePlayer + `;var meta = {"x":1};`,
		},
	}
	fetch := &countingFetcher{body: sampleXML}

	vs := New(page, fetch, newLogger()).ProcessVideo(context.Background())
	require.NotNil(t, vs)
	assert.Equal(t, "Demo video", vs.Title)
}

func TestProcessVideo_NoPlayerResponse(t *testing.T) {
	page := &fakePage{url: "https://www.youtube.com/watch?v=ABC123", scripts: []string{"var a = 1;"}}
	log := newLogger()

	assert.Nil(t, New(page, &countingFetcher{}, log).ProcessVideo(context.Background()))
	assert.True(t, logsContain(t, log, "player response unavailable"))
}

func TestProcessVideo_SummaryHandler(t *testing.T) {
	page := &fakePage{url: "https://youtu.be/ABC123", global: json.RawMessage(samplePlayer)}
	var got *models.VideoSummary
	h := New(page, &countingFetcher{body: sampleXML}, newLogger(),
		WithSummaryHandler(func(vs *models.VideoSummary) { got = vs }))

	vs := h.ProcessVideo(context.Background())
	require.NotNil(t, vs)
	assert.Same(t, vs, got)
}

func TestFetchTranscript_Failures(t *testing.T) {
	tests := []struct {
		name    string
		player  string
		fetcher *countingFetcher
		wantErr error
		calls   int32
	}{
		{
			name:    "no captions key",
			player:  `{"videoDetails":{"videoId":"ABC123"}}`,
			fetcher: &countingFetcher{body: sampleXML},
			wantErr: ErrNoCaptions,
		},
		{
			name:    "empty track list",
			player:  `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[]}}}`,
			fetcher: &countingFetcher{body: sampleXML},
			wantErr: ErrNoCaptions,
		},
		{
			name:    "first track without base url",
			player:  `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"languageCode":"en"},{"baseUrl":"https://x"}]}}}`,
			fetcher: &countingFetcher{body: sampleXML},
			wantErr: ErrNoBaseURL,
		},
		{
			name:    "fetch fails",
			player:  samplePlayer,
			fetcher: &countingFetcher{err: errors.New("status 403")},
			wantErr: ErrTranscriptFetch,
			calls:   1,
		},
		{
			name:    "bad xml",
			player:  samplePlayer,
			fetcher: &countingFetcher{body: "<transcript><text>unterminated"},
			wantErr: ErrTranscriptParse,
			calls:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePlayerResponse([]byte(tt.player))
			require.NoError(t, err)

			_, err = fetchTranscript(context.Background(), tt.fetcher, p)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.calls, tt.fetcher.calls.Load())

			log := newLogger()
			h := New(&fakePage{}, tt.fetcher, log)
			assert.Nil(t, h.FetchTranscript(context.Background(), p))
			assert.True(t, logsContain(t, log, "[ERROR] youtube: transcript unavailable"))
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleXML))
	}))
	defer srv.Close()

	f := httpFetcher{client: srv.Client()}
	body, err := f.Get(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, sampleXML, string(body))

	_, err = f.Get(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	short := strings.Repeat("a", SummaryLength)
	assert.Equal(t, short, Summarize(short))

	long := strings.Repeat("é", SummaryLength+5)
	got := Summarize(long)
	assert.Equal(t, strings.Repeat("é", SummaryLength)+"...", got)

	assert.Equal(t, "", Summarize(""))
}

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.youtube.com/watch?v=ABC123", "ABC123"},
		{"https://www.youtube.com/watch?list=PL1&v=ABC123&t=4s", "ABC123"},
		{"https://youtu.be/ABC123?t=10", "ABC123"},
		{"https://www.youtube.com/shorts/ABC123", "ABC123"},
		{"https://www.youtube.com/", ""},
		{"https://www.youtube.com/results?search_query=go", ""},
		{"https://m.youtube.com/watch?v=ABC123", "ABC123"},
		{"https://www.youtube-nocookie.com/embed?v=ABC123", "ABC123"},
		{"https://example.com/search?v=2", ""},
		{"https://shop.example/item?v=blue", ""},
		{"https://notyoutube.com/watch?v=ABC123", ""},
		{"https://example.com/shorts/ABC123", ""},
		{"::not a url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VideoIDFromURL(tt.in), tt.in)
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":{"b":"}"}}`, string(extractJSON([]byte(`{"a":{"b":"}"}};rest`))))
	assert.Equal(t, `{"a":"\\"}`, string(extractJSON([]byte(`{"a":"\\"};`))))
	assert.Equal(t, `{"q":"say \"hi\" {"}`, string(extractJSON([]byte(`{"q":"say \"hi\" {"} x`))))
	assert.Nil(t, extractJSON([]byte(`{"open":`)))
	assert.Nil(t, extractJSON([]byte(`[1,2]`)))
}

func TestStaticPage_ScriptsFeedFallback(t *testing.T) {
	html := `<html><head><script src="/player.js"></script></head><body>` +
		`<script>var ytInitialPlayerResponse = ` + samplePlayer + `;</script></body></html>`
	page := NewStaticPage("https://www.youtube.com/watch?v=ABC123", html)

	vs := New(page, &countingFetcher{body: sampleXML}, newLogger()).ProcessVideo(context.Background())
	require.NotNil(t, vs)
	assert.Equal(t, "ABC123", vs.VideoID)
}

func TestInitialize_Triggers(t *testing.T) {
	page := &fakePage{url: "https://www.youtube.com/watch?v=ABC123", global: json.RawMessage(samplePlayer)}
	fetch := &countingFetcher{body: sampleXML}
	done := make(chan *models.VideoSummary, 8)
	h := New(page, fetch, newLogger(),
		WithInitialDelay(10*time.Millisecond),
		WithProcessDelay(10*time.Millisecond),
		WithSummaryHandler(func(vs *models.VideoSummary) { done <- vs }))
	defer h.Close()

	require.NoError(t, h.Initialize(context.Background()))
	assert.Equal(t, "ABC123", waitSummary(t, done).VideoID)

	// Same video again through the navigation event: no new summary.
	page.fire(NavigateEvent)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fetch.calls.Load())

	// A URL change seen on mutation processes the new video.
	page.setURL("https://www.youtube.com/watch?v=XYZ789")
	page.mutated()
	assert.Equal(t, "XYZ789", waitSummary(t, done).VideoID)

	// Mutations without a URL change schedule nothing.
	page.mutated()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), fetch.calls.Load())
}

func TestSchedule_FiredTimersAreReleased(t *testing.T) {
	page := &fakePage{url: "https://www.youtube.com/watch?v=ABC123", global: json.RawMessage(samplePlayer)}
	fetch := &countingFetcher{body: sampleXML}
	h := New(page, fetch, newLogger())
	defer h.Close()

	for i := 0; i < 20; i++ {
		h.schedule(context.Background(), time.Millisecond, "navigation finished")
	}

	require.Eventually(t, func() bool { return h.pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return fetch.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}

type brokenObserverPage struct{ fakePage }

func (p *brokenObserverPage) ObserveMutations(func()) (func() error, error) {
	return nil, errors.New("observer detached")
}

func TestInitialize_FailureThenCloseStopsInitialRun(t *testing.T) {
	page := &brokenObserverPage{fakePage{url: "https://www.youtube.com/watch?v=ABC123", global: json.RawMessage(samplePlayer)}}
	fetch := &countingFetcher{body: sampleXML}
	h := New(page, fetch, newLogger(), WithInitialDelay(20*time.Millisecond))

	require.Error(t, h.Initialize(context.Background()))
	require.NoError(t, h.Close())
	assert.Zero(t, h.pending())

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fetch.calls.Load())
}

func waitSummary(t *testing.T, ch <-chan *models.VideoSummary) *models.VideoSummary {
	t.Helper()
	select {
	case vs := <-ch:
		return vs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a summary")
		return nil
	}
}
