package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/pagecast/logbuf"
	"github.com/use-agent/pagecast/models"
)

const (
	// DefaultInitialDelay is the wait after Initialize before the first
	// attempt, covering the watch page's own rendering.
	DefaultInitialDelay = 1500 * time.Millisecond
	// DefaultProcessDelay is the wait after a navigation event or URL change.
	DefaultProcessDelay = time.Second

	// NavigateEvent is the event YouTube dispatches after in-app navigation.
	NavigateEvent = "yt-navigate-finish"
)

// Page is the watch page as seen by the handler.
type Page interface {
	URL(ctx context.Context) (string, error)
	// Global returns the JSON value of a window global, or nil when it is
	// undefined.
	Global(ctx context.Context, name string) (json.RawMessage, error)
	// Scripts returns the text of every inline script element.
	Scripts(ctx context.Context) ([]string, error)
	// On calls fn every time the document dispatches event.
	On(event string, fn func()) (stop func() error, err error)
	// ObserveMutations calls fn on every DOM mutation.
	ObserveMutations(fn func()) (stop func() error, err error)
}

// SummaryHandler receives each processed video.
type SummaryHandler func(*models.VideoSummary)

// Option configures a Handler.
type Option func(*Handler)

// WithInitialDelay overrides DefaultInitialDelay.
func WithInitialDelay(d time.Duration) Option { return func(h *Handler) { h.initialDelay = d } }

// WithProcessDelay overrides DefaultProcessDelay.
func WithProcessDelay(d time.Duration) Option { return func(h *Handler) { h.processDelay = d } }

// WithSummaryHandler registers fn to receive each VideoSummary.
func WithSummaryHandler(fn SummaryHandler) Option { return func(h *Handler) { h.onSummary = fn } }

// Handler processes the videos shown in one page.
type Handler struct {
	page    Page
	fetch   Fetcher
	log     *logbuf.Logger
	session *Session

	initialDelay time.Duration
	processDelay time.Duration
	onSummary    SummaryHandler

	mu      sync.Mutex
	lastURL string
	timers  []*time.Timer
	stops   []func() error
}

// New creates a Handler. A nil fetcher falls back to a plain HTTP client.
func New(page Page, fetch Fetcher, log *logbuf.Logger, opts ...Option) *Handler {
	if fetch == nil {
		fetch = httpFetcher{client: &http.Client{Timeout: 30 * time.Second}}
	}
	h := &Handler{
		page:         page,
		fetch:        fetch,
		log:          log,
		initialDelay: DefaultInitialDelay,
		processDelay: DefaultProcessDelay,
		session:      NewSession(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Session returns the handler's session.
func (h *Handler) Session() *Session { return h.session }

// Initialize wires the three triggers: a timer after InitialDelay, the
// yt-navigate-finish event, and a URL change seen while observing DOM
// mutations. The last two schedule ProcessVideo after ProcessDelay.
// Scheduled runs are not cancelled when a newer trigger fires.
func (h *Handler) Initialize(ctx context.Context) error {
	if u, err := h.page.URL(ctx); err == nil {
		h.mu.Lock()
		h.lastURL = u
		h.mu.Unlock()
	}

	h.schedule(ctx, h.initialDelay, "initial load")

	stopNav, err := h.page.On(NavigateEvent, func() {
		h.schedule(ctx, h.processDelay, "navigation finished")
	})
	if err != nil {
		h.log.Error("youtube: listen for navigation failed", err)
		return fmt.Errorf("listen for %s: %w", NavigateEvent, err)
	}

	stopObs, err := h.page.ObserveMutations(func() { h.checkURL(ctx) })
	if err != nil {
		_ = stopNav()
		h.log.Error("youtube: observe mutations failed", err)
		return fmt.Errorf("observe mutations: %w", err)
	}

	h.mu.Lock()
	h.stops = append(h.stops, stopNav, stopObs)
	h.mu.Unlock()

	h.log.Log("youtube: handler initialized", h.session.ID())
	return nil
}

func (h *Handler) checkURL(ctx context.Context) {
	u, err := h.page.URL(ctx)
	if err != nil {
		return
	}
	h.mu.Lock()
	changed := u != h.lastURL
	h.lastURL = u
	h.mu.Unlock()
	if changed {
		h.schedule(ctx, h.processDelay, "url changed")
	}
}

// schedule runs ProcessVideo after d. A timer is tracked until it fires so
// Close can stop it.
func (h *Handler) schedule(ctx context.Context, d time.Duration, reason string) {
	h.log.Log("youtube: processing scheduled", reason)
	h.mu.Lock()
	defer h.mu.Unlock()
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		h.mu.Lock()
		for i, pending := range h.timers {
			if pending == t {
				h.timers = append(h.timers[:i], h.timers[i+1:]...)
				break
			}
		}
		h.mu.Unlock()
		h.ProcessVideo(ctx)
	})
	h.timers = append(h.timers, t)
}

func (h *Handler) pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

// Close removes the page listeners and drops pending scheduled runs.
func (h *Handler) Close() error {
	h.mu.Lock()
	timers, stops := h.timers, h.stops
	h.timers, h.stops = nil, nil
	h.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	var errs []error
	for _, stop := range stops {
		if err := stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProcessVideo reads the current video id and, unless it was already the last
// processed one, fetches its transcript and summary. It returns nil when
// there was nothing to do or any step failed; failures are logged.
func (h *Handler) ProcessVideo(ctx context.Context) *models.VideoSummary {
	pageURL, err := h.page.URL(ctx)
	if err != nil {
		h.log.Error("youtube: read page url failed", err)
		return nil
	}
	videoID := VideoIDFromURL(pageURL)
	if videoID == "" {
		h.log.Log("youtube: not a video page", pageURL)
		return nil
	}
	if !h.session.Claim(videoID) {
		h.log.Log("youtube: video already processed", videoID)
		return nil
	}
	h.log.Log("youtube: processing video", videoID)

	player, err := h.playerResponse(ctx)
	if err != nil {
		h.log.Error("youtube: player response unavailable", videoID, err)
		return nil
	}

	transcript := h.FetchTranscript(ctx, player)
	if transcript == nil {
		return nil
	}

	vs := &models.VideoSummary{
		VideoID:     videoID,
		Title:       player.Title(),
		Language:    transcript.Language,
		Transcript:  transcript.Text,
		Summary:     Summarize(transcript.Text),
		ProcessedAt: time.Now().UTC(),
	}
	h.log.Log("youtube: transcript summary", videoID, vs.Summary)
	if h.onSummary != nil {
		h.onSummary(vs)
	}
	return vs
}

// FetchTranscript returns the text of the first caption track, or nil with a
// logged error when the response has no captions, the track has no URL, the
// fetch fails or the XML cannot be parsed.
func (h *Handler) FetchTranscript(ctx context.Context, player *PlayerResponse) *Transcript {
	t, err := fetchTranscript(ctx, h.fetch, player)
	if err != nil {
		h.log.Error("youtube: transcript unavailable", err)
		return nil
	}
	return t
}

// playerResponse prefers the page global and falls back to scanning inline
// scripts.
func (h *Handler) playerResponse(ctx context.Context) (*PlayerResponse, error) {
	raw, err := h.page.Global(ctx, playerResponseGlobal)
	if err != nil {
		h.log.Warn("youtube: read player response global failed", err)
	}
	if len(raw) > 0 && string(raw) != "null" {
		if p, err := ParsePlayerResponse(raw); err == nil {
			return p, nil
		}
	}

	scripts, err := h.page.Scripts(ctx)
	if err != nil {
		return nil, fmt.Errorf("read scripts: %w", err)
	}
	raw, err = PlayerResponseFromScripts(scripts)
	if err != nil {
		return nil, err
	}
	return ParsePlayerResponse(raw)
}
