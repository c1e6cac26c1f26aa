package extractor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/use-agent/pagecast/logbuf"
	"github.com/use-agent/pagecast/models"
)

// Source is a live document that can be snapshotted and watched for changes.
type Source interface {
	// URL returns the current location of the document.
	URL(ctx context.Context) (string, error)
	// HTML returns the current serialized document.
	HTML(ctx context.Context) (string, error)
	// ObserveMutations calls fn for every subtree, child list or character
	// data mutation until stop is called. fn must not be called after stop
	// returns.
	ObserveMutations(fn func()) (stop func() error, err error)
}

// SnapshotHandler receives every snapshot produced by an Observer.
type SnapshotHandler func(*models.PageContent)

// ObserverOption configures InitializePageExtraction.
type ObserverOption func(*Observer)

// WithDebounce coalesces mutations arriving within d into one extraction.
// Zero, the default, re-extracts on every mutation.
func WithDebounce(d time.Duration) ObserverOption {
	return func(o *Observer) { o.debounce = d }
}

// WithSnapshotHandler registers fn to receive each snapshot.
func WithSnapshotHandler(fn SnapshotHandler) ObserverOption {
	return func(o *Observer) { o.handler = fn }
}

// Observer re-extracts a live document whenever it mutates.
type Observer struct {
	src      Source
	log      *logbuf.Logger
	debounce time.Duration
	handler  SnapshotHandler

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	stopFn  func() error
	runs    int
}

// InitializePageExtraction takes an initial snapshot of src, then installs a
// mutation observer that takes a new full snapshot on every change. Call Stop
// on the returned Observer to disconnect it.
func InitializePageExtraction(ctx context.Context, src Source, log *logbuf.Logger, opts ...ObserverOption) (*Observer, error) {
	if src == nil {
		return nil, errors.New("extractor: nil source")
	}
	o := &Observer{src: src, log: log}
	for _, opt := range opts {
		opt(o)
	}

	o.extract(ctx)

	stop, err := src.ObserveMutations(func() { o.notify(ctx) })
	if err != nil {
		log.Error("extractor: install mutation observer failed", err)
		return nil, err
	}
	o.mu.Lock()
	o.stopFn = stop
	o.mu.Unlock()
	log.Log("extractor: page extraction initialized")
	return o, nil
}

func (o *Observer) notify(ctx context.Context) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	if o.debounce <= 0 {
		o.mu.Unlock()
		o.extract(ctx)
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.debounce, func() { o.extract(ctx) })
	o.mu.Unlock()
}

func (o *Observer) extract(ctx context.Context) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.runs++
	o.mu.Unlock()

	pageURL, err := o.src.URL(ctx)
	if err != nil {
		o.log.Warn("extractor: read page url failed", err)
	}
	markup, err := o.src.HTML(ctx)
	if err != nil {
		o.log.Error("extractor: snapshot document failed", pageURL, err)
		return
	}

	pc := FromHTML(markup, pageURL, o.log).AllPageContent()
	o.log.Log("extractor: page content extracted", pageURL)
	if o.handler != nil {
		o.handler(pc)
	}
}

// Runs returns how many extractions have started.
func (o *Observer) Runs() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runs
}

// Stop disconnects the mutation observer and cancels a pending debounced
// extraction. It is safe to call more than once.
func (o *Observer) Stop() error {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return nil
	}
	o.stopped = true
	if o.timer != nil {
		o.timer.Stop()
	}
	stop := o.stopFn
	o.mu.Unlock()

	if stop != nil {
		return stop()
	}
	return nil
}
