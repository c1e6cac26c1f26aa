// Package service ties loading, extraction, the YouTube handler and the
// model registry together. The HTTP API and the CLI both call it.
package service

import (
	"context"
	"net/http"
	"time"

	"github.com/use-agent/pagecast/cache"
	"github.com/use-agent/pagecast/config"
	"github.com/use-agent/pagecast/engine"
	"github.com/use-agent/pagecast/extractor"
	"github.com/use-agent/pagecast/llm"
	"github.com/use-agent/pagecast/logbuf"
	"github.com/use-agent/pagecast/models"
	"github.com/use-agent/pagecast/webhook"
	"github.com/use-agent/pagecast/youtube"
)

// Loader loads one document.
type Loader interface {
	Load(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error)
}

// LivePage is an open browser tab.
type LivePage interface {
	extractor.Source
	youtube.Page
	Close() error
}

// OpenFunc opens url in a live tab.
type OpenFunc func(ctx context.Context, url string) (LivePage, error)

// Service runs the pagecast operations.
type Service struct {
	cfg      *config.Config
	log      *logbuf.Logger
	loaders  map[string]Loader
	open     OpenFunc
	cache    *cache.Cache
	registry *llm.Registry
	renderer *extractor.Renderer
	fetcher  youtube.Fetcher
	notifier *webhook.Notifier
	stats    func() models.PoolStats
	started  time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLoader registers the loader for a fetch mode ("auto", "http",
// "browser").
func WithLoader(mode string, l Loader) Option {
	return func(s *Service) { s.loaders[mode] = l }
}

// WithOpener enables live tabs.
func WithOpener(fn OpenFunc) Option { return func(s *Service) { s.open = fn } }

// WithCache enables snapshot caching for Extract.
func WithCache(c *cache.Cache) Option { return func(s *Service) { s.cache = c } }

// WithRegistry replaces the model registry.
func WithRegistry(r *llm.Registry) Option { return func(s *Service) { s.registry = r } }

// WithFetcher sets the client used for caption tracks.
func WithFetcher(f youtube.Fetcher) Option { return func(s *Service) { s.fetcher = f } }

// WithNotifier delivers snapshots and video summaries to a webhook.
func WithNotifier(n *webhook.Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithPoolStats reports browser pool usage in Health.
func WithPoolStats(fn func() models.PoolStats) Option { return func(s *Service) { s.stats = fn } }

// New creates a Service. Without a WithRegistry option the registry is built
// from cfg.LLM.
func New(cfg *config.Config, log *logbuf.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		log:      log,
		loaders:  make(map[string]Loader),
		renderer: extractor.NewRenderer(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry(cfg.LLM)
	}
	return s
}

// NewRegistry builds a model registry from the LLM configuration.
func NewRegistry(cfg config.LLMConfig) *llm.Registry {
	opts := []llm.RegistryOption{
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}),
	}
	for provider, u := range cfg.BaseURLs {
		opts = append(opts, llm.WithBaseURL(provider, u))
	}
	return llm.NewRegistry(opts...)
}

// Logger returns the log buffer.
func (s *Service) Logger() *logbuf.Logger { return s.log }

// Health reports pool usage and uptime.
func (s *Service) Health() models.HealthResponse {
	var stats models.PoolStats
	if s.stats != nil {
		stats = s.stats()
	}
	status := "healthy"
	if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
		status = "degraded"
	}
	size := 0
	if s.cache != nil {
		size = s.cache.Len()
	}
	return models.HealthResponse{
		Status:    status,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		PoolStats: stats,
		CacheSize: size,
		Version:   Version,
	}
}

// Version is reported by Health and the CLI.
const Version = "0.1.0"

// fetch loads a page with the loader for mode.
func (s *Service) fetch(ctx context.Context, pageURL string, o models.FetchOptions) (*engine.FetchResult, error) {
	l, ok := s.loaders[o.FetchMode]
	if !ok || l == nil {
		return nil, models.NewAPIError(models.ErrCodeInvalidInput, "fetch mode "+o.FetchMode+" is not available", nil)
	}

	timeout := time.Duration(o.Timeout) * time.Second
	if timeout <= 0 {
		timeout = s.cfg.Engine.DefaultTimeout
	}
	if limit := s.cfg.Engine.MaxTimeout; limit > 0 && timeout > limit {
		timeout = limit
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := l.Load(ctx, &engine.FetchRequest{
		URL:     pageURL,
		Headers: o.Headers,
		Timeout: timeout,
		Stealth: o.Stealth,
	})
	if err != nil {
		s.log.Error("load page failed", pageURL, err)
		if ctx.Err() != nil {
			return nil, models.NewAPIError(models.ErrCodeTimeout, "loading the page timed out", err)
		}
		if models.CodeOf(err, "") != "" {
			return nil, err
		}
		return nil, models.NewAPIError(models.ErrCodeNavigation, "failed to load page", err)
	}
	if result.FinalURL == "" {
		result.FinalURL = pageURL
	}
	return result, nil
}
