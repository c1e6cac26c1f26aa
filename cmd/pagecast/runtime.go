package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagecast/browser"
	"github.com/use-agent/pagecast/cache"
	"github.com/use-agent/pagecast/config"
	"github.com/use-agent/pagecast/engine"
	"github.com/use-agent/pagecast/logbuf"
	"github.com/use-agent/pagecast/models"
	"github.com/use-agent/pagecast/service"
	"github.com/use-agent/pagecast/storage"
	"github.com/use-agent/pagecast/webhook"
)

// runtime holds everything a command needs. close releases it in reverse
// order of construction.
type runtime struct {
	cfg     *config.Config
	log     *logbuf.Logger
	svc     *service.Service
	closers []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// loadConfig reads --config when given, applies the environment and then
// the global flag overrides, and installs the slog default.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Load()
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String("log-format"); v != "" {
		cfg.Log.Format = v
	}
	initLogger(os.Stderr, cfg.Log)
	return cfg, nil
}

// openLog builds the bounded log buffer, backed by badger when a store path
// is configured, and restores its persisted lines.
func openLog(ctx context.Context, r *runtime) error {
	opts := []logbuf.Option{logbuf.WithCapacity(r.cfg.LogBuffer.Capacity)}
	if path := r.cfg.LogBuffer.StorePath; path != "" {
		store, err := storage.OpenBadger(path)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn("close log store failed", "error", err)
			}
		})
		opts = append(opts, logbuf.WithStore(store))
	}
	r.log = logbuf.New(opts...)
	r.log.Restore(ctx)
	return nil
}

// setupLog is used by commands that only touch the log buffer.
func setupLog(c *cli.Context) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	r := &runtime{cfg: cfg}
	if err := openLog(c.Context, r); err != nil {
		return nil, err
	}
	return r, nil
}

// setup builds the full service: loaders, browser, cache, webhook and model
// registry.
func setup(c *cli.Context) (*runtime, error) {
	r, err := setupLog(c)
	if err != nil {
		return nil, err
	}
	cfg := r.cfg

	httpEngine, err := engine.NewHTTPEngine(cfg.Browser.Proxy, cfg.Engine.HTTPTimeout)
	if err != nil {
		r.close()
		return nil, err
	}
	memory := engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL)

	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	r.closers = append(r.closers, cc.Close)

	opts := []service.Option{
		service.WithLoader("http", engine.NewLoader(nil, httpEngine)),
		service.WithFetcher(httpEngine),
		service.WithCache(cc),
	}

	if c.Bool("no-browser") {
		opts = append(opts, service.WithLoader("auto", engine.NewLoader(memory, httpEngine)))
	} else {
		b, err := browser.Launch(cfg.Browser)
		if err != nil {
			r.close()
			return nil, err
		}
		r.closers = append(r.closers, b.Close)

		rod := engine.NewRodEngine(b.Render, cfg.Browser.Stealth)
		auto := engine.NewLoader(memory, httpEngine, rod)
		if !cfg.Engine.HTTPFirst {
			auto = engine.NewLoader(memory, rod, httpEngine)
		}
		opts = append(opts,
			service.WithLoader("auto", auto),
			service.WithLoader("browser", engine.NewLoader(nil, rod)),
			service.WithOpener(func(ctx context.Context, u string) (service.LivePage, error) {
				tab, err := b.Open(ctx, u)
				if err != nil {
					return nil, err
				}
				return tab, nil
			}),
			service.WithPoolStats(func() models.PoolStats {
				return models.PoolStats{MaxPages: cfg.Browser.MaxPages, ActivePages: b.Active()}
			}),
		)
	}

	if cfg.Webhook.URL != "" {
		n := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)
		r.closers = append(r.closers, n.Wait)
		opts = append(opts, service.WithNotifier(n))
	}

	r.svc = service.New(cfg, r.log, opts...)
	return r, nil
}
