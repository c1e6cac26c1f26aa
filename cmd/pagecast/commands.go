package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagecast/api"
	"github.com/use-agent/pagecast/llm"
	"github.com/use-agent/pagecast/models"
	"github.com/use-agent/pagecast/service"
)

func serveAction(c *cli.Context) error {
	r, err := setup(c)
	if err != nil {
		return err
	}
	defer r.close()

	cfg := r.cfg
	if p := c.Int("port"); p > 0 {
		cfg.Server.Port = p
	}
	slog.Info("pagecast starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(r.svc, r.log, cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// In-flight requests get 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server forced shutdown", "error", err)
	} else {
		slog.Info("http server drained gracefully")
	}
	slog.Info("pagecast stopped")
	return nil
}

func extractAction(c *cli.Context) error {
	u, err := urlArg(c)
	if err != nil {
		return err
	}
	r, err := setup(c)
	if err != nil {
		return err
	}
	defer r.close()

	resp, err := r.svc.Extract(c.Context, &models.ExtractRequest{
		URL:          u,
		FetchOptions: fetchOptions(c),
		MaxAge:       c.Int("max-age"),
	})
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, resp)
}

func watchAction(c *cli.Context) error {
	u, err := urlArg(c)
	if err != nil {
		return err
	}
	if c.Bool("no-browser") {
		return cli.Exit("watch needs the browser; drop --no-browser", 2)
	}
	r, err := setup(c)
	if err != nil {
		return err
	}
	defer r.close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(c.App.Writer)
	return r.svc.Watch(ctx, u, service.WatchHandlers{
		Snapshot: func(pc *models.PageContent) {
			if err := enc.Encode(map[string]any{"type": "snapshot", "data": pc}); err != nil {
				slog.Warn("write snapshot failed", "error", err)
			}
		},
		Video: func(v *models.VideoSummary) {
			if err := enc.Encode(map[string]any{"type": "video", "data": v}); err != nil {
				slog.Warn("write video summary failed", "error", err)
			}
		},
	})
}

func youtubeAction(c *cli.Context) error {
	u, err := urlArg(c)
	if err != nil {
		return err
	}
	r, err := setup(c)
	if err != nil {
		return err
	}
	defer r.close()

	resp, err := r.svc.YouTube(c.Context, &models.YouTubeRequest{URL: u, FetchOptions: fetchOptions(c)})
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, resp)
}

func generateAction(c *cli.Context) error {
	u, err := urlArg(c)
	if err != nil {
		return err
	}
	req := &models.GenerateRequest{
		URL:          u,
		Model:        c.String("model"),
		APIKey:       c.String("api-key"),
		Prompt:       c.String("prompt"),
		SystemPrompt: c.String("system"),
		CSSSelector:  c.String("selector"),
		FetchOptions: fetchOptions(c),
	}
	if path := c.Path("schema"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			return cli.Exit("schema file is not valid JSON", 2)
		}
		req.Schema = data
	}

	r, err := setup(c)
	if err != nil {
		return err
	}
	defer r.close()

	resp, err := r.svc.Generate(c.Context, req)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, resp)
}

func modelsAction(c *cli.Context) error {
	return printJSON(c.App.Writer, models.ModelsResponse{Models: llm.Catalog()})
}

func logsDumpAction(c *cli.Context) error {
	r, err := setupLog(c)
	if err != nil {
		return err
	}
	defer r.close()

	for _, line := range r.log.Logs(c.Context) {
		fmt.Fprintln(c.App.Writer, line)
	}
	return nil
}

func logsClearAction(c *cli.Context) error {
	r, err := setupLog(c)
	if err != nil {
		return err
	}
	defer r.close()

	r.log.Clear(c.Context)
	return nil
}

func urlArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit("expected exactly one URL argument", 2)
	}
	return c.Args().First(), nil
}

func fetchOptions(c *cli.Context) models.FetchOptions {
	return models.FetchOptions{
		Timeout:   c.Int("timeout"),
		Stealth:   c.Bool("stealth"),
		FetchMode: c.String("mode"),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
