package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orgdex/internal/api"
	"orgdex/internal/config"
	"orgdex/internal/corpus"
	"orgdex/internal/loader"
	"orgdex/internal/parser"
	"orgdex/internal/query"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	build := func(ctx context.Context) (*query.Service, error) {
		l := &loader.Loader{
			Roots:        cfg.Roots(),
			MaxFileBytes: cfg.MaxFileBytes,
			Log:          log,
		}
		sources, err := l.Load()
		if err != nil {
			return nil, err
		}
		b := &corpus.Builder{
			Options: parser.Options{
				Strict:       cfg.StrictParse,
				TodoKeywords: cfg.TodoKeywords,
				DoneKeywords: cfg.DoneKeywords,
				PDFFallback:  cfg.PDFFallbackPdftotext,
			},
			Workers: cfg.WorkerCount,
			Log:     log,
		}
		res, err := b.Build(ctx, sources)
		if err != nil {
			return nil, err
		}
		return query.NewService(res, query.Config{
			DefaultSearchLimit: cfg.DefaultSearchLimit,
			DefaultSnippetSize: cfg.DefaultSnippetSize,
		}), nil
	}

	svc, err := build(context.Background())
	if err != nil {
		log.Error("initial corpus build failed", "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(svc, build, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting orgdex", "port", cfg.Port, "documents", svc.DocumentCount())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
