package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"equitylens/internal/config"
	"equitylens/internal/fetch"
	"equitylens/internal/infrastructure"
	"equitylens/internal/pipeline"
	"equitylens/internal/providers"
	transporthttp "equitylens/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to config.yaml when present)")
	tracing := flag.Bool("trace", false, "emit trace spans to stdout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closeLogger, err := infrastructure.InitLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := infrastructure.InitTracing(ctx, *tracing, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	client := fetch.NewClient(fetch.ClientConfig{
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Burst:             cfg.Fetch.Burst,
		MaxRetries:        cfg.Fetch.MaxRetries,
		InitialBackoff:    cfg.Fetch.InitialBackoff,
		Timeout:           cfg.Fetch.Timeout,
		UserAgent:         cfg.Fetch.UserAgent,
	}, logger)
	provider := providers.NewEastMoney(client, cfg.Fetch.BaseURL, logger)

	var cache *fetch.Cache
	if cfg.Cache.Enabled {
		cache, err = fetch.NewCache(cfg.Cache.Dir, logger)
		if err != nil {
			logger.Error("failed to initialize cache", slog.Any("error", err))
			os.Exit(1)
		}
	}

	runner := pipeline.NewRunner(provider, cache, pipeline.Config{
		Workers:           cfg.Pipeline.Workers,
		PriceLookbackDays: cfg.Pipeline.PriceLookbackDays,
		Locale:            cfg.Pipeline.Locale,
	}, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      transporthttp.NewRouter(runner, cfg.Server, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			srv.Close()
		}
	}

	logger.Info("server stopped")
}
