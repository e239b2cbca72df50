package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"equitylens/internal/config"
	"equitylens/internal/fetch"
	"equitylens/internal/infrastructure"
	"equitylens/internal/pipeline"
	"equitylens/internal/providers"
	"equitylens/internal/report"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to config.yaml when present)")
	outputDir := flag.String("out", "", "output directory for reports and CSV tables (overrides config)")
	symbols := flag.String("symbols", "", "comma-separated security identifiers, e.g. 600519,SZ000001")
	tracing := flag.Bool("trace", false, "emit trace spans to stdout")
	flag.Parse()

	identifiers := splitIdentifiers(*symbols)
	identifiers = append(identifiers, flag.Args()...)
	if len(identifiers) == 0 {
		fmt.Fprintln(os.Stderr, "usage: analyzer [-config file] [-out dir] -symbols 600519,SZ000001")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	logger, closeLogger, err := infrastructure.InitLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	shutdownTracing, err := infrastructure.InitTracing(ctx, *tracing, logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	runner, err := buildRunner(cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "starting batch analysis",
		slog.Int("identifiers", len(identifiers)),
		slog.String("output_dir", cfg.Output.Dir),
	)

	analyses, err := runner.Run(ctx, identifiers)
	if err != nil {
		logger.ErrorContext(ctx, "analysis aborted", slog.Any("error", err))
		os.Exit(1)
	}

	exporter := report.NewExporter(cfg.Output.Dir, logger)
	failed := 0
	for _, analysis := range analyses {
		if analysis.Failed() {
			failed++
			logger.WarnContext(ctx, "analysis failed",
				slog.String("identifier", analysis.Identifier),
				slog.String("error", analysis.Error),
			)
			continue
		}
		if err := writeAnalysis(ctx, exporter, logger, analysis); err != nil {
			failed++
		}
	}

	logger.InfoContext(ctx, "batch analysis finished",
		slog.Int("total", len(analyses)),
		slog.Int("failed", failed),
	)
	if failed == len(analyses) {
		os.Exit(1)
	}
}

// buildRunner wires the fetch boundary into the pipeline from configuration.
func buildRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, error) {
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
		var err error
		cache, err = fetch.NewCache(cfg.Cache.Dir, logger)
		if err != nil {
			return nil, err
		}
	}

	return pipeline.NewRunner(provider, cache, pipeline.Config{
		Workers:           cfg.Pipeline.Workers,
		PriceLookbackDays: cfg.Pipeline.PriceLookbackDays,
		Locale:            cfg.Pipeline.Locale,
	}, logger), nil
}

// writeAnalysis persists every successful module outcome as a narrative text
// report plus a CSV table. Individual write failures are logged and counted,
// never fatal for the batch.
func writeAnalysis(ctx context.Context, exporter *report.Exporter, logger *slog.Logger, analysis *pipeline.Analysis) error {
	var firstErr error
	for _, outcome := range analysis.Outcomes {
		if outcome.Err != nil {
			logger.WarnContext(ctx, "metric unavailable",
				slog.String("symbol", analysis.Security.Symbol),
				slog.String("metric", outcome.Metric),
				slog.String("error", outcome.Error),
			)
			continue
		}
		if path, err := exporter.WriteResultCSV(outcome.Result); err != nil {
			logger.ErrorContext(ctx, "failed to write CSV", slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
		} else {
			logger.InfoContext(ctx, "wrote CSV", slog.String("path", path))
		}
		if path, err := exporter.WriteReportText(analysis.Security.Symbol, outcome.Metric, outcome.Report); err != nil {
			logger.ErrorContext(ctx, "failed to write report", slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
		} else {
			logger.InfoContext(ctx, "wrote report", slog.String("path", path))
		}
	}
	if analysis.BenfordReport != "" {
		if path, err := exporter.WriteReportText(analysis.Security.Symbol, "benford", analysis.BenfordReport); err != nil {
			logger.ErrorContext(ctx, "failed to write report", slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
		} else {
			logger.InfoContext(ctx, "wrote report", slog.String("path", path))
		}
	}
	return firstErr
}

func splitIdentifiers(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
