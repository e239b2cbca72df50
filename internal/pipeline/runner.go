package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"equitylens/internal/fetch"
	"equitylens/internal/identity"
	"equitylens/internal/metrics"
	"equitylens/internal/ratios"
	"equitylens/internal/report"
	"equitylens/internal/scoring"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// Config tunes the runner.
type Config struct {
	// Workers bounds concurrent per-identifier analyses.
	Workers int
	// PriceLookbackDays is the price history window ending today.
	PriceLookbackDays int
	// Locale selects the narrative report language.
	Locale string
}

// DefaultConfig returns the runner defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           4,
		PriceLookbackDays: 730,
		Locale:            report.LocaleEN,
	}
}

// Outcome is the result of one metric module for one identifier. Exactly one
// of Result and Err is set; a failed module never aborts its siblings.
type Outcome struct {
	Metric string          `json:"metric"`
	Result *metrics.Result `json:"result,omitempty"`
	Report string          `json:"report,omitempty"`
	Err    error           `json:"-"`
	Error  string          `json:"error,omitempty"`
}

// Analysis is everything the pipeline produced for one identifier.
type Analysis struct {
	Identifier    string                 `json:"identifier"`
	Security      identity.Security      `json:"security"`
	Outcomes      []Outcome              `json:"outcomes,omitempty"`
	Benford       *scoring.BenfordResult `json:"benford,omitempty"`
	BenfordReport string                 `json:"benford_report,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
	Err           error                  `json:"-"`
	Error         string                 `json:"error,omitempty"`
}

// Failed reports whether the analysis died before any module ran.
func (a *Analysis) Failed() bool { return a.Err != nil }

// Runner wires the fetch boundary to the metric modules.
type Runner struct {
	provider fetch.Provider
	cache    *fetch.Cache
	renderer *report.Renderer
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer

	zscore        *scoring.ZScore
	mscore        *scoring.MScore
	benford       *scoring.Benford
	dupont        *ratios.DuPont
	profitability *ratios.Profitability
	valuation     *ratios.Valuation
	cashflow      *ratios.CashFlow
	normalizer    *statement.Normalizer
}

// NewRunner creates a runner. cache may be nil to fetch without persistence.
func NewRunner(provider fetch.Provider, cache *fetch.Cache, cfg Config, logger *slog.Logger) *Runner {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PriceLookbackDays <= 0 {
		cfg.PriceLookbackDays = def.PriceLookbackDays
	}
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		provider:      provider,
		cache:         cache,
		renderer:      report.NewRenderer(logger),
		cfg:           cfg,
		logger:        logger,
		tracer:        otel.Tracer("equitylens/pipeline"),
		zscore:        scoring.NewZScore(logger),
		mscore:        scoring.NewMScore(logger),
		benford:       scoring.NewBenford(logger),
		dupont:        ratios.NewDuPont(logger),
		profitability: ratios.NewProfitability(logger),
		valuation:     ratios.NewValuation(logger),
		cashflow:      ratios.NewCashFlow(logger),
		normalizer:    statement.NewNormalizer(logger),
	}
}

// Run analyzes every identifier with a bounded worker pool and returns the
// analyses in input order. Individual failures are carried inside each
// Analysis; Run itself fails only on context cancellation.
func (r *Runner) Run(ctx context.Context, identifiers []string) ([]*Analysis, error) {
	results := make([]*Analysis, len(identifiers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, id := range identifiers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.Analyze(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Analyze runs the full pipeline for one identifier. Errors scoped to a
// single metric land in that metric's Outcome; only pre-module failures
// (validation, no usable statements) set Analysis.Err.
func (r *Runner) Analyze(ctx context.Context, identifier string) *Analysis {
	started := time.Now()
	analysis := &Analysis{Identifier: identifier}

	ctx, span := r.tracer.Start(ctx, "pipeline.analyze",
		trace.WithAttributes(attribute.String("identifier", identifier)))
	defer span.End()
	defer func() {
		analysisDuration.Observe(time.Since(started).Seconds())
		if analysis.Err != nil {
			analysis.Error = analysis.Err.Error()
			analysesTotal.WithLabelValues(outcomeFailed).Inc()
			span.RecordError(analysis.Err)
			span.SetStatus(codes.Error, analysis.Err.Error())
			return
		}
		analysesTotal.WithLabelValues(outcomeOK).Inc()
	}()

	sec, err := identity.Parse(identifier)
	if err != nil {
		analysis.Err = err
		return analysis
	}
	analysis.Security = sec
	span.SetAttributes(
		attribute.String("symbol", sec.Symbol),
		attribute.String("market", string(sec.Market)),
	)

	normalized := r.fetchStatements(ctx, sec, analysis)
	set, err := statement.Align(normalized...)
	if err != nil {
		analysis.Err = err
		return analysis
	}

	prices := r.fetchPrices(ctx, sec, analysis)

	r.runModules(ctx, analysis, set, prices, normalized)

	r.logger.InfoContext(ctx, "analysis complete",
		slog.String("identifier", identifier),
		slog.Int("periods", set.Len()),
		slog.Int("modules", len(analysis.Outcomes)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return analysis
}

// fetchStatements pulls and normalizes the three statement kinds. A failure
// on one kind is recorded as a warning and drops that kind only.
func (r *Runner) fetchStatements(ctx context.Context, sec identity.Security, analysis *Analysis) []*statement.NormalizedStatement {
	normalized := make([]*statement.NormalizedStatement, 0, len(domain.AllStatementKinds))
	for _, kind := range domain.AllStatementKinds {
		raw, err := r.fetchStatement(ctx, sec, kind)
		if err != nil {
			r.warn(ctx, analysis, fmt.Sprintf("%s unavailable: %v", kind, err))
			continue
		}
		norm, err := r.normalizer.Normalize(raw)
		if err != nil {
			r.warn(ctx, analysis, fmt.Sprintf("%s rejected: %v", kind, err))
			continue
		}
		analysis.Warnings = append(analysis.Warnings, norm.Warnings...)
		normalized = append(normalized, norm)
	}
	return normalized
}

func (r *Runner) fetchStatement(ctx context.Context, sec identity.Security, kind domain.StatementKind) (*statement.RawStatement, error) {
	if r.cache == nil {
		return r.provider.FetchStatement(ctx, sec, kind)
	}
	var raw statement.RawStatement
	key := fetch.CacheKey{
		Symbol: sec.Symbol,
		Kind:   domain.StatementDataKind(kind),
		AsOf:   time.Now(),
	}
	err := r.cache.GetOrFetch(ctx, key, &raw, func(ctx context.Context) (interface{}, error) {
		return r.provider.FetchStatement(ctx, sec, kind)
	})
	if err != nil {
		return nil, err
	}
	return &raw, nil
}

// fetchPrices returns nil when price data is unavailable; price-dependent
// modules then degrade on their own terms instead of the whole analysis
// failing.
func (r *Runner) fetchPrices(ctx context.Context, sec identity.Security, analysis *Analysis) *domain.PriceSeries {
	end := time.Now()
	start := end.AddDate(0, 0, -r.cfg.PriceLookbackDays)

	var series domain.PriceSeries
	var err error
	if r.cache == nil {
		var fetched *domain.PriceSeries
		fetched, err = r.provider.FetchPrices(ctx, sec, start, end)
		if err == nil {
			series = *fetched
		}
	} else {
		key := fetch.CacheKey{Symbol: sec.Symbol, Kind: domain.DataKindPrices, AsOf: end}
		err = r.cache.GetOrFetch(ctx, key, &series, func(ctx context.Context) (interface{}, error) {
			return r.provider.FetchPrices(ctx, sec, start, end)
		})
	}
	if err != nil {
		r.warn(ctx, analysis, fmt.Sprintf("prices unavailable: %v", err))
		return nil
	}
	return &series
}

// runModules executes every metric module, isolating failures per module.
func (r *Runner) runModules(ctx context.Context, analysis *Analysis, set *statement.Set, prices *domain.PriceSeries, normalized []*statement.NormalizedStatement) {
	modules := []struct {
		metric  string
		compute func() (*metrics.Result, error)
	}{
		{"z_score", func() (*metrics.Result, error) { return r.zscore.Compute(set, prices) }},
		{"m_score", func() (*metrics.Result, error) { return r.mscore.Compute(set) }},
		{"dupont_3factor", func() (*metrics.Result, error) { return r.dupont.Compute3Factor(set) }},
		{"dupont_5factor", func() (*metrics.Result, error) { return r.dupont.Compute5Factor(set) }},
		{"profitability", func() (*metrics.Result, error) { return r.profitability.Compute(set) }},
		{"valuation", func() (*metrics.Result, error) { return r.valuation.Compute(set, prices) }},
		{"cash_flow", func() (*metrics.Result, error) { return r.cashflow.Compute(set) }},
	}

	for _, m := range modules {
		outcome := Outcome{Metric: m.metric}
		result, err := m.compute()
		observeModule(m.metric, err)
		if err != nil {
			outcome.Err = err
			outcome.Error = err.Error()
			r.logger.WarnContext(ctx, "metric module failed",
				slog.String("identifier", analysis.Identifier),
				slog.String("metric", m.metric),
				slog.Any("error", err),
			)
		} else {
			outcome.Result = result
			if text, renderErr := r.renderer.Render(result, r.cfg.Locale); renderErr == nil {
				outcome.Report = text
			}
		}
		analysis.Outcomes = append(analysis.Outcomes, outcome)
	}

	benford, err := r.benford.Check(normalized...)
	observeModule("benford", err)
	if err != nil {
		analysis.Outcomes = append(analysis.Outcomes, Outcome{
			Metric: "benford",
			Err:    err,
			Error:  err.Error(),
		})
		return
	}
	analysis.Benford = benford
	if text, renderErr := r.renderer.RenderBenford(benford, r.cfg.Locale); renderErr == nil {
		analysis.BenfordReport = text
	}
}

func (r *Runner) warn(ctx context.Context, analysis *Analysis, msg string) {
	analysis.Warnings = append(analysis.Warnings, msg)
	r.logger.WarnContext(ctx, msg, slog.String("identifier", analysis.Identifier))
}

// Outcome lookup helpers used by transports and the CLI.

// OutcomeFor returns the outcome of the named metric, or nil.
func (a *Analysis) OutcomeFor(metric string) *Outcome {
	for i := range a.Outcomes {
		if a.Outcomes[i].Metric == metric {
			return &a.Outcomes[i]
		}
	}
	return nil
}

// Succeeded counts modules that produced a result.
func (a *Analysis) Succeeded() int {
	n := 0
	for _, o := range a.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}
