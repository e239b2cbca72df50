package http

import (
	"equitylens/internal/metrics"
	"equitylens/internal/pipeline"
	api "equitylens/pkg/contracts/api/v1"
)

// toAnalysisResult converts a pipeline analysis into the v1 API shape.
func toAnalysisResult(a *pipeline.Analysis) api.AnalysisResult {
	out := api.AnalysisResult{
		Identifier: a.Identifier,
		Symbol:     a.Security.Symbol,
		Market:     string(a.Security.Market),
		Error:      a.Error,
		Warnings:   a.Warnings,
	}
	if a.Failed() {
		return out
	}

	out.Metrics = make([]api.MetricOutcome, 0, len(a.Outcomes))
	for _, o := range a.Outcomes {
		out.Metrics = append(out.Metrics, toMetricOutcome(o))
	}
	if a.Benford != nil {
		out.Benford = &api.BenfordOutcome{
			SampleSize:   a.Benford.SampleSize,
			MAD:          a.Benford.MAD,
			ChiSquare:    a.Benford.ChiSquare,
			Conformance:  a.Benford.Conformance,
			TopDeviators: a.Benford.TopDeviators,
			Report:       a.BenfordReport,
		}
	}
	return out
}

func toMetricOutcome(o pipeline.Outcome) api.MetricOutcome {
	out := api.MetricOutcome{
		Metric: o.Metric,
		Error:  o.Error,
		Report: o.Report,
	}
	if o.Result == nil {
		return out
	}

	out.Periods = make([]string, o.Result.Len())
	for i, p := range o.Result.Periods {
		out.Periods[i] = p.Key()
	}
	out.Labels = o.Result.Labels
	out.Notes = o.Result.Notes
	out.Columns = make([]api.MetricColumn, len(o.Result.Columns))
	for i, col := range o.Result.Columns {
		out.Columns[i] = api.MetricColumn{
			Name:   col.Name,
			Values: toNullableFloats(col.Values),
		}
	}
	return out
}

// toNullableFloats maps undefined cells to JSON null, never zero.
func toNullableFloats(values []metrics.Value) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if v.IsDefined() {
			f := v.Float64
			out[i] = &f
		}
	}
	return out
}
