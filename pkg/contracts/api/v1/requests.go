// Package api contains the HTTP API contract definitions for equitylens.
// Version v1 is the current stable API version.
package api

// AnalyzeRequest asks for a full metrics run over one or more security
// identifiers.
type AnalyzeRequest struct {
	Identifiers []string `json:"identifiers" validate:"required,min=1,max=50,dive,required,max=16"`
	Locale      string   `json:"locale,omitempty" validate:"omitempty,oneof=en"`
}

// AnalyzeResponse carries one entry per requested identifier, in request
// order. Per-identifier and per-metric failures are embedded rather than
// failing the whole request.
type AnalyzeResponse struct {
	Results []AnalysisResult `json:"results"`
}

// AnalysisResult is the outcome for one identifier.
type AnalysisResult struct {
	Identifier string          `json:"identifier"`
	Symbol     string          `json:"symbol,omitempty"`
	Market     string          `json:"market,omitempty"`
	Error      string          `json:"error,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Metrics    []MetricOutcome `json:"metrics,omitempty"`
	Benford    *BenfordOutcome `json:"benford,omitempty"`
}

// MetricOutcome is one metric module's table, or its failure.
type MetricOutcome struct {
	Metric  string         `json:"metric"`
	Error   string         `json:"error,omitempty"`
	Periods []string       `json:"periods,omitempty"`
	Columns []MetricColumn `json:"columns,omitempty"`
	Labels  []string       `json:"labels,omitempty"`
	Notes   []string       `json:"notes,omitempty"`
	Report  string         `json:"report,omitempty"`
}

// MetricColumn is one named series; undefined cells are null, never zero.
type MetricColumn struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// BenfordOutcome is the digit-distribution check result.
type BenfordOutcome struct {
	SampleSize   int      `json:"sample_size"`
	MAD          float64  `json:"mad"`
	ChiSquare    float64  `json:"chi_square"`
	Conformance  string   `json:"conformance"`
	TopDeviators []string `json:"top_deviators,omitempty"`
	Report       string   `json:"report,omitempty"`
}

// HealthResponse is the GET /api/health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
