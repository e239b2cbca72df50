// Package http exposes the analysis engine over HTTP: POST /api/analyze runs
// the pipeline for a batch of identifiers, plus health, version, and
// Prometheus metrics endpoints. Handlers validate request DTOs and translate
// pipeline outcomes into the v1 API contract.
package http
