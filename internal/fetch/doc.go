// Package fetch is the external-data boundary: provider interfaces for
// prices and statements, a rate-limited HTTP client with retry and backoff,
// and an append-only artifact cache with single-flight deduplication.
//
// Timeouts and retries live here and only here; the computation core below
// this boundary is pure and never blocks.
package fetch
