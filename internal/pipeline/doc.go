// Package pipeline orchestrates the per-identifier analysis flow: fetch raw
// data through the cache, normalize and align statements, run every metric
// module, and render narrative reports. Each identifier is an independent
// sequential pipeline; a worker pool fans out across identifiers.
package pipeline
