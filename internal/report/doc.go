// Package report turns metric results into human-readable narrative text and
// persists metric tables as CSV files. It consumes metrics.Result values only
// and never reaches back into raw or normalized statements.
package report
