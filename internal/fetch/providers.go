package fetch

import (
	"context"
	"time"

	"equitylens/internal/identity"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// PriceProvider fetches daily price bars for a security. Implementations
// fail with a DataUnavailable error on network or provider errors; an empty
// series is a valid result and must never be synthesized into zero-filled
// bars.
type PriceProvider interface {
	FetchPrices(ctx context.Context, sec identity.Security, start, end time.Time) (*domain.PriceSeries, error)
}

// StatementProvider fetches one raw financial statement table for a
// security. The raw shape is provider-specific; only the normalizer
// interprets it.
type StatementProvider interface {
	FetchStatement(ctx context.Context, sec identity.Security, kind domain.StatementKind) (*statement.RawStatement, error)
}

// Provider combines both fetch surfaces, the shape most concrete providers
// implement.
type Provider interface {
	PriceProvider
	StatementProvider
}
