package domain

import (
	"fmt"
	"time"
)

// PriceBar is one day of OHLCV data for a security.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsValid checks basic OHLC consistency.
func (b PriceBar) IsValid() bool {
	return !b.Date.IsZero() && b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 &&
		b.Volume >= 0 && b.High >= b.Low && b.High >= b.Open && b.High >= b.Close &&
		b.Low <= b.Open && b.Low <= b.Close
}

// PriceSeries is an ordered sequence of daily bars, strictly increasing by
// date with no duplicates. Providers construct it; the core treats it as
// read-only.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Validate checks the ordering invariant.
func (s *PriceSeries) Validate() error {
	for i, bar := range s.Bars {
		if !bar.IsValid() {
			return fmt.Errorf("invalid bar at index %d (%s)", i, bar.Date.Format("2006-01-02"))
		}
		if i > 0 && !s.Bars[i-1].Date.Before(bar.Date) {
			return fmt.Errorf("bars not strictly increasing at index %d: %s then %s",
				i, s.Bars[i-1].Date.Format("2006-01-02"), bar.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// IsEmpty reports whether the series has no bars.
func (s *PriceSeries) IsEmpty() bool {
	return s == nil || len(s.Bars) == 0
}

// Latest returns the most recent bar. ok is false for an empty series.
func (s *PriceSeries) Latest() (PriceBar, bool) {
	if s.IsEmpty() {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// LatestClose returns the most recent closing price, or 0 and false when the
// series is empty. Callers must not treat the zero as a price.
func (s *PriceSeries) LatestClose() (float64, bool) {
	bar, ok := s.Latest()
	if !ok {
		return 0, false
	}
	return bar.Close, true
}
