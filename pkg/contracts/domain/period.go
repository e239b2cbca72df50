package domain

import (
	"fmt"
	"time"
)

// Frequency is the reporting cadence of a statement period.
type Frequency string

const (
	FrequencyAnnual    Frequency = "annual"
	FrequencyQuarterly Frequency = "quarterly"
)

// Period identifies one reporting interval for a security. Periods compare by
// end date; the engine keeps statement tables in chronological order (oldest
// first) and renders reports latest first.
type Period struct {
	End  time.Time `json:"end"`
	Freq Frequency `json:"freq"`
}

// Key returns a stable string key for the period, usable for caching and
// cross-statement alignment.
func (p Period) Key() string {
	return p.End.Format("2006-01-02")
}

// Before reports whether p ends before other.
func (p Period) Before(other Period) bool {
	return p.End.Before(other.End)
}

// Equal reports whether two periods cover the same interval.
func (p Period) Equal(other Period) bool {
	return p.End.Equal(other.End)
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return fmt.Sprintf("%s (%s)", p.Key(), p.Freq)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.End.IsZero()
}
