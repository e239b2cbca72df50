package scoring

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// statementWithValues packs a flat value list into a normalized balance
// sheet, spreading values across the vocabulary and as many periods as
// needed.
func statementWithValues(t *testing.T, vals []float64) *statement.NormalizedStatement {
	t.Helper()
	items := statement.Vocabulary(domain.StatementBalanceSheet)
	nPeriods := (len(vals) + len(items) - 1) / len(items)

	periods := make([]domain.Period, nPeriods)
	for i := range periods {
		end, err := time.Parse("2006-01-02", fmt.Sprintf("%d-12-31", 2000+i))
		require.NoError(t, err)
		periods[i] = domain.Period{End: end, Freq: domain.FrequencyAnnual}
	}

	rows := make(map[statement.LineItem][]metrics.Value, len(items))
	for _, item := range items {
		rows[item] = make([]metrics.Value, nPeriods)
	}
	for i, v := range vals {
		rows[items[i%len(items)]][i/len(items)] = metrics.Def(v)
	}

	return &statement.NormalizedStatement{
		Symbol:  "600519",
		Kind:    domain.StatementBalanceSheet,
		Source:  "test",
		Periods: periods,
		Rows:    rows,
	}
}

// benfordSample generates values whose leading digits follow the Benford
// distribution exactly, up to integer rounding of the per-digit counts.
func benfordSample(total int) []float64 {
	var vals []float64
	for d := 1; d <= 9; d++ {
		count := int(math.Round(float64(total) * math.Log10(1+1/float64(d))))
		for i := 0; i < count; i++ {
			// Vary magnitude so the sample is not a single repeated number.
			vals = append(vals, float64(d)*math.Pow(10, float64(i%5)))
		}
	}
	return vals
}

func TestBenford_ConformingSample(t *testing.T) {
	stmt := statementWithValues(t, benfordSample(600))

	result, err := NewBenford(nil).Check(stmt)
	require.NoError(t, err)

	assert.Less(t, result.MAD, madCloseBelow)
	assert.Equal(t, BenfordClose, result.Conformance)
	assert.GreaterOrEqual(t, result.SampleSize, 590)
}

func TestBenford_UniformDigitsDeviate(t *testing.T) {
	var vals []float64
	for d := 1; d <= 9; d++ {
		for i := 0; i < 30; i++ {
			vals = append(vals, float64(d)*math.Pow(10, float64(i%4)))
		}
	}
	stmt := statementWithValues(t, vals)

	result, err := NewBenford(nil).Check(stmt)
	require.NoError(t, err)

	assert.Greater(t, result.MAD, madMarginalBelow)
	assert.Equal(t, BenfordNonconformity, result.Conformance)
	assert.Greater(t, result.ChiSquare, 20.08, "chi-square above the 1% critical value for 8 degrees of freedom")
}

func TestBenford_SampleTooSmall(t *testing.T) {
	stmt := statementWithValues(t, []float64{1, 2, 3, 4, 5})

	result, err := NewBenford(nil).Check(stmt)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestBenford_SkipsUndefinedAndZero(t *testing.T) {
	vals := benfordSample(200)
	stmt := statementWithValues(t, vals)
	// Zero cells and gaps must not count toward the sample.
	stmt.Rows[statement.TotalAssets][0] = metrics.Def(0)
	stmt.Rows[statement.Inventories][0] = metrics.Undefined

	result, err := NewBenford(nil).Check(stmt)
	require.NoError(t, err)
	assert.Less(t, result.SampleSize, len(vals))
}

func TestBenford_TopDeviators(t *testing.T) {
	// Concentrate nines in a single line item on top of a conforming base.
	stmt := statementWithValues(t, benfordSample(300))
	nines := make([]metrics.Value, len(stmt.Periods))
	for i := range nines {
		nines[i] = metrics.Def(9e6)
	}
	stmt.Rows[statement.AccountsReceivable] = nines

	result, err := NewBenford(nil).Check(stmt)
	require.NoError(t, err)

	require.NotEmpty(t, result.TopDeviators)
	assert.Equal(t, string(statement.AccountsReceivable), result.TopDeviators[0])
}

func TestLeadingDigit(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{in: 1234, want: 1},
		{in: 0.042, want: 4},
		{in: -56, want: 5},
		{in: 9, want: 9},
		{in: 0.99, want: 9},
		{in: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leadingDigit(tt.in), "in=%v", tt.in)
	}
}

func TestClassifyBenford(t *testing.T) {
	assert.Equal(t, BenfordClose, ClassifyBenford(0.001))
	assert.Equal(t, BenfordAcceptable, ClassifyBenford(0.008))
	assert.Equal(t, BenfordMarginal, ClassifyBenford(0.013))
	assert.Equal(t, BenfordNonconformity, ClassifyBenford(0.02))
}
