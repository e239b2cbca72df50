// Package metrics provides the shared numeric primitives used by every
// metric module: a value type that distinguishes "missing" from zero, and
// pure helpers for safe division, period averaging, and trailing sums.
//
// The division-by-zero policy is uniform across the engine: an undefined
// operand or a zero denominator yields an undefined result, never an error
// and never a silent zero. One missing input therefore degrades a single
// metric cell instead of aborting the whole computation.
package metrics

import "math"

// Value is a float64 that may be undefined. Statement cells that are absent,
// non-numeric, or dropped during normalization propagate as undefined values
// through every arithmetic helper in this package.
type Value struct {
	Float64 float64
	Valid   bool
}

// Undefined is the zero Value, returned wherever a metric cannot be computed.
var Undefined = Value{}

// Def returns a defined Value.
func Def(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Value{Float64: v, Valid: true}
}

// IsDefined reports whether the value carries a number.
func (v Value) IsDefined() bool { return v.Valid }

// Or returns the value's float when defined, otherwise the fallback.
func (v Value) Or(fallback float64) float64 {
	if v.Valid {
		return v.Float64
	}
	return fallback
}

// SafeDiv divides numerator by denominator. The result is undefined when
// either operand is undefined or the denominator is zero.
func SafeDiv(numerator, denominator Value) Value {
	if !numerator.Valid || !denominator.Valid || denominator.Float64 == 0 {
		return Undefined
	}
	return Def(numerator.Float64 / denominator.Float64)
}

// Add returns a + b, undefined if either operand is undefined.
func Add(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Undefined
	}
	return Def(a.Float64 + b.Float64)
}

// Sub returns a - b, undefined if either operand is undefined.
func Sub(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Undefined
	}
	return Def(a.Float64 - b.Float64)
}

// Mul returns a * b, undefined if either operand is undefined.
func Mul(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Undefined
	}
	return Def(a.Float64 * b.Float64)
}

// Neg returns -v.
func Neg(v Value) Value {
	if !v.Valid {
		return Undefined
	}
	return Def(-v.Float64)
}

// Abs returns |v|.
func Abs(v Value) Value {
	if !v.Valid {
		return Undefined
	}
	return Def(math.Abs(v.Float64))
}

// Scale returns v * k for a plain float factor.
func Scale(v Value, k float64) Value {
	if !v.Valid {
		return Undefined
	}
	return Def(v.Float64 * k)
}

// Average returns the arithmetic mean of two period-end balances. Used
// wherever a flow metric (income, cash flow) is divided by a balance-sheet
// stock metric, per standard ratio convention. When the opening balance is
// undefined the closing balance is used alone, matching the treatment of the
// earliest available period.
func Average(periodStart, periodEnd Value) Value {
	if !periodEnd.Valid {
		return Undefined
	}
	if !periodStart.Valid {
		return periodEnd
	}
	return Def((periodStart.Float64 + periodEnd.Float64) / 2)
}

// TrailingSum sums the window ending at index end (inclusive) over the
// preceding windowPeriods entries of a chronologically ordered series.
// The result is undefined when the series is too short or any entry in the
// window is undefined.
func TrailingSum(series []Value, end, windowPeriods int) Value {
	if windowPeriods <= 0 || end < 0 || end >= len(series) || end-windowPeriods+1 < 0 {
		return Undefined
	}
	sum := 0.0
	for i := end - windowPeriods + 1; i <= end; i++ {
		if !series[i].Valid {
			return Undefined
		}
		sum += series[i].Float64
	}
	return Def(sum)
}

// YoYChange returns the relative change (current - prior) / |prior|,
// undefined when either operand is undefined or the prior value is zero.
func YoYChange(current, prior Value) Value {
	if !current.Valid || !prior.Valid || prior.Float64 == 0 {
		return Undefined
	}
	return Def((current.Float64 - prior.Float64) / math.Abs(prior.Float64))
}

// GrowthRate is YoYChange expressed in percent.
func GrowthRate(current, prior Value) Value {
	return Scale(YoYChange(current, prior), 100)
}

// Mean returns the arithmetic mean of the defined entries, undefined when
// none are defined.
func Mean(series []Value) Value {
	sum, n := 0.0, 0
	for _, v := range series {
		if v.Valid {
			sum += v.Float64
			n++
		}
	}
	if n == 0 {
		return Undefined
	}
	return Def(sum / float64(n))
}

// StdDev returns the population standard deviation of the defined entries,
// undefined with fewer than two defined values.
func StdDev(series []Value) Value {
	mean := Mean(series)
	if !mean.Valid {
		return Undefined
	}
	sumSq, n := 0.0, 0
	for _, v := range series {
		if v.Valid {
			d := v.Float64 - mean.Float64
			sumSq += d * d
			n++
		}
	}
	if n < 2 {
		return Undefined
	}
	return Def(math.Sqrt(sumSq / float64(n)))
}
