package semiring

import "math"

// Log64 is the double-precision log semiring used exclusively by the
// Expectations accumulator (§3). Go's float64 already carries double
// precision, so Log64's numeric behavior is identical to Log; it exists as
// a distinct type so that accumulation code can never accidentally mix an
// accumulator cell with a training-arc weight without going through Cast
// (see cast.go) — the same discipline the spec's "double-precision log
// semiring... to avoid float underflow" note calls for, made a compile-time
// guarantee instead of a documentation comment.
type Log64 float64

// Log64Zero is the double log semiring's annihilator.
func Log64Zero() Log64 { return Log64(math.Inf(1)) }

// Log64One is the double log semiring's identity.
func Log64One() Log64 { return Log64(0) }

// Plus is the numerically stable log-sum-exp of two accumulator cells.
func (w Log64) Plus(other Weight) Weight {
	return Log64(logAdd(float64(w), float64(other.(Log64))))
}

// Times adds accumulator costs.
func (w Log64) Times(other Weight) Weight {
	return w + other.(Log64)
}

// Divide subtracts accumulator costs (the M-step's pointwise divide).
func (w Log64) Divide(other Weight) Weight {
	return w - other.(Log64)
}

// Less orders accumulator cells the same way as Log/Tropical.
func (w Log64) Less(other Weight) bool {
	return w < other.(Log64)
}

// IsZero reports whether w is +∞.
func (w Log64) IsZero() bool {
	return math.IsInf(float64(w), 1)
}

// Float returns the raw accumulator value.
func (w Log64) Float() float64 { return float64(w) }
