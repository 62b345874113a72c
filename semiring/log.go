package semiring

import "math"

// Log is the (-log-sum-exp, +) semiring used during EM training. Like
// Tropical, a Log value is a -log-probability cost, but Plus sums
// probability mass instead of taking the best path.
type Log float64

// LogZero is the log semiring's annihilator (+∞: zero probability mass).
func LogZero() Log { return Log(math.Inf(1)) }

// LogOne is the log semiring's identity (0: probability 1).
func LogOne() Log { return Log(0) }

// Plus is the numerically stable log-sum-exp of two costs.
func (w Log) Plus(other Weight) Weight {
	return Log(logAdd(float64(w), float64(other.(Log))))
}

// Times adds costs (multiplies probabilities).
func (w Log) Times(other Weight) Weight {
	return w + other.(Log)
}

// Divide subtracts costs (divides probabilities); used by the M-step.
func (w Log) Divide(other Weight) Weight {
	return w - other.(Log)
}

// Less uses the same natural order as Tropical: smaller cost is "less".
func (w Log) Less(other Weight) bool {
	return w < other.(Log)
}

// IsZero reports whether w is +∞.
func (w Log) IsZero() bool {
	return math.IsInf(float64(w), 1)
}

// Float returns the raw cost.
func (w Log) Float() float64 { return float64(w) }
