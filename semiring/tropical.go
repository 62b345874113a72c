package semiring

import "math"

// Tropical is the (min, +) semiring used for decoding. A Tropical value is a
// non-negative cost (conventionally -log-probability); smaller is better.
type Tropical float64

// TropicalZero is the tropical semiring's annihilator (+∞: unreachable).
func TropicalZero() Tropical { return Tropical(math.Inf(1)) }

// TropicalOne is the tropical semiring's identity (0: free).
func TropicalOne() Tropical { return Tropical(0) }

// Plus returns the smaller of the two costs (best of two alternative paths).
func (w Tropical) Plus(other Weight) Weight {
	o := other.(Tropical)
	if w < o {
		return w
	}
	return o
}

// Times adds costs along a single path.
func (w Tropical) Times(other Weight) Weight {
	return w + other.(Tropical)
}

// Divide subtracts costs; used by callers renormalizing a tropical lattice.
func (w Tropical) Divide(other Weight) Weight {
	return w - other.(Tropical)
}

// Less reports w < other, i.e. w is a strictly cheaper (more probable) cost.
func (w Tropical) Less(other Weight) bool {
	return w < other.(Tropical)
}

// IsZero reports whether w is +∞ (unreachable).
func (w Tropical) IsZero() bool {
	return math.IsInf(float64(w), 1)
}

// Float returns the raw cost.
func (w Tropical) Float() float64 { return float64(w) }

// Power raises the weight to the given exponent, used by the decoder to
// temperature-scale lexicon weights (§6, `power` flag): cost * p in the
// tropical (log-cost) domain is equivalent to probability^p.
func (w Tropical) Power(p float64) Tropical {
	return Tropical(float64(w) * p)
}
