package fstio

import (
	"fmt"

	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
)

// ToLog casts every weight of a Tropical-semiring Fst into the Log
// semiring (spec §8's explicit cast_to_log), the representation the
// cascade/expect/train packages require for EM. An Fst already in Log is
// returned as-is.
func ToLog(f *wfst.Fst) (*wfst.Fst, error) {
	switch f.Zero.(type) {
	case semiring.Log:
		return f, nil
	case semiring.Tropical:
		return wfst.Cast(f, func(w semiring.Weight) semiring.Weight {
			return semiring.CastToLog(w.(semiring.Tropical))
		}, semiring.LogZero(), semiring.LogOne()), nil
	default:
		return nil, fmt.Errorf("fstio: ToLog: unsupported weight kind %T", f.Zero)
	}
}

// ToTropical casts every weight of a Log-semiring Fst back into Tropical
// (spec §8's cast_to_tropical), the representation decode's composer
// requires. An Fst already in Tropical is returned as-is.
func ToTropical(f *wfst.Fst) (*wfst.Fst, error) {
	switch f.Zero.(type) {
	case semiring.Tropical:
		return f, nil
	case semiring.Log:
		return wfst.Cast(f, func(w semiring.Weight) semiring.Weight {
			return semiring.CastToTropical(w.(semiring.Log))
		}, semiring.TropicalZero(), semiring.TropicalOne()), nil
	default:
		return nil, fmt.Errorf("fstio: ToTropical: unsupported weight kind %T", f.Zero)
	}
}
