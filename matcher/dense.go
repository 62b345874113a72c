// Package matcher provides O(1) arc lookup for small, dense FSTs — the
// alignment model A in a three-way composition, which spec §4.1 requires
// be accessed only through a precomputed table, never by iterating its arc
// list.
package matcher

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/decipherfst/wfst"
)

// ErrInvalidDimensions indicates a non-positive state/label bound.
var ErrInvalidDimensions = errors.New("matcher: dimensions must be > 0")

// NoLabel marks the sentinel arc returned by Get when no arc matches.
const NoLabel int32 = -1

// DenseArcMatcher is a flat, row-major 3-D table of (state, ilabel, olabel)
// -> Arc, the same flat-backing-slice-plus-index-bookkeeping idiom as
// matrix.Dense, generalized from float64 cells to Arc cells and from two
// to three dimensions.
type DenseArcMatcher struct {
	numStates, numIlabels, numOlabels int
	cells                             []wfst.Arc
	sentinel                          wfst.Arc
}

// errorf wraps an out-of-bounds lookup with Dense-style method context.
func errorf(method string, s int, i, o int32, err error) error {
	return fmt.Errorf("matcher.%s(%d,%d,%d): %w", method, s, i, o, err)
}

// NewDenseArcMatcher precomputes the (state, ilabel, olabel) -> Arc table
// for f. numIlabels/numOlabels must cover every label value f.Arcs uses
// (labels are 0-indexed, so the bound is exclusive).
//
// Stage 1 (Validate): reject non-positive dimensions.
// Stage 2 (Prepare): allocate the flat cell slice, pre-filled with the
// sentinel arc.
// Stage 3 (Execute): for each state, scan its arcs once and populate cells;
// a later arc for the same (state, ilabel, olabel) triple overwrites an
// earlier one, matching spec §4.1's documented "violations overwrite"
// contract for a non-deterministic A.
func NewDenseArcMatcher(f *wfst.Fst, numIlabels, numOlabels int32) (*DenseArcMatcher, error) {
	numStates := f.NumStates()
	if numStates <= 0 || numIlabels <= 0 || numOlabels <= 0 {
		return nil, ErrInvalidDimensions
	}

	sentinel := wfst.Arc{Ilabel: NoLabel, Olabel: NoLabel, Weight: f.Zero}
	cells := make([]wfst.Arc, numStates*int(numIlabels)*int(numOlabels))
	for i := range cells {
		cells[i] = sentinel
	}

	dm := &DenseArcMatcher{
		numStates:  numStates,
		numIlabels: int(numIlabels),
		numOlabels: int(numOlabels),
		cells:      cells,
		sentinel:   sentinel,
	}

	for s := 0; s < numStates; s++ {
		for _, a := range f.Arcs(wfst.StateId(s)) {
			idx, err := dm.index(s, a.Ilabel, a.Olabel)
			if err != nil {
				return nil, err
			}
			dm.cells[idx] = a
		}
	}

	return dm, nil
}

func (dm *DenseArcMatcher) index(s int, i, o int32) (int, error) {
	if s < 0 || s >= dm.numStates {
		return 0, errorf("Get", s, i, o, ErrInvalidDimensions)
	}
	if i < 0 || int(i) >= dm.numIlabels {
		return 0, errorf("Get", s, i, o, ErrInvalidDimensions)
	}
	if o < 0 || int(o) >= dm.numOlabels {
		return 0, errorf("Get", s, i, o, ErrInvalidDimensions)
	}

	return (s*dm.numIlabels+int(i))*dm.numOlabels + int(o), nil
}

// Get returns the unique arc leaving state s with the given (ilabel,
// olabel), or the sentinel arc (IsSentinel reports true) if none exists.
// Out-of-range labels are treated the same as "no match" rather than an
// error, since the composer probes label values derived from O/G without
// first checking them against A's declared alphabet bounds.
func (dm *DenseArcMatcher) Get(s int, i, o int32) wfst.Arc {
	idx, err := dm.index(s, i, o)
	if err != nil {
		return dm.sentinel
	}

	return dm.cells[idx]
}

// IsSentinel reports whether a is the "no matching arc" sentinel.
func IsSentinel(a wfst.Arc) bool {
	return a.Ilabel == NoLabel && a.Olabel == NoLabel
}
