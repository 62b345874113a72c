// Package expect implements the EM accumulator that collects arc-posterior
// mass from the forward-backward pass and turns it into new model weights
// (§4.5). Expectations keeps its tables as matrix.Dense instances holding
// Log64 cells — one for the alignment model A's three edit classes, one per
// source symbol for the lexicon L's per-state emission distribution — plus
// per-table row sums for the M-step's renormalizing divide.
package expect

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/decipherfst/matrix"
	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
)

// ErrInvalidDimensions indicates a non-positive table dimension.
var ErrInvalidDimensions = errors.New("expect: dimensions must be > 0")

// Edit classes indexing the ali table's second dimension.
const (
	Ins = iota
	Del
	Match
	numEditClasses
)

// expectErrorf wraps an underlying error with Expectations method context,
// matching matrix.Dense's denseErrorf wrapped-error idiom.
func expectErrorf(method string, a, b int32, err error) error {
	return fmt.Errorf("Expectations.%s(%d,%d): %w", method, a, b, err)
}

// mustDense allocates a matrix.Dense whose dimensions are already known
// positive (guaranteed by NewExpectations' own validation); a failure here
// would mean that invariant broke, not a normal runtime condition.
func mustDense(rows, cols int) *matrix.Dense {
	d, err := matrix.NewDense(rows, cols)
	if err != nil {
		panic(fmt.Sprintf("expect: %v", err))
	}

	return d
}

func logAt(d *matrix.Dense, row, col int) semiring.Log64 {
	v, err := d.At(row, col)
	if err != nil {
		panic(fmt.Sprintf("expect: %v", err))
	}

	return semiring.Log64(v)
}

func logSet(d *matrix.Dense, row, col int, w semiring.Log64) {
	if err := d.Set(row, col, float64(w)); err != nil {
		panic(fmt.Sprintf("expect: %v", err))
	}
}

func fillDense(d *matrix.Dense, v semiring.Log64) {
	for r := 0; r < d.Rows(); r++ {
		for c := 0; c < d.Cols(); c++ {
			logSet(d, r, c, v)
		}
	}
}

func plusInto(dst, src *matrix.Dense) {
	for r := 0; r < dst.Rows(); r++ {
		for c := 0; c < dst.Cols(); c++ {
			logSet(dst, r, c, logAt(dst, r, c).Plus(logAt(src, r, c)).(semiring.Log64))
		}
	}
}

// Expectations accumulates arc-posterior mass across one or more
// observations before a single M-step turns it into new A/L weights.
// All cells start at Log64Zero (no evidence observed).
type Expectations struct {
	numLexStates int32
	numSrcSyms   int32
	numTgtSyms   int32
	numAliStates int32

	// ali is numAliStates x numEditClasses: row s holds alignment state s's
	// insertion/deletion/match accumulated mass. aliSum is numAliStates x 1,
	// each row's sum.
	ali    *matrix.Dense
	aliSum *matrix.Dense

	// lex[i] is numLexStates x (numTgtSyms+1): row s, column o holds the
	// mass accumulated for lexicon state s emitting target symbol o from
	// source symbol i (column numTgtSyms is the deletion slot, spec's
	// "lex[·, i, num_tgt_syms]" notation). lexSum is numLexStates x
	// (numTgtSyms+1), summing lex[i][s][o] over all source symbols i.
	lex    []*matrix.Dense
	lexSum *matrix.Dense

	likelihood semiring.Log64
}

// NewExpectations allocates an accumulator sized for a cascade with the
// given number of lexicon states, source/target alphabet sizes, and
// alignment states. All cells are initialized to Log64Zero.
func NewExpectations(numLexStates, numSrcSyms, numTgtSyms, numAliStates int32) (*Expectations, error) {
	if numLexStates <= 0 || numSrcSyms <= 0 || numTgtSyms <= 0 || numAliStates <= 0 {
		return nil, ErrInvalidDimensions
	}

	e := &Expectations{
		numLexStates: numLexStates,
		numSrcSyms:   numSrcSyms,
		numTgtSyms:   numTgtSyms,
		numAliStates: numAliStates,
		likelihood:   semiring.Log64One(),
	}
	e.allocate()

	return e, nil
}

// allocate (re)builds every table at Log64Zero, used both by the
// constructor and by Reset's full-rebuild smoothing pass.
func (e *Expectations) allocate() {
	zero := semiring.Log64Zero()

	e.ali = mustDense(int(e.numAliStates), numEditClasses)
	fillDense(e.ali, zero)
	e.aliSum = mustDense(int(e.numAliStates), 1)
	fillDense(e.aliSum, zero)

	numCols := int(e.numTgtSyms) + 1 // + deletion slot
	e.lex = make([]*matrix.Dense, e.numSrcSyms)
	for i := range e.lex {
		d := mustDense(int(e.numLexStates), numCols)
		fillDense(d, zero)
		e.lex[i] = d
	}
	e.lexSum = mustDense(int(e.numLexStates), numCols)
	fillDense(e.lexSum, zero)
}

// checkAli validates an alignment-state index.
func (e *Expectations) checkAli(s wfst.StateId) error {
	if s < 0 || int32(s) >= e.numAliStates {
		return expectErrorf("ali", int32(s), 0, fmt.Errorf("state out of range [0,%d)", e.numAliStates))
	}

	return nil
}

// checkLex validates a lexicon-state/source-symbol pair.
func (e *Expectations) checkLex(s wfst.StateId, i int32) error {
	if s < 0 || int32(s) >= e.numLexStates {
		return expectErrorf("lex", int32(s), i, fmt.Errorf("state out of range [0,%d)", e.numLexStates))
	}
	if i < 0 || i >= e.numSrcSyms {
		return expectErrorf("lex", int32(s), i, fmt.Errorf("source symbol out of range [0,%d)", e.numSrcSyms))
	}

	return nil
}

// AddObservation folds one composed-arc posterior (gamma, already in the
// Log64 accumulator semiring) into the tables, classifying the arc by its
// (ilabel, olabel) pair per spec §4.5:
//
//   - epsilon (i=0, o=0) or silence (o=1): ignored, no update.
//   - insertion (i=0, o>1): ali[s_a, Ins] / aliSum[s_a] only.
//   - deletion (o=0, i!=0): ali[s_a, Del] / aliSum[s_a], and
//     lex[s_l, i, numTgtSyms] / lexSum[s_l, numTgtSyms].
//   - substitution (else): ali[s_a, Match] / aliSum[s_a], and
//     lex[s_l, i, o] / lexSum[s_l, o].
func (e *Expectations) AddObservation(lexState, aliState wfst.StateId, ilabel, olabel int32, gamma semiring.Log64) error {
	if ilabel == wfst.Epsilon && olabel == wfst.Epsilon {
		return nil
	}
	if olabel == 1 {
		return nil // silence, excluded from statistics
	}

	if err := e.checkAli(aliState); err != nil {
		return err
	}

	switch {
	case ilabel == wfst.Epsilon:
		e.addAli(aliState, Ins, gamma)
	case olabel == wfst.Epsilon:
		if err := e.checkLex(lexState, ilabel); err != nil {
			return err
		}
		e.addAli(aliState, Del, gamma)
		e.addLex(lexState, ilabel, e.numTgtSyms, gamma)
	default:
		if err := e.checkLex(lexState, ilabel); err != nil {
			return err
		}
		e.addAli(aliState, Match, gamma)
		e.addLex(lexState, ilabel, olabel, gamma)
	}

	return nil
}

func (e *Expectations) addAli(s wfst.StateId, class int, gamma semiring.Log64) {
	logSet(e.ali, int(s), class, logAt(e.ali, int(s), class).Plus(gamma).(semiring.Log64))
	logSet(e.aliSum, int(s), 0, logAt(e.aliSum, int(s), 0).Plus(gamma).(semiring.Log64))
}

func (e *Expectations) addLex(s wfst.StateId, i, o int32, gamma semiring.Log64) {
	d := e.lex[i]
	logSet(d, int(s), int(o), logAt(d, int(s), int(o)).Plus(gamma).(semiring.Log64))
	logSet(e.lexSum, int(s), int(o), logAt(e.lexSum, int(s), int(o)).Plus(gamma).(semiring.Log64))
}

// MaximizeAli returns A's new weight for the edit class identified by
// (ilabel, olabel) at alignment state s, as ali[s,class] / aliSum[s]
// (an ⊘ in the Log semiring, i.e. subtraction of -log costs). Per spec §9's
// documented deletion-encoding quirk, A's own arcs identify a deletion by
// ilabel == numTgtSyms (the deletion-slot sentinel carried over from L's
// column layout), not by olabel == 0 as during accumulation — the two
// conditions name the same phenomenon viewed from the training arc (A's
// side) versus the traversed composed arc (accumulation's side).
func (e *Expectations) MaximizeAli(s wfst.StateId, ilabel, olabel int32) (semiring.Weight, error) {
	if ilabel == wfst.Epsilon && olabel == wfst.Epsilon {
		return semiring.LogOne(), nil
	}
	if olabel == 1 {
		return semiring.LogOne(), nil
	}
	if err := e.checkAli(s); err != nil {
		return nil, err
	}

	class := Match
	switch {
	case ilabel == wfst.Epsilon:
		class = Ins
	case ilabel == e.numTgtSyms:
		class = Del
	}

	sum := logAt(e.aliSum, int(s), 0)
	if sum.IsZero() {
		return semiring.LogZero(), nil
	}

	return semiring.CastFromLog64(logAt(e.ali, int(s), class).Divide(sum).(semiring.Log64)), nil
}

// MaximizeLex returns L's new weight for source symbol i at lexicon state
// s emitting target symbol o (or the deletion slot numTgtSyms), as
// lex[s,i,o] / lexSum[s,o]. The silence arc (i=1, o=1) always keeps weight
// One since it is excluded from accumulation entirely. A Log64Zero
// numerator (no mass ever reached this (i,o) pair) maps to LogZero,
// signalling the cascade's M-step to retarget the corresponding L arc to
// the dead state (spec §9's "zero-mass lex arcs" note).
func (e *Expectations) MaximizeLex(s wfst.StateId, i, o int32) (semiring.Weight, error) {
	if i == 1 && o == 1 {
		return semiring.LogOne(), nil // silence arc, never accumulated
	}
	if err := e.checkLex(s, i); err != nil {
		return nil, err
	}
	if o < 0 || o > e.numTgtSyms {
		return nil, expectErrorf("MaximizeLex", int32(s), o, fmt.Errorf("target symbol out of range [0,%d]", e.numTgtSyms))
	}

	num := logAt(e.lex[i], int(s), int(o))
	denom := logAt(e.lexSum, int(s), int(o))
	if num.IsZero() || denom.IsZero() {
		return semiring.LogZero(), nil
	}

	return semiring.CastFromLog64(num.Divide(denom).(semiring.Log64)), nil
}

// Reset clears all tables back to Log64Zero and then adds a uniform
// smoothing constant c (spec §9: "log(3)", "log(num_src-2)" are
// hyperparameters without derivation, left as caller-supplied defaults
// rather than baked-in magic numbers). Every ali[s,class]/lex[s,i,o] cell
// receives c; every row sum is set to c + log(k) where k is the row's
// cell count, matching a uniform distribution smoothed by mass c per cell.
func (e *Expectations) Reset(c float64) {
	e.allocate()
	e.likelihood = semiring.Log64One()

	cw := semiring.Log64(c)
	aliRowMass := semiring.Log64(c + math.Log(float64(numEditClasses)))
	fillDense(e.ali, cw)
	fillDense(e.aliSum, aliRowMass)

	// lexSum[s][o] sums lex[i][s][o] over all numSrcSyms source symbols, so
	// its smoothed row mass scales with numSrcSyms, not the column count —
	// the nearest faithful reading of spec §9's "log(num_src-2)" constant,
	// kept as an empirically-chosen default rather than a derived value.
	colMass := semiring.Log64(c + math.Log(float64(e.numSrcSyms)))
	for _, d := range e.lex {
		fillDense(d, cw)
	}
	fillDense(e.lexSum, colMass)
}

// Merge folds other's tables and likelihood into e, elementwise ⊕ on every
// cell and ⊗ on the two total likelihoods — the parallel-training merge
// step (spec §7, §8's "parallel merge invariance" property): merging two
// accumulators then maximizing must be equivalent to maximizing a single
// accumulator fed both accumulators' observations directly.
func (e *Expectations) Merge(other *Expectations) error {
	if other.numAliStates != e.numAliStates || other.numLexStates != e.numLexStates ||
		other.numSrcSyms != e.numSrcSyms || other.numTgtSyms != e.numTgtSyms {
		return errors.New("expect: Merge: dimension mismatch")
	}

	plusInto(e.ali, other.ali)
	plusInto(e.aliSum, other.aliSum)
	for i := range e.lex {
		plusInto(e.lex[i], other.lex[i])
	}
	plusInto(e.lexSum, other.lexSum)

	e.likelihood = e.likelihood.Times(other.likelihood).(semiring.Log64)

	return nil
}

// AddLikelihood folds one observation's partition weight Z into the running
// total likelihood. Z is accumulated by Times (addition of -log costs),
// since independent observations' probabilities multiply.
func (e *Expectations) AddLikelihood(z semiring.Weight) {
	e.likelihood = e.likelihood.Times(semiring.CastToLog64(z)).(semiring.Log64)
}

// Likelihood returns the accumulated total likelihood, cast back to Log.
func (e *Expectations) Likelihood() semiring.Weight {
	return semiring.CastFromLog64(e.likelihood)
}
