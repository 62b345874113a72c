// Package cascade wires the lexicon (L), alignment (A), and grammar (G)
// models together into the single object the training driver talks to: one
// call computes expectations for an observation (§4.6 step 1-5), another
// turns accumulated expectations into new L/A weights (the M-step). Mirrors
// dtw.DTW's top-level-driver-wrapping-a-core-algorithm shape: a small
// numbered sequence of named stages. The constructor does not validate its
// arguments.
package cascade

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/decipherfst/compose"
	"github.com/katalvlaran/decipherfst/expect"
	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
)

// ErrEmptyLattice is returned (as a warning-carrying sentinel, not a hard
// failure — callers should skip the observation and continue) when an
// observation's composition has no start state. A composition that has a
// start state but no reachable final state yields ErrZeroLikelihood instead.
var ErrEmptyLattice = errors.New("cascade: composition is empty")

// ErrZeroLikelihood signals Z = 0̄ (or NaN): no path through the composed
// lattice reaches a final state with non-zero mass. Per spec §4.6 step 3
// this is a skip-and-warn condition, not a fatal error.
var ErrZeroLikelihood = errors.New("cascade: observation likelihood is zero")

// DeciphermentCascade owns the three models (L, A, G) and the composer
// strategy (standard or three-way) that joins them against each incoming
// observation.
type DeciphermentCascade struct {
	L, A, G  *wfst.Fst
	composer compose.Composer

	numSrcSyms, numTgtSyms int32
	trainLex, trainAli     bool
}

// NewDeciphermentCascade wraps l, a, g with the given composer. trainLex/
// trainAli gate whether Maximize touches L/A respectively (spec §6's
// train-lex/train-ali flags let a cascade hold one model fixed).
func NewDeciphermentCascade(l, a, g *wfst.Fst, composer compose.Composer, numSrcSyms, numTgtSyms int32, trainLex, trainAli bool) *DeciphermentCascade {
	return &DeciphermentCascade{
		L: l, A: a, G: g,
		composer:   composer,
		numSrcSyms: numSrcSyms, numTgtSyms: numTgtSyms,
		trainLex: trainLex, trainAli: trainAli,
	}
}

// ComputeExpectations runs spec §4.6's five-step E-step for one observation
// o and folds the resulting arc posteriors into exp.
//
//  1. Compose o against L·A·G (exact or pruned, per the cascade's composer).
//  2. Forward/backward shortest distance over the composed lattice; Z is the
//     backward distance at the start state.
//  3. Bail out (ErrZeroLikelihood) if Z is zero or NaN.
//  4. For every arc s->(i,o,w)->t, fold posterior γ = α[s]⊗w⊗β[t]⊘Z into exp,
//     tagged with the (lex_state, ali_state) of the composed state s.
//  5. Add Z to exp's running likelihood.
func (c *DeciphermentCascade) ComputeExpectations(o *wfst.Fst, exp *expect.Expectations) error {
	res, err := c.composer.Compose(o)
	if err != nil {
		return fmt.Errorf("cascade: compose: %w", err)
	}
	if res.Fst.Start() == wfst.NoStateId || res.Fst.NumStates() == 0 {
		return ErrEmptyLattice
	}

	alpha := wfst.ShortestDistance(res.Fst, false)
	beta := wfst.ShortestDistance(res.Fst, true)

	start := res.Fst.Start()
	z := beta[start]
	if z.IsZero() || math.IsNaN(z.Float()) {
		return ErrZeroLikelihood
	}

	n := res.Fst.NumStates()
	for s := 0; s < n; s++ {
		if beta[wfst.StateId(s)].IsZero() {
			continue
		}
		for _, a := range res.Fst.Arcs(wfst.StateId(s)) {
			t := a.Nextstate
			if beta[t].IsZero() {
				continue
			}
			gamma := alpha[s].Times(a.Weight).Times(beta[t]).Divide(z)
			lexState := res.LexState[s]
			aliState := res.AliState[s]
			if err := exp.AddObservation(lexState, aliState, a.Ilabel, a.Olabel, semiring.CastToLog64(gamma)); err != nil {
				return fmt.Errorf("cascade: add observation: %w", err)
			}
		}
	}

	exp.AddLikelihood(z)

	return nil
}

// Maximize runs the M-step: every arc of A (if trainAli) and every arc of L
// (if trainLex) is reweighted from exp. Any L arc whose new weight is Zero
// is retargeted to a freshly appended dead state rather than removed in
// place (spec §9's "zero-mass lex arcs" note: deleting arcs mid-traversal
// would invalidate iterators and renumber states), after which Connect
// trims unreachable states and the surviving arcs are re-sorted by output
// label so the next composition's matcher precondition still holds. G is
// never updated.
func (c *DeciphermentCascade) Maximize(exp *expect.Expectations) error {
	if c.trainAli {
		if err := maximizeAli(c.A, exp); err != nil {
			return err
		}
	}

	if c.trainLex {
		pruned, err := maximizeLex(c.L, exp, c.numTgtSyms)
		if err != nil {
			return err
		}
		if pruned {
			c.L = wfst.Connect(c.L)
			wfst.ArcSortOutput(c.L)
		}
	}

	return nil
}

// maximizeAli reweights every arc of a in place from exp's ali/aliSum
// tables. A has no zero-mass-retarget step: spec §4.6 only describes dead-
// state rerouting for L.
func maximizeAli(a *wfst.Fst, exp *expect.Expectations) error {
	n := a.NumStates()
	for s := 0; s < n; s++ {
		arcs := a.Arcs(wfst.StateId(s))
		updated := make([]wfst.Arc, len(arcs))
		for i, arc := range arcs {
			w, err := exp.MaximizeAli(wfst.StateId(s), arc.Ilabel, arc.Olabel)
			if err != nil {
				return fmt.Errorf("cascade: maximize ali: %w", err)
			}
			updated[i] = arc
			updated[i].Weight = w
		}
		a.SetArcs(wfst.StateId(s), updated)
	}

	return nil
}

// maximizeLex reweights every arc of l in place from exp's lex/lexSum
// tables. Any arc receiving Zero is retargeted to a freshly appended dead
// state (added once, lazily, the first time it's needed) instead of being
// removed; the caller is responsible for running Connect afterward. Returns
// whether any arc was pruned, so the caller knows whether Connect is worth
// running.
func maximizeLex(l *wfst.Fst, exp *expect.Expectations, numTgtSyms int32) (bool, error) {
	var deadState wfst.StateId = wfst.NoStateId
	pruned := false

	n := l.NumStates()
	for s := 0; s < n; s++ {
		arcs := l.Arcs(wfst.StateId(s))
		updated := make([]wfst.Arc, len(arcs))
		for i, arc := range arcs {
			o := arc.Olabel
			if o == wfst.Epsilon {
				o = numTgtSyms // deletion slot: composed arcs carry olabel=0, L's own table stores it at column numTgtSyms.
			}
			w, err := exp.MaximizeLex(wfst.StateId(s), arc.Ilabel, o)
			if err != nil {
				return false, fmt.Errorf("cascade: maximize lex: %w", err)
			}
			updated[i] = arc
			updated[i].Weight = w
			if w.IsZero() {
				if deadState == wfst.NoStateId {
					deadState = l.AddState()
				}
				updated[i].Nextstate = deadState
				pruned = true
			}
		}
		l.SetArcs(wfst.StateId(s), updated)
	}

	return pruned, nil
}
