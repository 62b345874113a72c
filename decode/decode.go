// Package decode implements the per-observation decoding driver (§4.7,
// §6): three-way compose an observation against a temperature-scaled L·A·G
// in the tropical semiring, take the shortest path, extract the linear
// output sequence as the hypothesis, and optionally emit a cleaned-up
// output lattice. Grounded on decipherment-apply.cc's own pipeline
// (original_source) and on the wfst package's already-built ops.
package decode

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/decipherfst/compose"
	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
)

// ErrEmptyHypothesis is a warning-carrying sentinel (spec §9's open
// question: "the decoder's exit code when the last observation is empty...
// prefer returning success if any prior observation succeeded") rather
// than necessarily a hard failure; callers decide whether to treat it as
// fatal for a given observation.
var ErrEmptyHypothesis = errors.New("decode: no accepting path found")

// Config holds the decode driver's tunables, named after spec §6's CLI
// flags for decipherment-apply.
type Config struct {
	NumSrcSyms, NumTgtSyms int32
	Power                  float64
	PruneBeam              float64
	OutputPruneBeam        float64
	StepsThreshold         int
	PruneOutput            bool
	RemoveWeightsOut       bool
}

// Result is one observation's decode output: the extracted hypothesis
// sequence, and the (optionally cleaned-up) output lattice it came from.
type Result struct {
	Hypothesis []int32
	Lattice    *wfst.Fst
}

// Decoder composes each observation against a fixed L, A, G (all tropical,
// L already temperature-scaled by Power) via on-the-fly three-way
// composition, per spec §4.7: decoding always uses the pruned composer,
// never the exact one, since temperature-scaled weights make an unpruned
// lattice prohibitively large on any non-toy alphabet.
type Decoder struct {
	composer compose.Composer
	cfg      Config
}

// NewDecoder builds the temperature-scaled composer once for the whole
// decode run: l is cloned and PowerMap'd (the caller's l is untouched), a
// and g are used as given (g must already be input-projected and, if
// desired, input-sorted by the caller — decode does not re-derive either).
func NewDecoder(l, a, g *wfst.Fst, cfg Config) (*Decoder, error) {
	lPow := l.Clone()
	wfst.PowerMap(lPow, cfg.Power)

	tw, err := compose.NewThreeWayComposer(lPow, a, g, cfg.NumSrcSyms, cfg.NumTgtSyms, cfg.PruneBeam, cfg.StepsThreshold)
	if err != nil {
		return nil, fmt.Errorf("decode: build composer: %w", err)
	}

	return &Decoder{composer: tw, cfg: cfg}, nil
}

// Decode runs the full pipeline for one observation o (a tropical linear
// acceptor, e.g. from fstio.LinearAcceptor): compose, optionally prune the
// output lattice to cfg.OutputPruneBeam, take the shortest path, extract
// the hypothesis sequence, and build the optionally-cleaned output lattice
// cfg.PruneOutput calls for.
func (d *Decoder) Decode(o *wfst.Fst) (*Result, error) {
	res, err := d.composer.Compose(o)
	if err != nil {
		return nil, fmt.Errorf("decode: compose: %w", err)
	}
	if res.Fst.Start() == wfst.NoStateId || res.Fst.NumStates() == 0 {
		return nil, ErrEmptyHypothesis
	}

	lattice := res.Fst
	if d.cfg.PruneOutput {
		lattice = prune(lattice, d.cfg.OutputPruneBeam)
	}

	best := wfst.ShortestPath(lattice)
	if best.Start() == wfst.NoStateId {
		return nil, ErrEmptyHypothesis
	}
	hyp := wfst.GetLinearSymbolSequence(best)

	out := lattice.Clone()
	if d.cfg.RemoveWeightsOut {
		wfst.RemoveWeights(out)
	}
	if d.cfg.PruneOutput {
		wfst.Project(out, wfst.ProjectOutput)
		wfst.RmEpsilon(out)
		out = wfst.Determinize(out)
		out = wfst.Minimize(out)
	}

	return &Result{Hypothesis: hyp, Lattice: out}, nil
}

// prune discards any state whose combined forward+backward tropical
// distance trails the globally best path by more than beam, the same
// shortest-distance-based admissibility test the three-way composer
// applies during composition (spec §4.3's beam definition), applied here as
// a one-shot post-composition cleanup pass over the already-built output
// lattice rather than during on-the-fly expansion.
func prune(f *wfst.Fst, beam float64) *wfst.Fst {
	if beam <= 0 || f.NumStates() == 0 {
		return f
	}

	alpha := wfst.ShortestDistance(f, false)
	beta := wfst.ShortestDistance(f, true)

	start := f.Start()
	if start == wfst.NoStateId || beta[start].IsZero() {
		return f
	}
	best := beta[start].Float()

	keep := make([]bool, f.NumStates())
	for s := range keep {
		if alpha[s].IsZero() || beta[s].IsZero() {
			continue
		}
		through := alpha[s].(semiring.Tropical).Times(beta[s]).(semiring.Tropical).Float()
		keep[s] = through-best <= beam
	}

	out := wfst.NewTropical()
	remap := make([]wfst.StateId, f.NumStates())
	for s := range remap {
		remap[s] = wfst.NoStateId
	}
	for s := range keep {
		if keep[s] {
			remap[s] = out.AddState()
		}
	}
	if remap[start] == wfst.NoStateId {
		return out
	}
	out.SetStart(remap[start])

	for s := range keep {
		if !keep[s] {
			continue
		}
		if f.IsFinal(wfst.StateId(s)) {
			out.SetFinal(remap[s], f.Final(wfst.StateId(s)))
		}
		for _, a := range f.Arcs(wfst.StateId(s)) {
			if remap[a.Nextstate] == wfst.NoStateId {
				continue
			}
			out.AddArc(remap[s], wfst.Arc{Ilabel: a.Ilabel, Olabel: a.Olabel, Weight: a.Weight, Nextstate: remap[a.Nextstate]})
		}
	}

	return out
}
