// Package rescore implements phi-composition rescoring of an archive of
// lattices against an old/new language model pair, the Go counterpart of
// fsts-rescore.cc (original_source): composing out an old LM's weights and
// composing in a new one via backoff ("failure") arcs, then extracting the
// best path and an optional cleaned-up output lattice. It depends only on
// wfst and is never imported by cascade/train/decode — spec §1 lists
// generic phi-composition rescoring as an external collaborator, not part
// of the EM core.
package rescore

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
)

// ErrEmptyHypothesis mirrors decode.ErrEmptyHypothesis: rescoring an
// utterance whose composition against both LMs yields no accepting path.
var ErrEmptyHypothesis = errors.New("rescore: no accepting path found")

// Config holds fsts-rescore.cc's own option surface (spec's supplemented
// feature list).
type Config struct {
	PhiLabel        int32
	OutputPruneBeam float64
	PruneOutput     bool
	RemoveWeights   bool
}

// Result is one utterance's rescoring output.
type Result struct {
	Hypothesis []int32
	Lattice    *wfst.Fst
}

// Rescorer composes each lattice against a fixed old/new LM pair.
type Rescorer struct {
	oldLM, newLM *wfst.Fst
	cfg          Config
}

// NewRescorer wraps oldLM and newLM (both tropical, sharing an alphabet
// with the lattices to be rescored) for repeated use across an archive.
func NewRescorer(oldLM, newLM *wfst.Fst, cfg Config) (*Rescorer, error) {
	if cfg.PhiLabel <= 0 {
		return nil, fmt.Errorf("rescore: phi label must be > 0")
	}

	return &Rescorer{oldLM: oldLM, newLM: newLM, cfg: cfg}, nil
}

// Rescore composes fst against the old LM (backing its weights out, since
// composing a lattice already scored by oldLM against oldLM again under
// phi-composition is how fsts-rescore.cc cancels the old LM's contribution)
// and then against the new LM, takes the shortest path for the hypothesis,
// and optionally builds a cleaned-up output lattice.
func (r *Rescorer) Rescore(fst *wfst.Fst) (*Result, error) {
	composedOld := phiCompose(fst, r.oldLM, r.cfg.PhiLabel)
	rescored := phiCompose(composedOld, r.newLM, r.cfg.PhiLabel)

	if rescored.Start() == wfst.NoStateId || rescored.NumStates() == 0 {
		return nil, ErrEmptyHypothesis
	}

	best := wfst.ShortestPath(rescored)
	hyp := wfst.GetLinearSymbolSequence(best)
	if len(hyp) == 0 {
		return &Result{Hypothesis: hyp}, ErrEmptyHypothesis
	}

	lattice := rescored
	if r.cfg.PruneOutput {
		lattice = prune(lattice, r.cfg.OutputPruneBeam)
	}
	out := lattice.Clone()
	if r.cfg.RemoveWeights {
		wfst.RemoveWeights(out)
	}
	if r.cfg.PruneOutput {
		wfst.Project(out, wfst.ProjectOutput)
		wfst.RmEpsilon(out)
		out = wfst.Determinize(out)
		out = wfst.Minimize(out)
	}

	return &Result{Hypothesis: hyp, Lattice: out}, nil
}

// matchWithPhi looks for an arc out of s2 labeled lab, chasing phi-labeled
// backoff arcs when no direct match exists — the Go rendition of Kaldi's
// PhiMatcher: a backoff LM's states only carry the arcs they add over their
// lower-order backoff state, so a miss at s2 means "try again one order
// down," reached via the phi arc.
func matchWithPhi(f *wfst.Fst, s2 wfst.StateId, lab, phiLabel int32) (arc wfst.Arc, accPhi semiring.Weight, ok bool) {
	accPhi = f.One
	cur := s2
	for hops := 0; hops < f.NumStates()+1; hops++ {
		var phiArc *wfst.Arc
		for _, a := range f.Arcs(cur) {
			if a.Ilabel == lab {
				return a, accPhi, true
			}
			if a.Ilabel == phiLabel {
				phiArc = &a
			}
		}
		if phiArc == nil {
			return wfst.Arc{}, nil, false
		}
		accPhi = accPhi.Times(phiArc.Weight)
		cur = phiArc.Nextstate
	}

	return wfst.Arc{}, nil, false
}

// finalWithPhi resolves s2's final weight, chasing phi arcs the same way a
// direct label match does — the lazy equivalent of PropagateFinal, computed
// on demand instead of precomputed over the whole LM.
func finalWithPhi(f *wfst.Fst, s2 wfst.StateId, phiLabel int32) (semiring.Weight, bool) {
	acc := f.One
	cur := s2
	for hops := 0; hops < f.NumStates()+1; hops++ {
		if f.IsFinal(cur) {
			return acc.Times(f.Final(cur)), true
		}
		var phiArc *wfst.Arc
		for _, a := range f.Arcs(cur) {
			if a.Ilabel == phiLabel {
				phiArc = &a
				break
			}
		}
		if phiArc == nil {
			return nil, false
		}
		acc = acc.Times(phiArc.Weight)
		cur = phiArc.Nextstate
	}

	return nil, false
}

// phiCompose composes f1 (the lattice, ordinary arcs) against f2 (an LM
// carrying phi-labeled backoff arcs): f1's epsilon-output arcs pass through
// without touching f2's state, and every other arc's output label is
// matched against f2 via matchWithPhi.
func phiCompose(f1, f2 *wfst.Fst, phiLabel int32) *wfst.Fst {
	out := wfst.New(f1.Zero, f1.One)

	start1, start2 := f1.Start(), f2.Start()
	if start1 == wfst.NoStateId || start2 == wfst.NoStateId {
		out.SetStart(wfst.NoStateId)

		return out
	}

	type pair struct{ s1, s2 wfst.StateId }
	ids := make(map[pair]wfst.StateId)
	getID := func(p pair) (wfst.StateId, bool) {
		if id, ok := ids[p]; ok {
			return id, false
		}
		id := out.AddState()
		ids[p] = id

		return id, true
	}

	startPair := pair{start1, start2}
	startID, _ := getID(startPair)
	out.SetStart(startID)

	queue := []pair{startPair}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		id := ids[p]

		if f1.IsFinal(p.s1) {
			if fw, ok := finalWithPhi(f2, p.s2, phiLabel); ok {
				out.SetFinal(id, f1.Final(p.s1).Times(fw))
			}
		}

		for _, a1 := range f1.Arcs(p.s1) {
			if a1.Olabel == wfst.Epsilon {
				next := pair{a1.Nextstate, p.s2}
				nextID, fresh := getID(next)
				out.AddArc(id, wfst.Arc{Ilabel: a1.Ilabel, Olabel: wfst.Epsilon, Weight: a1.Weight, Nextstate: nextID})
				if fresh {
					queue = append(queue, next)
				}

				continue
			}

			matched, accPhi, ok := matchWithPhi(f2, p.s2, a1.Olabel, phiLabel)
			if !ok {
				continue
			}
			next := pair{a1.Nextstate, matched.Nextstate}
			nextID, fresh := getID(next)
			weight := a1.Weight.Times(accPhi).Times(matched.Weight)
			out.AddArc(id, wfst.Arc{Ilabel: a1.Ilabel, Olabel: matched.Olabel, Weight: weight, Nextstate: nextID})
			if fresh {
				queue = append(queue, next)
			}
		}
	}

	return out
}

// prune discards states whose forward+backward distance trails the best
// path by more than beam, the same post-composition cleanup decode.Decode
// applies to its own output lattice.
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
