package wfst

import "github.com/katalvlaran/decipherfst/semiring"

// ProjectSide selects which tape Project keeps.
type ProjectSide int

const (
	// ProjectInput copies Ilabel over Olabel on every arc.
	ProjectInput ProjectSide = iota
	// ProjectOutput copies Olabel over Ilabel on every arc.
	ProjectOutput
)

// Project turns a transducer into an acceptor by collapsing one tape onto
// the other, in place. Used by the training driver to discard G's output
// side (§4.7: "Project G to input") and by the decoder to turn the
// deciphered lattice into a plain output-symbol acceptor (§4.7, §6).
func Project(f *Fst, side ProjectSide) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.states {
		arcs := f.states[i].arcs
		for j := range arcs {
			switch side {
			case ProjectInput:
				arcs[j].Olabel = arcs[j].Ilabel
			case ProjectOutput:
				arcs[j].Ilabel = arcs[j].Olabel
			}
		}
	}
	f.inputSorted, f.outputSorted = false, false
}

// RemoveWeights sets every arc weight and final weight to One, in place.
// Used by the decoder (`remove_weights` flag, §6) to turn the pruned output
// lattice into an unweighted acceptor before determinization.
func RemoveWeights(f *Fst) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.states {
		for j := range f.states[i].arcs {
			f.states[i].arcs[j].Weight = f.One
		}
		if f.states[i].isFinal {
			f.states[i].final = f.One
		}
	}
}

// PowerMap raises every arc weight to the given exponent p (decode's
// lexical-weight temperature, §4.7/§6: "L arc weights raised to
// configurable power p"). Only meaningful for Tropical weights, where
// cost*p is equivalent to probability^p; callers apply it to a cloned copy
// of L before composing, never to the retained training model.
func PowerMap(f *Fst, p float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.states {
		for j := range f.states[i].arcs {
			if tw, ok := f.states[i].arcs[j].Weight.(semiring.Tropical); ok {
				f.states[i].arcs[j].Weight = tw.Power(p)
			}
		}
		if f.states[i].isFinal {
			if tw, ok := f.states[i].final.(semiring.Tropical); ok {
				f.states[i].final = tw.Power(p)
			}
		}
	}
}

// Clone returns a deep copy of f, independent of the original.
func (f *Fst) Clone() *Fst {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := &Fst{
		start:        f.start,
		states:       make([]state, len(f.states)),
		Zero:         f.Zero,
		One:          f.One,
		inputSorted:  f.inputSorted,
		outputSorted: f.outputSorted,
	}
	for i := range f.states {
		out.states[i].final = f.states[i].final
		out.states[i].isFinal = f.states[i].isFinal
		out.states[i].arcs = append([]Arc(nil), f.states[i].arcs...)
	}

	return out
}

// Cast rebuilds f's arc and final weights under a different semiring via
// convert, returning a new Fst with the given zero/one. Mirrors the spec's
// explicit cross-semiring Cast operation (§9): models are loaded once in
// the tropical semiring and cast into the log semiring for training, then
// cast back before writing (§4.7).
func Cast(f *Fst, convert func(semiring.Weight) semiring.Weight, zero, one semiring.Weight) *Fst {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := New(zero, one)
	out.start = f.start
	out.states = make([]state, len(f.states))
	for i := range f.states {
		out.states[i].isFinal = f.states[i].isFinal
		if f.states[i].isFinal {
			out.states[i].final = convert(f.states[i].final)
		} else {
			out.states[i].final = zero
		}
		arcs := make([]Arc, len(f.states[i].arcs))
		for j, a := range f.states[i].arcs {
			arcs[j] = Arc{Ilabel: a.Ilabel, Olabel: a.Olabel, Weight: convert(a.Weight), Nextstate: a.Nextstate}
		}
		out.states[i].arcs = arcs
	}
	out.inputSorted, out.outputSorted = f.inputSorted, f.outputSorted

	return out
}

// Connect removes states unreachable from the start state or that cannot
// reach any final state, renumbering the remaining states densely in their
// original relative order. Used by the M-step (§4.6, §9 "zero-mass lex
// arcs") after zero-mass lexicon arcs are retargeted to a freshly appended
// dead state: Connect prunes that dead state and anything only reachable
// through it.
func Connect(f *Fst) *Fst {
	f.mu.RLock()
	n := len(f.states)
	start := f.start
	adjacency := make([][]StateId, n)
	for i := range f.states {
		for _, a := range f.states[i].arcs {
			adjacency[i] = append(adjacency[i], a.Nextstate)
		}
	}
	f.mu.RUnlock()

	reachable := reachableFrom(start, n, adjacency)

	reverseAdj := make([][]StateId, n)
	for s, nbrs := range adjacency {
		for _, t := range nbrs {
			reverseAdj[t] = append(reverseAdj[t], StateId(s))
		}
	}
	finals := make([]StateId, 0)
	for i := range f.states {
		if f.states[i].isFinal {
			finals = append(finals, StateId(i))
		}
	}
	coReachable := make(map[StateId]bool, n)
	queue := append([]StateId(nil), finals...)
	for _, s := range finals {
		coReachable[s] = true
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, p := range reverseAdj[s] {
			if !coReachable[p] {
				coReachable[p] = true
				queue = append(queue, p)
			}
		}
	}

	keep := make([]bool, n)
	for i := 0; i < n; i++ {
		keep[i] = reachable[StateId(i)] && coReachable[StateId(i)]
	}

	remap := make([]StateId, n)
	var next StateId
	for i := 0; i < n; i++ {
		if keep[i] {
			remap[i] = next
			next++
		} else {
			remap[i] = NoStateId
		}
	}

	out := New(f.Zero, f.One)
	for i := 0; i < n; i++ {
		if keep[i] {
			out.AddState()
		}
	}
	if keep[start] {
		out.SetStart(remap[start])
	} else {
		out.SetStart(NoStateId)
	}
	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}
		if f.states[i].isFinal {
			out.SetFinal(remap[i], f.states[i].final)
		}
		for _, a := range f.states[i].arcs {
			if !keep[a.Nextstate] {
				continue
			}
			out.AddArc(remap[i], Arc{Ilabel: a.Ilabel, Olabel: a.Olabel, Weight: a.Weight, Nextstate: remap[a.Nextstate]})
		}
	}

	return out
}

func reachableFrom(start StateId, n int, adjacency [][]StateId) map[StateId]bool {
	reached := make(map[StateId]bool, n)
	if start == NoStateId {
		return reached
	}
	queue := []StateId{start}
	reached[start] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, t := range adjacency[s] {
			if !reached[t] {
				reached[t] = true
				queue = append(queue, t)
			}
		}
	}

	return reached
}
