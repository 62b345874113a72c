package wfst

import "github.com/katalvlaran/decipherfst/semiring"

// closureEntry is one state reachable from another purely through
// epsilon:epsilon arcs, with the ⊗-accumulated weight of getting there.
type closureEntry struct {
	state  StateId
	weight semiring.Weight
}

// epsilonClosure returns, for state s, every state reachable via zero or
// more epsilon:epsilon arcs (s itself included, weight One), combining
// parallel epsilon paths with Plus. An epsilon self-loop is folded via the
// same Star closure ShortestDistance uses rather than explored forever.
func epsilonClosure(f *Fst, s StateId) []closureEntry {
	visited := make(map[StateId]semiring.Weight)
	order := []StateId{}
	var selfLoop = f.Zero

	var visit func(cur StateId, acc semiring.Weight)
	visit = func(cur StateId, acc semiring.Weight) {
		if existing, ok := visited[cur]; ok {
			visited[cur] = existing.Plus(acc)
			return
		}
		visited[cur] = acc
		order = append(order, cur)

		for _, a := range f.Arcs(cur) {
			if a.Ilabel != Epsilon || a.Olabel != Epsilon {
				continue
			}
			if a.Nextstate == s {
				selfLoop = selfLoop.Plus(acc.Times(a.Weight))
				continue
			}
			visit(a.Nextstate, acc.Times(a.Weight))
		}
	}
	visit(s, f.One)

	if !selfLoop.IsZero() {
		closure := star(selfLoop)
		for _, st := range order {
			visited[st] = visited[st].Times(closure)
		}
	}

	out := make([]closureEntry, 0, len(order))
	for _, st := range order {
		out = append(out, closureEntry{state: st, weight: visited[st]})
	}

	return out
}

// RmEpsilon removes epsilon:epsilon arcs in place, folding their weight
// into the non-epsilon arcs and final weights reachable through them.
// Scoped to the decoder's output-lattice cleanup (§6, `prune_output`
// pipeline): the generic WFST library's full epsilon-removal (handling
// epsilon on only one tape) is an external given primitive per spec §1;
// this covers the epsilon:epsilon case that arises after Project, which is
// the only one decode ever needs.
func RmEpsilon(f *Fst) {
	n := f.NumStates()
	newArcs := make([][]Arc, n)
	newFinal := make([]semiring.Weight, n)
	isFinal := make([]bool, n)
	for i := range newFinal {
		newFinal[i] = f.Zero
	}

	for s := 0; s < n; s++ {
		closure := epsilonClosure(f, StateId(s))
		for _, ce := range closure {
			for _, a := range f.Arcs(ce.state) {
				if a.Ilabel == Epsilon && a.Olabel == Epsilon {
					continue
				}
				newArcs[s] = append(newArcs[s], Arc{
					Ilabel:    a.Ilabel,
					Olabel:    a.Olabel,
					Weight:    ce.weight.Times(a.Weight),
					Nextstate: a.Nextstate,
				})
			}
			if f.IsFinal(ce.state) {
				contrib := ce.weight.Times(f.Final(ce.state))
				if isFinal[s] {
					newFinal[s] = newFinal[s].Plus(contrib)
				} else {
					newFinal[s] = contrib
					isFinal[s] = true
				}
			}
		}
	}

	for s := 0; s < n; s++ {
		f.SetArcs(StateId(s), newArcs[s])
		if isFinal[s] {
			f.SetFinal(StateId(s), newFinal[s])
		} else {
			f.SetFinal(StateId(s), f.Zero)
		}
	}
}
