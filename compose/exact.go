package compose

import "github.com/katalvlaran/decipherfst/wfst"

// filter values implement the classic three-state epsilon filter (Mohri &
// Pereira) that keeps exact composition from emitting the redundant family
// of (eps:eps)x(eps:eps) paths a naive product construction would produce.
//
//	filterBoth:  either side may take a non-epsilon match, or either side
//	             may take an output/input-epsilon step (moving to the
//	             matching one-sided filter).
//	filterLeft:  only f1's output-epsilon arcs may fire (f2 is implicitly
//	             self-looping on epsilon); a match returns to filterBoth.
//	filterRight: symmetric, only f2's input-epsilon arcs may fire.
const (
	filterBoth = iota
	filterLeft
	filterRight
)

type pairState struct {
	s1, s2 wfst.StateId
	filter int
}

// pairRecovery maps a composed-state id back to the (s1, s2) pair it was
// built from, independent of which filter state first discovered it —
// composer.h's custom state tables serve exactly this recovery role for
// the cascaded L·A and (L·A)·G compositions.
type pairRecovery struct {
	s1, s2 []wfst.StateId
}

func (r *pairRecovery) pair(id wfst.StateId) (wfst.StateId, wfst.StateId) {
	return r.s1[id], r.s2[id]
}

// composeExact runs exact (unpruned) composition of f1 and f2, matching
// f1's output label against f2's input label, with the epsilon filter
// above preventing the redundant-path blowup. Used by StandardComposer for
// all three of its pairwise compositions: L·A, (L·A)·G, and O·(LAG).
func composeExact(f1, f2 *wfst.Fst) (*wfst.Fst, *pairRecovery) {
	out := wfst.New(f1.Zero, f1.One)
	rec := &pairRecovery{}

	// Composed-state identity includes the filter value: (s1,s2,filterLeft)
	// and (s1,s2,filterBoth) are different automaton states even though they
	// share an (s1,s2) pair, because the filter changes which further arcs
	// are admissible. Recovery of (s1,s2) from a composite id is unaffected
	// by this — several ids legitimately share the same recovered pair.
	ids := make(map[pairState]wfst.StateId)

	getID := func(ps pairState) (wfst.StateId, bool) {
		if id, ok := ids[ps]; ok {
			return id, false
		}
		id := out.AddState()
		ids[ps] = id
		rec.s1 = append(rec.s1, ps.s1)
		rec.s2 = append(rec.s2, ps.s2)

		return id, true
	}

	start1, start2 := f1.Start(), f2.Start()
	if start1 == wfst.NoStateId || start2 == wfst.NoStateId {
		out.SetStart(wfst.NoStateId)

		return out, rec
	}

	startPS := pairState{s1: start1, s2: start2, filter: filterBoth}
	startID, _ := getID(startPS)
	out.SetStart(startID)

	type queued struct {
		ps pairState
		id wfst.StateId
	}
	queue := []queued{{startPS, startID}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		ps, id := cur.ps, cur.id

		if f1.IsFinal(ps.s1) && f2.IsFinal(ps.s2) {
			out.SetFinal(id, f1.Final(ps.s1).Times(f2.Final(ps.s2)))
		}

		// Non-epsilon matches: always allowed, returns filter to Both.
		for _, a1 := range f1.Arcs(ps.s1) {
			if a1.Olabel == wfst.Epsilon {
				continue
			}
			for _, a2 := range f2.Arcs(ps.s2) {
				if a2.Ilabel != a1.Olabel {
					continue
				}
				next := pairState{s1: a1.Nextstate, s2: a2.Nextstate, filter: filterBoth}
				nextID, fresh := getID(next)
				out.AddArc(id, wfst.Arc{Ilabel: a1.Ilabel, Olabel: a2.Olabel, Weight: a1.Weight.Times(a2.Weight), Nextstate: nextID})
				if fresh {
					queue = append(queue, queued{next, nextID})
				}
			}
		}

		// f1's output-epsilon arcs (f2 implicitly self-loops on epsilon),
		// permitted from filterBoth or filterLeft, forbidden from filterRight.
		if ps.filter != filterRight {
			for _, a1 := range f1.Arcs(ps.s1) {
				if a1.Olabel != wfst.Epsilon {
					continue
				}
				next := pairState{s1: a1.Nextstate, s2: ps.s2, filter: filterLeft}
				nextID, fresh := getID(next)
				out.AddArc(id, wfst.Arc{Ilabel: a1.Ilabel, Olabel: wfst.Epsilon, Weight: a1.Weight, Nextstate: nextID})
				if fresh {
					queue = append(queue, queued{next, nextID})
				}
			}
		}

		// f2's input-epsilon arcs (f1 implicitly self-loops on epsilon),
		// permitted from filterBoth or filterRight, forbidden from filterLeft.
		if ps.filter != filterLeft {
			for _, a2 := range f2.Arcs(ps.s2) {
				if a2.Ilabel != wfst.Epsilon {
					continue
				}
				next := pairState{s1: ps.s1, s2: a2.Nextstate, filter: filterRight}
				nextID, fresh := getID(next)
				out.AddArc(id, wfst.Arc{Ilabel: wfst.Epsilon, Olabel: a2.Olabel, Weight: a2.Weight, Nextstate: nextID})
				if fresh {
					queue = append(queue, queued{next, nextID})
				}
			}
		}
	}

	return out, rec
}
