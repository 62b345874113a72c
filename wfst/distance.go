package wfst

import (
	"math"

	"github.com/katalvlaran/decipherfst/semiring"
)

// ShortestDistance computes, for every state, the ⊗-accumulated ⊕-sum of
// all path weights from the start state to that state (reverse=false) or
// from that state to any final state (reverse=true). This is the generic
// forward/backward shortest-distance primitive §4.6 builds α and β from;
// spec §1 lists the underlying algorithm as an external given primitive, so
// this is decipherfst's from-scratch substitute.
//
// The algorithm is Mohri's generic single-source shortest-distance
// relaxation (a semiring generalization of Bellman-Ford): a FIFO queue of
// "not yet fully propagated" states, each holding a residual r[s] of weight
// not yet pushed to successors. A state carrying a self-loop (e.g. an
// alignment model's repeated-insertion arc) is closed over via Star before
// its residual is propagated, so the infinite geometric sum that loop
// represents is folded in exactly instead of re-enqueuing forever.
//
// Preconditions: none beyond what §4.3 documents as undefined (unsorted
// input where sorting is required); this function works on any Fst.
func ShortestDistance(f *Fst, reverse bool) []semiring.Weight {
	f.mu.RLock()
	n := len(f.states)
	start := f.start
	type edge struct {
		from, to StateId
		w        semiring.Weight
	}
	var edges []edge
	var finals []edge
	for s := 0; s < n; s++ {
		for _, a := range f.states[s].arcs {
			edges = append(edges, edge{from: StateId(s), to: a.Nextstate, w: a.Weight})
		}
		if f.states[s].isFinal {
			finals = append(finals, edge{from: StateId(s), w: f.states[s].final})
		}
	}
	zero, one := f.Zero, f.One
	f.mu.RUnlock()

	d := make([]semiring.Weight, n)
	r := make([]semiring.Weight, n)
	for i := range d {
		d[i] = zero
		r[i] = zero
	}

	// out/in adjacency for the chosen traversal direction.
	out := make([][]edge, n)
	if !reverse {
		if start == NoStateId {
			return d
		}
		for _, e := range edges {
			out[e.from] = append(out[e.from], e)
		}
		d[start] = one
		r[start] = one
	} else {
		// Backward distance: traverse arcs in reverse, seeded from final
		// states with their final weight as the initial residual.
		for _, e := range edges {
			out[e.to] = append(out[e.to], edge{from: e.to, to: e.from, w: e.w})
		}
		for _, e := range finals {
			d[e.from] = e.w
			r[e.from] = e.w
		}
	}

	inQueue := make([]bool, n)
	var queue []StateId
	enqueue := func(s StateId) {
		if !inQueue[s] {
			inQueue[s] = true
			queue = append(queue, s)
		}
	}
	if !reverse {
		enqueue(start)
	} else {
		for _, e := range finals {
			enqueue(e.from)
		}
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		inQueue[s] = false

		rs := r[s]
		r[s] = zero

		// Self-loop closure: fold in any arc s->s before propagating.
		var selfLoop semiring.Weight = zero
		for _, e := range out[s] {
			if e.to == s {
				selfLoop = selfLoop.Plus(e.w)
			}
		}
		if !selfLoop.IsZero() {
			rs = rs.Times(star(selfLoop))
			d[s] = d[s].Times(star(selfLoop))
		}

		for _, e := range out[s] {
			if e.to == s {
				continue // already closed over above
			}
			cand := rs.Times(e.w)
			if cand.IsZero() {
				continue
			}
			newD := d[e.to].Plus(cand)
			if !weightEqual(newD, d[e.to]) {
				d[e.to] = newD
				r[e.to] = r[e.to].Plus(cand)
				enqueue(e.to)
			}
		}
	}

	return d
}

// star computes w* = One ⊕ w ⊕ w⊗w ⊕ ... in closed form. For the tropical
// semiring (idempotent, non-negative costs) this is always One: a self-loop
// can never improve a shortest path. For the log semirings it is the
// closed-form geometric sum in -log-probability space.
func star(w semiring.Weight) semiring.Weight {
	switch v := w.(type) {
	case semiring.Tropical:
		return semiring.TropicalOne()
	case semiring.Log:
		if v.IsZero() {
			return semiring.LogOne()
		}
		p := math.Exp(-float64(v))
		if p >= 1 {
			return semiring.LogZero()
		}
		return semiring.Log(-math.Log(1 - p))
	case semiring.Log64:
		if v.IsZero() {
			return semiring.Log64One()
		}
		p := math.Exp(-float64(v))
		if p >= 1 {
			return semiring.Log64Zero()
		}
		return semiring.Log64(-math.Log(1 - p))
	default:
		return w
	}
}

// weightEqual reports whether two weights are numerically indistinguishable,
// used to decide whether a shortest-distance update is worth re-enqueuing.
func weightEqual(a, b semiring.Weight) bool {
	if a.IsZero() && b.IsZero() {
		return true
	}
	return math.Abs(a.Float()-b.Float()) < 1e-12
}
