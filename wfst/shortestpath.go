package wfst

import (
	"container/heap"

	"github.com/katalvlaran/decipherfst/semiring"
)

// pqItem and stateHeap mirror dijkstra's nodeItem/nodePQ exactly (same
// lazy-decrease-key min-heap), generalized from vertex ids to StateId and
// from int64 distances to semiring.Tropical weights.
type pqItem struct {
	state StateId
	dist  semiring.Tropical
}

type stateHeap []*pqItem

func (h stateHeap) Len() int            { return len(h) }
func (h stateHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h stateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *stateHeap) Push(x interface{}) { *h = append(*h, x.(*pqItem)) }
func (h *stateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ShortestPath runs single-source Dijkstra over f (which must be in the
// tropical semiring; non-negative costs are assumed, matching spec §3's
// "decoding uses the tropical semiring") from its start state, and returns
// a new linear Fst containing only the best path to the best-weighted
// final state. Mirrors dijkstra.Dijkstra's heap-based relaxation loop.
func ShortestPath(f *Fst) *Fst {
	n := f.NumStates()
	start := f.Start()
	out := NewTropical()
	if start == NoStateId || n == 0 {
		return out
	}

	dist := make([]semiring.Tropical, n)
	prevState := make([]StateId, n)
	prevArc := make([]Arc, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = semiring.TropicalZero()
		prevState[i] = NoStateId
	}
	dist[start] = semiring.TropicalOne()

	pq := &stateHeap{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{state: start, dist: dist[start]})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		s := item.state
		if visited[s] {
			continue
		}
		visited[s] = true

		for _, a := range f.Arcs(s) {
			w, ok := a.Weight.(semiring.Tropical)
			if !ok {
				continue
			}
			cand := dist[s] + w
			if cand < dist[a.Nextstate] {
				dist[a.Nextstate] = cand
				prevState[a.Nextstate] = s
				prevArc[a.Nextstate] = a
				heap.Push(pq, &pqItem{state: a.Nextstate, dist: cand})
			}
		}
	}

	best := NoStateId
	bestCost := semiring.TropicalZero()
	for s := 0; s < n; s++ {
		if !f.IsFinal(StateId(s)) || !visited[s] {
			continue
		}
		final := f.Final(StateId(s)).(semiring.Tropical)
		cost := dist[s] + final
		if best == NoStateId || cost < bestCost {
			best = StateId(s)
			bestCost = cost
		}
	}
	if best == NoStateId {
		return out
	}

	// Walk back from best to start, collecting arcs in reverse.
	var chain []Arc
	for s := best; s != start; s = prevState[s] {
		chain = append(chain, prevArc[s])
	}

	// Emit as a linear chain of states 0..len(chain).
	for i := 0; i <= len(chain); i++ {
		out.AddState()
	}
	out.SetStart(0)
	for i := len(chain) - 1; i >= 0; i-- {
		a := chain[i]
		idx := len(chain) - 1 - i
		out.AddArc(StateId(idx), Arc{Ilabel: a.Ilabel, Olabel: a.Olabel, Weight: a.Weight, Nextstate: StateId(idx + 1)})
	}
	out.SetFinal(StateId(len(chain)), f.Final(best))

	return out
}

// GetLinearSymbolSequence extracts the output-label sequence of a linear
// (single-path) Fst such as ShortestPath's result, skipping epsilons.
// Mirrors fst::GetLinearSymbolSequence as used by decipherment-apply.cc.
func GetLinearSymbolSequence(f *Fst) []int32 {
	var seq []int32
	s := f.Start()
	if s == NoStateId {
		return seq
	}
	for {
		arcs := f.Arcs(s)
		if len(arcs) == 0 {
			break
		}
		a := arcs[0]
		if a.Olabel != Epsilon {
			seq = append(seq, a.Olabel)
		}
		s = a.Nextstate
	}

	return seq
}
