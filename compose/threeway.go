package compose

import (
	"container/heap"

	"github.com/katalvlaran/decipherfst/matcher"
	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/statetable"
	"github.com/katalvlaran/decipherfst/wfst"
)

// ThreeWayComposer composes O against L·A·G on the fly, without ever
// materializing LA·G, per spec §4.3: O and G are accessed by iterating
// their outgoing arcs, but LA is accessed only through a precomputed dense
// matcher, never by iteration.
type ThreeWayComposer struct {
	la             *wfst.Fst
	dm             *matcher.DenseArcMatcher
	g              *wfst.Fst
	tableLA        *pairRecovery
	pruneBeam      float64
	stepsThreshold int
}

// NewThreeWayComposer builds L·A once (exact composition, small FSTs) and
// precomputes its dense arc matcher. g must already be input-sorted and
// projected to its input side. pruneBeam bounds how far a composite
// state's tentative distance may trail the best distance seen so far for
// its equivalence class (the observation-side state, spec §4.3);
// stepsThreshold is accepted for interface parity with the source's
// "steps_threshold" option but is a pure inner-queue re-sort cadence
// knob (documented as an implementation detail, not semantics) — this
// composer always re-evaluates admission at every pop, so it has no
// observable effect here; kept as a field so callers can still tune it
// without a signature change if a future revision reintroduces deferred
// re-sorting.
func NewThreeWayComposer(l, a, g *wfst.Fst, numSrcSyms, numTgtSyms int32, pruneBeam float64, stepsThreshold int) (*ThreeWayComposer, error) {
	la, tableLA := composeExact(l, a)
	dm, err := matcher.NewDenseArcMatcher(la, numSrcSyms+1, numTgtSyms+1)
	if err != nil {
		return nil, err
	}

	return &ThreeWayComposer{
		la:             la,
		dm:             dm,
		g:              g,
		tableLA:        tableLA,
		pruneBeam:      pruneBeam,
		stepsThreshold: stepsThreshold,
	}, nil
}

type beamItem struct {
	state wfst.StateId
	dist  float64
}
type beamHeap []*beamItem

func (h beamHeap) Len() int            { return len(h) }
func (h beamHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h beamHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *beamHeap) Push(x interface{}) { *h = append(*h, x.(*beamItem)) }
func (h *beamHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// Compose runs the pruned on-the-fly three-way composition of o against
// L·A·G. Mirrors dijkstra.Dijkstra's heap-driven frontier loop (lazy
// decrease-key: stale heap entries are detected by comparing the popped
// distance against the authoritative one and skipped) combined with
// prim_kruskal's per-pop frontier-expansion structure, generalized from a
// single priority queue over plain vertices to one over composite triples
// with an additional equivalence-class beam filter.
func (tw *ThreeWayComposer) Compose(o *wfst.Fst) (*Result, error) {
	zero, one := tw.g.Zero, tw.g.One
	table := statetable.NewTripleStateTable()
	out := wfst.New(zero, one)

	oStart, gStart := o.Start(), tw.g.Start()
	laStart := tw.la.Start()
	if oStart == wfst.NoStateId || gStart == wfst.NoStateId || laStart == wfst.NoStateId {
		out.SetStart(wfst.NoStateId)
		return &Result{Fst: out}, nil
	}

	startTriple := statetable.Triple{S1: oStart, S2: laStart, S3: gStart}
	startID := table.FindOrInsert(startTriple)
	out.AddState()
	out.SetStart(startID)

	var distance []semiring.Weight
	distance = append(distance, one)

	bestForClass := make(map[wfst.StateId]float64)
	bestForClass[oStart] = one.Float()

	pq := &beamHeap{}
	heap.Init(pq)
	heap.Push(pq, &beamItem{state: startID, dist: one.Float()})

	admitOrReuse := func(next statetable.Triple, newDist semiring.Weight) (wfst.StateId, bool) {
		if id, ok := table.Find(next); ok {
			if newDist.Less(distance[id]) {
				distance[id] = newDist
				heap.Push(pq, &beamItem{state: id, dist: newDist.Float()})

				if best, hasBest := bestForClass[next.S1]; !hasBest || newDist.Float() < best {
					bestForClass[next.S1] = newDist.Float()
				}
			}
			return id, true
		}

		best, hasBest := bestForClass[next.S1]
		if hasBest && newDist.Float()-best > tw.pruneBeam {
			return wfst.NoStateId, false
		}

		id := table.FindOrInsert(next)
		out.AddState()
		distance = append(distance, newDist)
		if !hasBest || newDist.Float() < best {
			bestForClass[next.S1] = newDist.Float()
		}
		heap.Push(pq, &beamItem{state: id, dist: newDist.Float()})

		return id, true
	}

	finalize := func(s wfst.StateId, next statetable.Triple) {
		if o.IsFinal(next.S1) && tw.la.IsFinal(next.S2) && tw.g.IsFinal(next.S3) {
			f := o.Final(next.S1).Times(tw.la.Final(next.S2)).Times(tw.g.Final(next.S3))
			out.SetFinal(s, f)
		}
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*beamItem)
		s := item.state
		if item.dist != distance[s].Float() {
			continue // stale lazy-decrease-key entry
		}

		triple := table.Triple(s)
		s1, s2, s3 := triple.S1, triple.S2, triple.S3
		cur := distance[s]

		// O-out-ε: O emits an epsilon output symbol; LA and G stay put.
		for _, a1 := range o.Arcs(s1) {
			if a1.Olabel != wfst.Epsilon {
				continue
			}
			next := statetable.Triple{S1: a1.Nextstate, S2: s2, S3: s3}
			newDist := cur.Times(a1.Weight)
			if id, ok := admitOrReuse(next, newDist); ok {
				out.AddArc(s, wfst.Arc{Ilabel: a1.Ilabel, Olabel: wfst.Epsilon, Weight: a1.Weight, Nextstate: id})
				finalize(id, next)
			}
		}

		// G-in-ε: G consumes an epsilon input symbol; O and LA stay put.
		for _, a3 := range tw.g.Arcs(s3) {
			if a3.Ilabel != wfst.Epsilon {
				continue
			}
			next := statetable.Triple{S1: s1, S2: s2, S3: a3.Nextstate}
			newDist := cur.Times(a3.Weight)
			if id, ok := admitOrReuse(next, newDist); ok {
				out.AddArc(s, wfst.Arc{Ilabel: wfst.Epsilon, Olabel: a3.Olabel, Weight: a3.Weight, Nextstate: id})
				finalize(id, next)
			}
		}

		// LA-both-ε: a pure alignment-internal epsilon:epsilon transition.
		if la := tw.dm.Get(int(s2), wfst.Epsilon, wfst.Epsilon); !matcher.IsSentinel(la) {
			next := statetable.Triple{S1: s1, S2: la.Nextstate, S3: s3}
			newDist := cur.Times(la.Weight)
			if id, ok := admitOrReuse(next, newDist); ok {
				out.AddArc(s, wfst.Arc{Ilabel: wfst.Epsilon, Olabel: wfst.Epsilon, Weight: la.Weight, Nextstate: id})
				finalize(id, next)
			}
		}

		for _, a1 := range o.Arcs(s1) {
			if a1.Olabel == wfst.Epsilon {
				continue
			}

			// LA-out-ε (deletion): O consumes a source symbol, LA produces
			// no target symbol, G does not move.
			if la := tw.dm.Get(int(s2), a1.Olabel, wfst.Epsilon); !matcher.IsSentinel(la) {
				next := statetable.Triple{S1: a1.Nextstate, S2: la.Nextstate, S3: s3}
				newDist := cur.Times(a1.Weight).Times(la.Weight)
				if id, ok := admitOrReuse(next, newDist); ok {
					out.AddArc(s, wfst.Arc{Ilabel: a1.Ilabel, Olabel: wfst.Epsilon, Weight: a1.Weight.Times(la.Weight), Nextstate: id})
					finalize(id, next)
				}
			}

			// Non-ε (substitution): both O and G advance.
			for _, a3 := range tw.g.Arcs(s3) {
				if a3.Ilabel == wfst.Epsilon {
					continue
				}
				la := tw.dm.Get(int(s2), a1.Olabel, a3.Ilabel)
				if matcher.IsSentinel(la) {
					continue
				}
				next := statetable.Triple{S1: a1.Nextstate, S2: la.Nextstate, S3: a3.Nextstate}
				weight := a1.Weight.Times(la.Weight).Times(a3.Weight)
				newDist := cur.Times(weight)
				if id, ok := admitOrReuse(next, newDist); ok {
					out.AddArc(s, wfst.Arc{Ilabel: a1.Ilabel, Olabel: a3.Olabel, Weight: weight, Nextstate: id})
					finalize(id, next)
				}
			}
		}

		// LA-in-ε (insertion): G consumes a target symbol, LA produces it
		// without consuming any source symbol, O does not move.
		for _, a3 := range tw.g.Arcs(s3) {
			if a3.Ilabel == wfst.Epsilon {
				continue
			}
			la := tw.dm.Get(int(s2), wfst.Epsilon, a3.Ilabel)
			if matcher.IsSentinel(la) {
				continue
			}
			next := statetable.Triple{S1: s1, S2: la.Nextstate, S3: a3.Nextstate}
			newDist := cur.Times(la.Weight).Times(a3.Weight)
			if id, ok := admitOrReuse(next, newDist); ok {
				out.AddArc(s, wfst.Arc{Ilabel: wfst.Epsilon, Olabel: a3.Olabel, Weight: la.Weight.Times(a3.Weight), Nextstate: id})
				finalize(id, next)
			}
		}
	}

	n := table.Len()
	lexState := make([]wfst.StateId, n)
	aliState := make([]wfst.StateId, n)
	for id := 0; id < n; id++ {
		triple := table.Triple(wfst.StateId(id))
		lState, aState := tw.tableLA.pair(triple.S2)
		lexState[id] = lState
		aliState[id] = aState
	}

	return &Result{Fst: out, LexState: lexState, AliState: aliState}, nil
}
