// Package wfst implements the weighted finite-state transducer substrate
// decipherfst trains and decodes over: states, arcs, label-sort predicates,
// shortest distance/path, and the handful of cleanup operations
// (Project, RemoveWeights, Connect, RmEpsilon, Determinize, Minimize) the
// decoding driver needs on its output lattice.
//
// The source this is grounded on treats its WFST library (OpenFst) as an
// external, given primitive — this package is the from-scratch substitute,
// built as a goroutine-safe adjacency structure (per-state arc slices)
// guarded by a single RWMutex, because models are read-only during an EM
// iteration and only ever mutated between iterations by the M-step (§5).
package wfst

import (
	"sync"

	"github.com/katalvlaran/decipherfst/semiring"
)

// StateId identifies a state within an Fst. Valid state ids are dense,
// starting at 0 ("new id equals current size" bijection), the same
// convention used throughout the state-table family.
type StateId = int32

// NoStateId marks the absence of a state (e.g. an unset start state).
const NoStateId StateId = -1

// Epsilon is the reserved empty label.
const Epsilon int32 = 0

// Silence is the reserved silence label, excluded from EM statistics.
const Silence int32 = 1

// Arc is a single weighted transition (ilabel, olabel, weight, nextstate).
type Arc struct {
	Ilabel    int32
	Olabel    int32
	Weight    semiring.Weight
	Nextstate StateId
}

// state holds one Fst state's outgoing arcs and optional final weight.
type state struct {
	arcs     []Arc
	final    semiring.Weight
	isFinal  bool
}

// Fst is a mutable vector-of-states weighted finite-state transducer over a
// single semiring family, fixed at construction via Zero/One.
//
// mu guards states/start the same way core.Graph's muVert/muEdgeAdj
// guard its maps: readers (composer, shortest-distance) take RLock, the
// one M-step writer between iterations takes Lock.
type Fst struct {
	mu     sync.RWMutex
	start  StateId
	states []state

	Zero semiring.Weight
	One  semiring.Weight

	inputSorted, outputSorted bool
}

// New creates an empty Fst over the semiring identified by zero/one.
func New(zero, one semiring.Weight) *Fst {
	return &Fst{start: NoStateId, Zero: zero, One: one}
}

// NewTropical creates an empty Fst in the tropical semiring (decoding).
func NewTropical() *Fst {
	return New(semiring.TropicalZero(), semiring.TropicalOne())
}

// NewLog creates an empty Fst in the log semiring (training).
func NewLog() *Fst {
	return New(semiring.LogZero(), semiring.LogOne())
}

// AddState appends a new state with no arcs and returns its id.
// Complexity: amortized O(1).
func (f *Fst) AddState() StateId {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := StateId(len(f.states))
	f.states = append(f.states, state{})
	f.inputSorted, f.outputSorted = false, false

	return id
}

// NumStates returns the number of states.
func (f *Fst) NumStates() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.states)
}

// SetStart sets the Fst's start state.
func (f *Fst) SetStart(s StateId) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start = s
}

// Start returns the start state, or NoStateId if unset.
func (f *Fst) Start() StateId {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.start
}

// SetFinal marks s as final with the given weight.
func (f *Fst) SetFinal(s StateId, w semiring.Weight) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[s].final = w
	f.states[s].isFinal = !w.IsZero()
}

// Final returns s's final weight (Zero if s is not final).
func (f *Fst) Final(s StateId) semiring.Weight {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.states[s].isFinal {
		return f.Zero
	}

	return f.states[s].final
}

// IsFinal reports whether s carries a non-Zero final weight.
func (f *Fst) IsFinal(s StateId) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.states[s].isFinal
}

// AddArc appends an outgoing arc from s. Arcs are appended in insertion
// order; callers needing a label-sorted Fst must call ArcSortInput/
// ArcSortOutput once after all arcs are added.
func (f *Fst) AddArc(s StateId, a Arc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[s].arcs = append(f.states[s].arcs, a)
	f.inputSorted, f.outputSorted = false, false
}

// Arcs returns a copy-free view of s's outgoing arcs. Callers must not
// mutate the returned slice; use AddArc/SetArcs to modify.
func (f *Fst) Arcs(s StateId) []Arc {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.states[s].arcs
}

// SetArcs replaces s's outgoing arcs wholesale (used by the M-step and by
// Connect/RmEpsilon to rewrite a state's transition list).
func (f *Fst) SetArcs(s StateId, arcs []Arc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[s].arcs = arcs
	f.inputSorted, f.outputSorted = false, false
}

// NumArcs returns the total arc count across all states.
func (f *Fst) NumArcs() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var n int
	for i := range f.states {
		n += len(f.states[i].arcs)
	}

	return n
}

// HasInputEpsilons reports whether any arc in the Fst has Ilabel == Epsilon.
func (f *Fst) HasInputEpsilons() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for i := range f.states {
		for _, a := range f.states[i].arcs {
			if a.Ilabel == Epsilon {
				return true
			}
		}
	}

	return false
}

// HasOutputEpsilons reports whether any arc in the Fst has Olabel == Epsilon.
func (f *Fst) HasOutputEpsilons() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for i := range f.states {
		for _, a := range f.states[i].arcs {
			if a.Olabel == Epsilon {
				return true
			}
		}
	}

	return false
}
