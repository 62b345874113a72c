// Package compose builds the composed lattice C = O · (L · A · G) an EM
// iteration and the decoder both need, via two interchangeable strategies:
// an exact cascaded StandardComposer and a pruned on-the-fly
// ThreeWayComposer. Both recover, for every state of the composed output,
// which lexicon state and which alignment state it corresponds to — the
// Expectations accumulator indexes its tables by exactly those.
package compose

import "github.com/katalvlaran/decipherfst/wfst"

// Result is one observation's composed lattice plus, for each of its
// states, the originating lexicon and alignment states — the
// "per-composed-state lex_state/ali_state vectors" spec §4.4 requires a
// composer expose regardless of which strategy produced them.
type Result struct {
	Fst      *wfst.Fst
	LexState []wfst.StateId
	AliState []wfst.StateId
}

// Composer produces a Result for one observation Fst. Implementations are
// immutable after construction and safe for concurrent use by multiple
// worker goroutines within one EM iteration (spec §5: "the composer is
// immutable after construction and is shared read-only across all worker
// threads of one iteration").
type Composer interface {
	Compose(o *wfst.Fst) (*Result, error)
}
