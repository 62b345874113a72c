package compose

import "github.com/katalvlaran/decipherfst/wfst"

// StandardComposer is the exact, unpruned reference path (spec §4.4): L·A
// and (L·A)·G are built once at construction, each via a custom pair state
// table recoverable after the fact, so that composing an observation O
// against the retained L·A·G lattice can recover lex_state/ali_state for
// every resulting state by walking back through both tables:
// ali_state = tuple_la(tuple_lag(s).state1).state2.
type StandardComposer struct {
	lag      *wfst.Fst
	tableLA  *pairRecovery
	tableLAG *pairRecovery
}

// NewStandardComposer builds L·A then (L·A)·G once. G is expected to
// already be projected to its input side (training's responsibility, per
// spec §4.7) so that LA's output labels match G's input labels.
func NewStandardComposer(l, a, g *wfst.Fst) *StandardComposer {
	la, tableLA := composeExact(l, a)
	lag, tableLAG := composeExact(la, g)

	return &StandardComposer{lag: lag, tableLA: tableLA, tableLAG: tableLAG}
}

// Compose runs exact composition of o against the retained L·A·G lattice
// and recovers (lex_state, ali_state) for every resulting state.
func (sc *StandardComposer) Compose(o *wfst.Fst) (*Result, error) {
	out, tableOLAG := composeExact(o, sc.lag)

	n := out.NumStates()
	lexState := make([]wfst.StateId, n)
	aliState := make([]wfst.StateId, n)
	for s := 0; s < n; s++ {
		_, lagState := tableOLAG.pair(wfst.StateId(s))
		laState, _ := sc.tableLAG.pair(lagState)
		lState, aState := sc.tableLA.pair(laState)
		lexState[s] = lState
		aliState[s] = aState
	}

	return &Result{Fst: out, LexState: lexState, AliState: aliState}, nil
}
