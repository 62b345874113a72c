package compose

import (
	"testing"

	"github.com/katalvlaran/decipherfst/fstio"
	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
	"github.com/stretchr/testify/require"
)

// buildIdentityLexicon returns a one-state lexicon mapping each of
// numSyms source symbols to itself at unit cost.
func buildIdentityLexicon(numSyms int32) *wfst.Fst {
	l := wfst.NewLog()
	s0 := l.AddState()
	l.SetStart(s0)
	l.SetFinal(s0, semiring.LogOne())
	for sym := int32(1); sym <= numSyms; sym++ {
		l.AddArc(s0, wfst.Arc{Ilabel: sym, Olabel: sym, Weight: semiring.LogOne(), Nextstate: s0})
	}

	return l
}

// buildPassthroughAlignment returns a one-state alignment model that only
// ever substitutes (never inserts or deletes), at unit cost.
func buildPassthroughAlignment(numSyms int32) *wfst.Fst {
	a := wfst.NewLog()
	s0 := a.AddState()
	a.SetStart(s0)
	a.SetFinal(s0, semiring.LogOne())
	for sym := int32(1); sym <= numSyms; sym++ {
		a.AddArc(s0, wfst.Arc{Ilabel: sym, Olabel: sym, Weight: semiring.LogOne(), Nextstate: s0})
	}

	return a
}

// buildUnigramGrammar returns a one-state acceptor over numSyms target
// symbols that accepts any sequence (a loose stand-in for an LM projected
// to its input side).
func buildUnigramGrammar(numSyms int32) *wfst.Fst {
	g := wfst.NewLog()
	s0 := g.AddState()
	g.SetStart(s0)
	g.SetFinal(s0, semiring.LogOne())
	for sym := int32(1); sym <= numSyms; sym++ {
		g.AddArc(s0, wfst.Arc{Ilabel: sym, Olabel: sym, Weight: semiring.LogOne(), Nextstate: s0})
	}

	return g
}

func TestComposeExactIdentityChain(t *testing.T) {
	t.Parallel()

	l := buildIdentityLexicon(2)
	a := buildPassthroughAlignment(2)
	la, _ := composeExact(l, a)

	require.Equal(t, 1, la.NumStates())
	require.True(t, la.IsFinal(la.Start()))
	require.Len(t, la.Arcs(la.Start()), 2)
}

func TestStandardComposerRecoversLexAndAliStates(t *testing.T) {
	t.Parallel()

	l := buildIdentityLexicon(2)
	a := buildPassthroughAlignment(2)
	g := buildUnigramGrammar(2)

	sc := NewStandardComposer(l, a, g)
	o := fstio.LinearAcceptor([]int32{1, 2})

	res, err := sc.Compose(castToLogIdentity(o))
	require.NoError(t, err)
	require.NotNil(t, res.Fst)
	require.Equal(t, len(res.LexState), res.Fst.NumStates())
	require.Equal(t, len(res.AliState), res.Fst.NumStates())

	best := wfst.ShortestPath(castToTropical(res.Fst))
	seq := wfst.GetLinearSymbolSequence(best)
	require.Equal(t, []int32{1, 2}, seq)
}

// castToLogIdentity recasts a tropical linear acceptor (as fstio.LinearAcceptor
// builds) into the log semiring with all weights at One, matching how
// training casts O once per observation.
func castToLogIdentity(o *wfst.Fst) *wfst.Fst {
	return wfst.Cast(o, func(semiring.Weight) semiring.Weight { return semiring.LogOne() }, semiring.LogZero(), semiring.LogOne())
}

func castToTropical(f *wfst.Fst) *wfst.Fst {
	return wfst.Cast(f, func(w semiring.Weight) semiring.Weight { return semiring.Tropical(w.Float()) }, semiring.TropicalZero(), semiring.TropicalOne())
}

func TestThreeWayComposerProducesAcceptingPath(t *testing.T) {
	t.Parallel()

	l := buildIdentityLexicon(2)
	a := buildPassthroughAlignment(2)
	g := buildUnigramGrammar(2)

	tw, err := NewThreeWayComposer(l, a, g, 2, 2, 8, 5)
	require.NoError(t, err)

	o := castToLogIdentity(fstio.LinearAcceptor([]int32{1, 2}))
	res, err := tw.Compose(o)
	require.NoError(t, err)
	require.Greater(t, res.Fst.NumStates(), 0)

	trop := castToTropical(res.Fst)
	best := wfst.ShortestPath(trop)
	seq := wfst.GetLinearSymbolSequence(best)
	require.Equal(t, []int32{1, 2}, seq)
}
