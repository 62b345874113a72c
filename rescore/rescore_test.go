package rescore_test

import (
	"testing"

	"github.com/katalvlaran/decipherfst/fstio"
	"github.com/katalvlaran/decipherfst/rescore"
	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
	"github.com/stretchr/testify/require"
)

const phiLabel int32 = 99

// acceptAllLM accepts any symbol in syms at weight One from a single
// self-looping state, standing in for "the old LM's contribution, to be
// composed out at no net cost."
func acceptAllLM(syms []int32) *wfst.Fst {
	f := wfst.NewTropical()
	s0 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s0, semiring.TropicalOne())
	for _, sym := range syms {
		f.AddArc(s0, wfst.Arc{Ilabel: sym, Olabel: sym, Weight: semiring.TropicalOne(), Nextstate: s0})
	}

	return f
}

// bigramWithBackoffLM builds a toy two-state backoff bigram: s0 is the
// unigram/backoff state (arcs on 1 and 3, both final), s1 is entered after
// symbol 1 and only special-cases symbol 2 directly; anything else from s1
// must back off to s0 via the phi arc.
func bigramWithBackoffLM() *wfst.Fst {
	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s0, semiring.TropicalOne())
	f.SetFinal(s1, semiring.Tropical(3))

	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.Tropical(1), Nextstate: s1})
	f.AddArc(s0, wfst.Arc{Ilabel: 3, Olabel: 3, Weight: semiring.Tropical(4), Nextstate: s0})
	f.AddArc(s1, wfst.Arc{Ilabel: 2, Olabel: 2, Weight: semiring.Tropical(2), Nextstate: s0})
	f.AddArc(s1, wfst.Arc{Ilabel: phiLabel, Olabel: phiLabel, Weight: semiring.Tropical(0), Nextstate: s0})

	return f
}

func TestRescoreMatchesDirectBigramArc(t *testing.T) {
	t.Parallel()

	r, err := rescore.NewRescorer(acceptAllLM([]int32{1, 2, 3}), bigramWithBackoffLM(), rescore.Config{
		PhiLabel: phiLabel, OutputPruneBeam: 4, PruneOutput: true, RemoveWeights: true,
	})
	require.NoError(t, err)

	res, err := r.Rescore(fstio.LinearAcceptor([]int32{1, 2}))
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2}, res.Hypothesis)
	require.NotNil(t, res.Lattice)
}

func TestRescoreBacksOffThroughPhiArc(t *testing.T) {
	t.Parallel()

	r, err := rescore.NewRescorer(acceptAllLM([]int32{1, 2, 3}), bigramWithBackoffLM(), rescore.Config{
		PhiLabel: phiLabel, OutputPruneBeam: 4, PruneOutput: true, RemoveWeights: true,
	})
	require.NoError(t, err)

	// After symbol 1 the LM lands in s1, which only special-cases symbol 2;
	// symbol 3 has no direct arc there and must back off to s0 to match.
	res, err := r.Rescore(fstio.LinearAcceptor([]int32{1, 3}))
	require.NoError(t, err)
	require.Equal(t, []int32{1, 3}, res.Hypothesis)
}

func TestRescoreReportsEmptyHypothesisWhenNoPathMatches(t *testing.T) {
	t.Parallel()

	// Neither the old LM nor the bigram LM carries a symbol-5 arc, and
	// there's no phi arc from s0 for it either, so no path can survive.
	r, err := rescore.NewRescorer(acceptAllLM([]int32{1, 2, 3}), bigramWithBackoffLM(), rescore.Config{
		PhiLabel: phiLabel,
	})
	require.NoError(t, err)

	_, err = r.Rescore(fstio.LinearAcceptor([]int32{5}))
	require.ErrorIs(t, err, rescore.ErrEmptyHypothesis)
}

func TestNewRescorerRejectsNonPositivePhiLabel(t *testing.T) {
	t.Parallel()

	_, err := rescore.NewRescorer(acceptAllLM([]int32{1}), bigramWithBackoffLM(), rescore.Config{PhiLabel: 0})
	require.Error(t, err)
}
