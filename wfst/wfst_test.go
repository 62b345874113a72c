package wfst_test

import (
	"testing"

	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
	"github.com/stretchr/testify/require"
)

func TestFstBasics(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s1, semiring.TropicalOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 2, Weight: semiring.Tropical(3), Nextstate: s1})

	require.Equal(t, s0, f.Start())
	require.Equal(t, 2, f.NumStates())
	require.Equal(t, 1, f.NumArcs())
	require.True(t, f.IsFinal(s1))
	require.False(t, f.IsFinal(s0))
}

func TestArcSortInputOutput(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s1, semiring.TropicalOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 3, Olabel: 1, Weight: semiring.Tropical(1), Nextstate: s1})
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 5, Weight: semiring.Tropical(1), Nextstate: s1})

	wfst.ArcSortInput(f)
	require.True(t, f.IsInputSorted())
	arcs := f.Arcs(s0)
	require.Equal(t, int32(1), arcs[0].Ilabel)
	require.Equal(t, int32(3), arcs[1].Ilabel)

	wfst.ArcSortOutput(f)
	require.True(t, f.IsOutputSorted())
	arcs = f.Arcs(s0)
	require.Equal(t, int32(1), arcs[0].Olabel)
	require.Equal(t, int32(5), arcs[1].Olabel)
}

func TestProjectInputOutput(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s1, semiring.TropicalOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 7, Olabel: 9, Weight: semiring.TropicalOne(), Nextstate: s1})

	wfst.Project(f, wfst.ProjectOutput)
	require.Equal(t, int32(9), f.Arcs(s0)[0].Ilabel)

	wfst.Project(f, wfst.ProjectInput)
	require.Equal(t, int32(9), f.Arcs(s0)[0].Olabel)
}

func TestRemoveWeights(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s1, semiring.Tropical(4))
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.Tropical(4), Nextstate: s1})

	wfst.RemoveWeights(f)
	require.Equal(t, semiring.TropicalOne(), f.Arcs(s0)[0].Weight)
	require.Equal(t, semiring.TropicalOne(), f.Final(s1))
}

func TestConnectPrunesDeadStates(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	dead := f.AddState() // unreachable and non-coreachable
	f.SetStart(s0)
	f.SetFinal(s1, semiring.TropicalOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.TropicalOne(), Nextstate: s1})
	_ = dead

	out := wfst.Connect(f)
	require.Equal(t, 2, out.NumStates())
}

func TestShortestPathPicksCheapestRoute(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s2, semiring.TropicalOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.Tropical(5), Nextstate: s2})
	f.AddArc(s0, wfst.Arc{Ilabel: 2, Olabel: 2, Weight: semiring.Tropical(1), Nextstate: s1})
	f.AddArc(s1, wfst.Arc{Ilabel: 3, Olabel: 3, Weight: semiring.Tropical(1), Nextstate: s2})

	best := wfst.ShortestPath(f)
	seq := wfst.GetLinearSymbolSequence(best)
	require.Equal(t, []int32{2, 3}, seq)
}

func TestShortestDistanceForwardAndBackward(t *testing.T) {
	t.Parallel()

	f := wfst.NewLog()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s1, semiring.LogOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.Log(2), Nextstate: s1})
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.Log(3), Nextstate: s1})

	fwd := wfst.ShortestDistance(f, false)
	require.False(t, fwd[s1].IsZero())

	bwd := wfst.ShortestDistance(f, true)
	require.False(t, bwd[s0].IsZero())
	require.InDelta(t, fwd[s1].Float(), bwd[s0].Float(), 1e-9)
}

func TestRmEpsilonFoldsChain(t *testing.T) {
	t.Parallel()

	f := wfst.NewLog()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s2, semiring.LogOne())
	f.AddArc(s0, wfst.Arc{Ilabel: wfst.Epsilon, Olabel: wfst.Epsilon, Weight: semiring.Log(1), Nextstate: s1})
	f.AddArc(s1, wfst.Arc{Ilabel: 5, Olabel: 5, Weight: semiring.Log(2), Nextstate: s2})

	wfst.RmEpsilon(f)
	arcs := f.Arcs(s0)
	require.Len(t, arcs, 1)
	require.Equal(t, int32(5), arcs[0].Olabel)
	require.InDelta(t, 3.0, arcs[0].Weight.Float(), 1e-9)
}

func TestDeterminizeMergesCommonPrefix(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	s3 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s2, semiring.TropicalOne())
	f.SetFinal(s3, semiring.TropicalOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.TropicalOne(), Nextstate: s1})
	f.AddArc(s1, wfst.Arc{Ilabel: 2, Olabel: 2, Weight: semiring.TropicalOne(), Nextstate: s2})
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.TropicalOne(), Nextstate: s3})

	det := wfst.Determinize(f)
	outArcs := det.Arcs(det.Start())
	require.Len(t, outArcs, 1, "both branches share label 1 from the start state and must merge")
}

func TestMinimizeMergesEquivalentFinals(t *testing.T) {
	t.Parallel()

	f := wfst.NewTropical()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.SetStart(s0)
	f.SetFinal(s1, semiring.TropicalOne())
	f.SetFinal(s2, semiring.TropicalOne())
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.TropicalOne(), Nextstate: s1})
	f.AddArc(s0, wfst.Arc{Ilabel: 2, Olabel: 2, Weight: semiring.TropicalOne(), Nextstate: s2})

	min := wfst.Minimize(f)
	require.Equal(t, 2, min.NumStates(), "s1 and s2 are both final with no outgoing arcs and must merge")
}
