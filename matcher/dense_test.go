package matcher_test

import (
	"testing"

	"github.com/katalvlaran/decipherfst/matcher"
	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
	"github.com/stretchr/testify/require"
)

func TestNewDenseArcMatcherRejectsBadDimensions(t *testing.T) {
	t.Parallel()

	f := wfst.NewLog()
	f.AddState()
	_, err := matcher.NewDenseArcMatcher(f, 0, 4)
	require.ErrorIs(t, err, matcher.ErrInvalidDimensions)
}

func TestDenseArcMatcherGetHitAndMiss(t *testing.T) {
	t.Parallel()

	f := wfst.NewLog()
	s0 := f.AddState()
	s1 := f.AddState()
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 2, Weight: semiring.Log(0.3), Nextstate: s1})

	dm, err := matcher.NewDenseArcMatcher(f, 4, 4)
	require.NoError(t, err)

	hit := dm.Get(int(s0), 1, 2)
	require.False(t, matcher.IsSentinel(hit))
	require.Equal(t, s1, hit.Nextstate)

	miss := dm.Get(int(s0), 1, 3)
	require.True(t, matcher.IsSentinel(miss))

	outOfRange := dm.Get(int(s0), 99, 2)
	require.True(t, matcher.IsSentinel(outOfRange))
}

func TestDenseArcMatcherLastWriteWinsOnDuplicateTriple(t *testing.T) {
	t.Parallel()

	f := wfst.NewLog()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.Log(1), Nextstate: s1})
	f.AddArc(s0, wfst.Arc{Ilabel: 1, Olabel: 1, Weight: semiring.Log(2), Nextstate: s2})

	dm, err := matcher.NewDenseArcMatcher(f, 2, 2)
	require.NoError(t, err)

	got := dm.Get(int(s0), 1, 1)
	require.Equal(t, s2, got.Nextstate, "a non-deterministic A overwrites with the later arc")
}
