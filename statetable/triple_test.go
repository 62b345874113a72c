package statetable_test

import (
	"testing"

	"github.com/katalvlaran/decipherfst/statetable"
	"github.com/katalvlaran/decipherfst/wfst"
	"github.com/stretchr/testify/require"
)

func TestFindOrInsertAssignsDenseIds(t *testing.T) {
	t.Parallel()

	tt := statetable.NewTripleStateTable()
	t1 := statetable.Triple{S1: 0, S2: 0, S3: 0}
	t2 := statetable.Triple{S1: 1, S2: 0, S3: 0}

	id1 := tt.FindOrInsert(t1)
	require.Equal(t, wfst.StateId(0), id1)

	id2 := tt.FindOrInsert(t2)
	require.Equal(t, wfst.StateId(1), id2)

	// re-inserting t1 returns the original id, not a new one.
	again := tt.FindOrInsert(t1)
	require.Equal(t, id1, again)
	require.Equal(t, 2, tt.Len())
}

func TestFindReportsPresence(t *testing.T) {
	t.Parallel()

	tt := statetable.NewTripleStateTable()
	tr := statetable.Triple{S1: 5, S2: 2, S3: 9}

	_, ok := tt.Find(tr)
	require.False(t, ok)

	id := tt.FindOrInsert(tr)
	got, ok := tt.Find(tr)
	require.True(t, ok)
	require.Equal(t, id, got)
}

func TestTripleRoundTrip(t *testing.T) {
	t.Parallel()

	tt := statetable.NewTripleStateTable()
	tr := statetable.Triple{S1: 100, S2: 3, S3: 77}
	id := tt.FindOrInsert(tr)
	require.Equal(t, tr, tt.Triple(id))
}

func TestDistinctTriplesWithSharedFieldsDoNotCollide(t *testing.T) {
	t.Parallel()

	tt := statetable.NewTripleStateTable()
	a := statetable.Triple{S1: 1, S2: 2, S3: 3}
	b := statetable.Triple{S1: 3, S2: 2, S3: 1}

	idA := tt.FindOrInsert(a)
	idB := tt.FindOrInsert(b)
	require.NotEqual(t, idA, idB)
}

func TestTriplesWithPackedKeyCollisionStayDistinct(t *testing.T) {
	t.Parallel()

	tt := statetable.NewTripleStateTable()
	// S2 values 2 and 258 (2 + 256) truncate to the same byte when packed
	// into the key, so these two triples collide on key but must still be
	// tracked as distinct states via real Triple equality.
	a := statetable.Triple{S1: 1, S2: 2, S3: 1}
	b := statetable.Triple{S1: 1, S2: 258, S3: 1}

	idA := tt.FindOrInsert(a)
	idB := tt.FindOrInsert(b)
	require.NotEqual(t, idA, idB)

	gotA, ok := tt.Find(a)
	require.True(t, ok)
	require.Equal(t, idA, gotA)

	gotB, ok := tt.Find(b)
	require.True(t, ok)
	require.Equal(t, idB, gotB)

	require.Equal(t, a, tt.Triple(idA))
	require.Equal(t, b, tt.Triple(idB))
}
