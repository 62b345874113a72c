package matrix_test

import (
	"testing"

	"github.com/katalvlaran/decipherfst/matrix"
	"github.com/stretchr/testify/require"
)

func TestNewDenseRejectsNonPositiveDimensions(t *testing.T) {
	t.Parallel()

	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

func TestDenseSetAndAtRoundTrip(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDense(3, 4)
	require.NoError(t, err)
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 4, m.Cols())

	require.NoError(t, m.Set(2, 3, 1.5))
	v, err := m.At(2, 3)
	require.NoError(t, err)
	require.Equal(t, 1.5, v)
}

func TestDenseAtRejectsOutOfBoundsIndex(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	_, err = m.At(2, 0)
	require.ErrorIs(t, err, matrix.ErrIndexOutOfBounds)

	_, err = m.At(0, -1)
	require.ErrorIs(t, err, matrix.ErrIndexOutOfBounds)
}

func TestDenseCloneIsIndependentCopy(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, 9))

	clone := m.Clone()
	require.NoError(t, m.Set(0, 0, 1))

	v, err := clone.At(0, 0)
	require.NoError(t, err)
	require.Equal(t, 9.0, v)
}
