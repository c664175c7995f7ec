package space

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annlab/nonmetric"
)

func makeObj(t *testing.T, s Space[float64], id uint32, vec ...float64) *Object {
	t.Helper()
	o, err := s.CreateFromVec(id, NoLabel, vec)
	require.NoError(t, err)
	return o
}

func TestVectorSpace(t *testing.T) {
	t.Run("L2", func(t *testing.T) {
		s := NewL2[float64]()
		a := makeObj(t, s, 0, 0, 0)
		b := makeObj(t, s, 1, 3, 4)

		assert.InDelta(t, 5.0, s.Distance(a, b), 1e-12)
		assert.InDelta(t, 0.0, s.Distance(a, a), 1e-12)
	})

	t.Run("L1", func(t *testing.T) {
		s := NewL1[float64]()
		a := makeObj(t, s, 0, 1, -2, 3)
		b := makeObj(t, s, 1, 0, 2, 1)

		assert.InDelta(t, 7.0, s.Distance(a, b), 1e-12)
	})

	t.Run("Linf", func(t *testing.T) {
		s := NewLinf[float64]()
		a := makeObj(t, s, 0, 1, -2, 3)
		b := makeObj(t, s, 1, 0, 2, 1)

		assert.InDelta(t, 4.0, s.Distance(a, b), 1e-12)
	})

	t.Run("FractionalLp", func(t *testing.T) {
		s, err := NewLp[float64](0.5)
		require.NoError(t, err)

		a := makeObj(t, s, 0, 0, 0)
		b := makeObj(t, s, 1, 1, 1)

		// (1^0.5 + 1^0.5)^2 = 4
		assert.InDelta(t, 4.0, s.Distance(a, b), 1e-12)
	})

	t.Run("LpRejectsBadP", func(t *testing.T) {
		_, err := NewLp[float64](0)
		assert.Error(t, err)

		_, err = NewLp[float64](-1)
		assert.Error(t, err)
	})

	t.Run("Cosine", func(t *testing.T) {
		s := NewCosine[float64]()
		a := makeObj(t, s, 0, 1, 0)
		b := makeObj(t, s, 1, 0, 1)
		c := makeObj(t, s, 2, 2, 0)

		assert.InDelta(t, 1.0, s.Distance(a, b), 1e-12)
		assert.InDelta(t, 0.0, s.Distance(a, c), 1e-12)
	})

	t.Run("CosineZeroNorm", func(t *testing.T) {
		s := NewCosine[float64]()
		zero := makeObj(t, s, 0, 0, 0)
		b := makeObj(t, s, 1, 1, 1)

		assert.InDelta(t, 1.0, s.Distance(zero, b), 1e-12)
	})

	t.Run("DimensionMismatchIsMaxValue", func(t *testing.T) {
		s := NewL2[float64]()
		a := makeObj(t, s, 0, 1, 2)
		b, err := s.CreateFromVec(1, NoLabel, []float64{1, 2, 3})
		require.NoError(t, err)

		assert.True(t, math.IsInf(s.Distance(a, b), 1))
	})

	t.Run("IntegerScalar", func(t *testing.T) {
		s := NewL1[int32]()
		a, err := s.CreateFromVec(0, NoLabel, []int32{1, 2})
		require.NoError(t, err)
		b, err := s.CreateFromVec(1, NoLabel, []int32{4, 0})
		require.NoError(t, err)

		assert.Equal(t, int32(5), s.Distance(a, b))
	})
}

func TestCreate(t *testing.T) {
	t.Run("KnownSpaces", func(t *testing.T) {
		for _, name := range []string{"l1", "l2", "linf", "cosine"} {
			s, err := Create[float32](name)
			require.NoError(t, err, name)
			assert.Equal(t, name, s.Name())
		}
	})

	t.Run("LpWithParam", func(t *testing.T) {
		s, err := Create[float64]("lp:p=0.5")
		require.NoError(t, err)
		assert.Equal(t, "lp:p=0.5", s.Name())
	})

	t.Run("LpMissingParam", func(t *testing.T) {
		_, err := Create[float64]("lp")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})

	t.Run("UnknownSpace", func(t *testing.T) {
		_, err := Create[float64]("l3000")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})

	t.Run("BitHammingRequiresInt", func(t *testing.T) {
		_, err := Create[float32]("bit_hamming")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)

		s, err := Create[int32]("bit_hamming")
		require.NoError(t, err)
		assert.Equal(t, "bit_hamming", s.Name())
	})

	t.Run("CaseInsensitiveName", func(t *testing.T) {
		s, err := Create[float32]("L2")
		require.NoError(t, err)
		assert.Equal(t, "l2", s.Name())
	})
}
