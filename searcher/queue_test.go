package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annlab/nonmetric/core"
)

func TestKNNQueue(t *testing.T) {
	t.Run("RadiusIsMaxValueUntilFull", func(t *testing.T) {
		q := NewKNNQueue[float32](2)
		assert.True(t, math.IsInf(float64(q.Radius()), 1))

		q.TryAdd(0, 1.0)
		assert.True(t, math.IsInf(float64(q.Radius()), 1))

		q.TryAdd(1, 2.0)
		assert.Equal(t, float32(2.0), q.Radius())
	})

	t.Run("EvictsWorstOnBetterCandidate", func(t *testing.T) {
		q := NewKNNQueue[float64](2)
		q.TryAdd(0, 5)
		q.TryAdd(1, 3)

		assert.True(t, q.TryAdd(2, 1))
		assert.Equal(t, 3.0, q.Radius())

		results := q.Results()
		require.Len(t, results, 2)
		assert.Equal(t, uint32(2), results[0].ID)
		assert.Equal(t, uint32(1), results[1].ID)
	})

	t.Run("StrictAdmission", func(t *testing.T) {
		q := NewKNNQueue[float64](2)
		q.TryAdd(0, 1)
		q.TryAdd(1, 2)

		// Equal distance must not evict once full.
		assert.False(t, q.TryAdd(2, 2))
		assert.Equal(t, 2.0, q.Radius())

		results := q.Results()
		require.Len(t, results, 2)
		assert.Equal(t, uint32(1), results[1].ID)
	})

	t.Run("ResultsSortedWithIDTieBreak", func(t *testing.T) {
		q := NewKNNQueue[float64](4)
		q.TryAdd(9, 1)
		q.TryAdd(3, 1)
		q.TryAdd(7, 0.5)
		q.TryAdd(5, 2)

		results := q.Results()
		want := []core.Result[float64]{
			{ID: 7, Distance: 0.5},
			{ID: 3, Distance: 1},
			{ID: 9, Distance: 1},
			{ID: 5, Distance: 2},
		}
		assert.Equal(t, want, results)
	})

	t.Run("IntegerRadius", func(t *testing.T) {
		q := NewKNNQueue[int32](1)
		assert.Equal(t, int32(math.MaxInt32), q.Radius())

		q.TryAdd(0, 10)
		assert.Equal(t, int32(10), q.Radius())
	})

	t.Run("Reset", func(t *testing.T) {
		q := NewKNNQueue[float64](2)
		q.TryAdd(0, 1)
		q.Reset()

		assert.Equal(t, 0, q.Len())
		assert.True(t, math.IsInf(q.Radius(), 1))
	})
}
