package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxValue(t *testing.T) {
	assert.Equal(t, int32(math.MaxInt32), MaxValue[int32]())
	assert.True(t, math.IsInf(float64(MaxValue[float32]()), 1))
	assert.True(t, math.IsInf(MaxValue[float64](), 1))
}

func TestFloat64Promotion(t *testing.T) {
	assert.Equal(t, 3.0, Float64(int32(3)))
	assert.Equal(t, 0.5, Float64(float32(0.5)))
}

func TestSortResults(t *testing.T) {
	results := []Result[float32]{
		{ID: 5, Distance: 2},
		{ID: 9, Distance: 1},
		{ID: 3, Distance: 1},
	}
	SortResults(results)

	assert.Equal(t, uint32(3), results[0].ID)
	assert.Equal(t, uint32(9), results[1].ID)
	assert.Equal(t, uint32(5), results[2].ID)
}
