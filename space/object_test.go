package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	t.Run("PayloadIsCopied", func(t *testing.T) {
		buf := []byte{1, 2, 3, 4}
		o := NewObject(7, 3, buf)
		buf[0] = 99

		assert.Equal(t, uint32(7), o.ID())
		assert.Equal(t, int32(3), o.Label())
		assert.Equal(t, []byte{1, 2, 3, 4}, o.Payload())
	})

	t.Run("ComponentsFloat32", func(t *testing.T) {
		vec := []float32{1.5, -2.25, 0}
		o := newObjectFromComponents(0, NoLabel, vec)

		require.Len(t, o.Payload(), 12)
		assert.Equal(t, vec, Components[float32](o))
	})

	t.Run("ComponentsInt32", func(t *testing.T) {
		vec := []int32{-1, 0, 42}
		o := newObjectFromComponents(1, NoLabel, vec)

		assert.Equal(t, vec, Components[int32](o))
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		o := NewObject(0, NoLabel, nil)
		assert.Nil(t, Components[float64](o))
	})
}
