package nonmetric

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrDimensionMismatch(t *testing.T) {
	err := NewDimensionMismatch("data.txt", 17, 8, 7)
	assert.Equal(t, "data.txt:17: dimension mismatch: expected 8 components, got 7", err.Error())

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, error(err), &dm)
	assert.Equal(t, 17, dm.Line)
}

func TestErrRecallUnmet(t *testing.T) {
	err := &ErrRecallUnmet{Desired: 0.95, Best: 0.8123}
	assert.Contains(t, err.Error(), "0.9500")
	assert.Contains(t, err.Error(), "0.8123")
}

func TestSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("%w: unknown space %q", ErrInvalidArgument, "l3000")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.False(t, errors.Is(err, ErrInternal))
}

func TestErrIOKeepsCause(t *testing.T) {
	cause := errors.New("no such file")
	err := fmt.Errorf("%w: open dataset: %w", ErrIO, cause)

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
}
