package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/vptree"
)

func TestParseMethod(t *testing.T) {
	t.Run("PlainVPTree", func(t *testing.T) {
		name, params, err := parseMethod("vptree")
		require.NoError(t, err)
		assert.Equal(t, "vptree", name)
		assert.Empty(t, params)
	})

	t.Run("WithParams", func(t *testing.T) {
		name, params, err := parseMethod("vptree:bucketSize=20,randomPivot=false")
		require.NoError(t, err)
		assert.Equal(t, "vptree", name)
		assert.Equal(t, "20", params["bucketSize"])
		assert.Equal(t, "false", params["randomPivot"])
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		_, _, err := parseMethod("hnsw")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})

	t.Run("RecognizedButUnimplemented", func(t *testing.T) {
		_, _, err := parseMethod("proj_vptree")
		require.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "not implemented")
	})

	t.Run("BadParam", func(t *testing.T) {
		_, _, err := parseMethod("vptree:bucketSize")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})
}

func TestParseQueryKind(t *testing.T) {
	t.Run("KNN", func(t *testing.T) {
		k, r, err := parseQueryKind("10", "")
		require.NoError(t, err)
		assert.Equal(t, 10, k)
		assert.Equal(t, 0.0, r)
	})

	t.Run("Range", func(t *testing.T) {
		k, r, err := parseQueryKind("", "0.5")
		require.NoError(t, err)
		assert.Equal(t, 0, k)
		assert.Equal(t, 0.5, r)
	})

	t.Run("BothRejected", func(t *testing.T) {
		_, _, err := parseQueryKind("10", "0.5")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})

	t.Run("NeitherRejected", func(t *testing.T) {
		_, _, err := parseQueryKind("", "")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})

	t.Run("MultipleValuesRejected", func(t *testing.T) {
		_, _, err := parseQueryKind("1,10", "")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)

		_, _, err = parseQueryKind("", "0.1,0.2")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})

	t.Run("BadValues", func(t *testing.T) {
		_, _, err := parseQueryKind("zero", "")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)

		_, _, err = parseQueryKind("", "-2")
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})
}

func TestTreeOptions(t *testing.T) {
	t.Run("MapsOntoOptions", func(t *testing.T) {
		fns, err := treeOptions(map[string]string{"bucketSize": "25", "randomPivot": "false"})
		require.NoError(t, err)

		opts := vptree.DefaultOptions
		for _, fn := range fns {
			fn(&opts)
		}
		assert.Equal(t, 25, opts.BucketSize)
		assert.False(t, opts.SelectPivotRandomly)
	})

	t.Run("RejectsUnknownKey", func(t *testing.T) {
		_, err := treeOptions(map[string]string{"chunkBucket": "1"})
		assert.ErrorIs(t, err, nonmetric.ErrInvalidArgument)
	})

	t.Run("RejectsBadValues", func(t *testing.T) {
		_, err := treeOptions(map[string]string{"bucketSize": "0"})
		assert.Error(t, err)

		_, err = treeOptions(map[string]string{"randomPivot": "maybe"})
		assert.Error(t, err)
	})
}
