package space

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annlab/nonmetric"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDataset(t *testing.T) {
	s := NewL2[float32]()

	t.Run("Basic", func(t *testing.T) {
		path := writeTemp(t, "data.txt", "1 2 3\n4 5 6\n")

		data, err := ReadDataset(s, path, 0)
		require.NoError(t, err)
		require.Len(t, data, 2)

		assert.Equal(t, uint32(0), data[0].ID())
		assert.Equal(t, NoLabel, data[0].Label())
		assert.Equal(t, []float32{1, 2, 3}, Components[float32](data[0]))
		assert.Equal(t, []float32{4, 5, 6}, Components[float32](data[1]))
	})

	t.Run("LabelPrefix", func(t *testing.T) {
		path := writeTemp(t, "data.txt", "label:7 1 2\n0.5 0.5\n")

		data, err := ReadDataset(s, path, 0)
		require.NoError(t, err)
		require.Len(t, data, 2)

		assert.Equal(t, int32(7), data[0].Label())
		assert.Equal(t, NoLabel, data[1].Label())
	})

	t.Run("CommaSeparators", func(t *testing.T) {
		path := writeTemp(t, "data.txt", "1,2,3\n4;5;6\n")

		data, err := ReadDataset(s, path, 0)
		require.NoError(t, err)
		require.Len(t, data, 2)
		assert.Equal(t, []float32{4, 5, 6}, Components[float32](data[1]))
	})

	t.Run("MaxNum", func(t *testing.T) {
		path := writeTemp(t, "data.txt", "1 2\n3 4\n5 6\n")

		data, err := ReadDataset(s, path, 2)
		require.NoError(t, err)
		assert.Len(t, data, 2)
	})

	t.Run("SkipsBlankLines", func(t *testing.T) {
		path := writeTemp(t, "data.txt", "1 2\n\n3 4\n")

		data, err := ReadDataset(s, path, 0)
		require.NoError(t, err)
		assert.Len(t, data, 2)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		path := writeTemp(t, "data.txt", "1 2 3\n4 5\n")

		_, err := ReadDataset(s, path, 0)
		require.Error(t, err)

		var dm *nonmetric.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Line)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("ParseFailureNamesLine", func(t *testing.T) {
		path := writeTemp(t, "data.txt", "1 2\n3 potato\n")

		_, err := ReadDataset(s, path, 0)
		require.Error(t, err)

		var pe *nonmetric.ErrParse
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 2, pe.Line)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ReadDataset(s, filepath.Join(t.TempDir(), "nope.txt"), 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, nonmetric.ErrIO)
	})

	t.Run("BitHammingRejectsNonBinary", func(t *testing.T) {
		path := writeTemp(t, "bits.txt", "0 1 0\n0 2 0\n")

		_, err := ReadDataset(NewBitHamming(), path, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ":2")
	})
}

func TestWriteDataset(t *testing.T) {
	t.Run("RoundTripBitwise", func(t *testing.T) {
		s := NewL2[float32]()
		vecs := [][]float32{
			{0.1, -2.5, 3e-7},
			{1.0 / 3.0, 42, -0.0001},
		}
		var dataset []*Object
		for i, vec := range vecs {
			o, err := s.CreateFromVec(uint32(i), int32(i), vec)
			require.NoError(t, err)
			dataset = append(dataset, o)
		}

		path := filepath.Join(t.TempDir(), "out.txt")
		require.NoError(t, WriteDataset(s, dataset, path))

		reread, err := ReadDataset(s, path, 0)
		require.NoError(t, err)
		require.Len(t, reread, len(dataset))
		for i := range dataset {
			assert.Equal(t, dataset[i].Payload(), reread[i].Payload(), "payload %d", i)
			assert.Equal(t, dataset[i].Label(), reread[i].Label())
		}
	})

	t.Run("NegativeLabelOmitted", func(t *testing.T) {
		s := NewL2[float64]()
		o, err := s.CreateFromVec(0, NoLabel, []float64{1, 2})
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "out.txt")
		require.NoError(t, WriteDataset(s, []*Object{o}, path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "1 2\n", string(content))
	})

	t.Run("GzipRoundTrip", func(t *testing.T) {
		s := NewL2[float64]()
		o, err := s.CreateFromVec(0, 5, []float64{0.25, -1.75})
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "out.txt.gz")
		require.NoError(t, WriteDataset(s, []*Object{o}, path))

		reread, err := ReadDataset(s, path, 0)
		require.NoError(t, err)
		require.Len(t, reread, 1)
		assert.Equal(t, o.Payload(), reread[0].Payload())
		assert.Equal(t, int32(5), reread[0].Label())
	})
}
