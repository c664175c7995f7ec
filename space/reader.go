package space

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/core"
)

// labelPrefix marks an optional integer class label at the start of a
// dataset line, e.g. "label:3 0.5 0.25".
const labelPrefix = "label:"

// maxLineBytes bounds a single dataset line (dense high-dimensional rows
// can exceed bufio.Scanner's default).
const maxLineBytes = 16 << 20

// ReadDataset reads a whitespace-separated text dataset through the given
// space. One object per line; commas and semicolons are also accepted as
// separators. An optional "label:<int> " prefix sets the object label,
// otherwise the label is NoLabel. All rows must have the same number of
// components.
//
// If maxNum > 0, at most maxNum objects are read. Files ending in ".gz" are
// decompressed transparently. Object IDs are assigned sequentially from 0.
func ReadDataset[T core.Scalar](s Space[T], path string, maxNum int) ([]*Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open dataset: %w", nonmetric.ErrIO, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: open dataset %s: %w", nonmetric.ErrIO, path, err)
		}
		defer gz.Close()
		r = gz
	}

	var (
		dataset []*Object
		dim     int
		lineNum int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		label, vec, err := parseLine[T](line)
		if err != nil {
			return nil, nonmetric.NewParseError(path, lineNum, err)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, nonmetric.NewDimensionMismatch(path, lineNum, dim, len(vec))
		}

		obj, err := s.CreateFromVec(uint32(len(dataset)), label, vec)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
		dataset = append(dataset, obj)

		if maxNum > 0 && len(dataset) >= maxNum {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read dataset %s: %w", nonmetric.ErrIO, path, err)
	}
	return dataset, nil
}

// WriteDataset writes the dataset in the text format ReadDataset accepts.
// Labels >= 0 are emitted with the "label:" prefix. The space must
// implement VectorDecoder. Files ending in ".gz" are compressed.
//
// Reparsing the written file yields objects whose payloads match the
// originals bitwise.
func WriteDataset[T core.Scalar](s Space[T], dataset []*Object, path string) error {
	dec, ok := s.(VectorDecoder[T])
	if !ok {
		return fmt.Errorf("%w: space %s cannot decode payloads for writing", nonmetric.ErrInvalidArgument, s.Name())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create dataset: %w", nonmetric.ErrIO, err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	bw := bufio.NewWriter(w)
	for _, obj := range dataset {
		if obj.Label() >= 0 {
			if _, err := fmt.Fprintf(bw, "%s%d ", labelPrefix, obj.Label()); err != nil {
				return fmt.Errorf("%w: write dataset %s: %w", nonmetric.ErrIO, path, err)
			}
		}
		for i, v := range dec.DecodeVec(obj) {
			sep := " "
			if i == 0 {
				sep = ""
			}
			if _, err := bw.WriteString(sep + formatComponent(v)); err != nil {
				return fmt.Errorf("%w: write dataset %s: %w", nonmetric.ErrIO, path, err)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: write dataset %s: %w", nonmetric.ErrIO, path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: write dataset %s: %w", nonmetric.ErrIO, path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("%w: write dataset %s: %w", nonmetric.ErrIO, path, err)
		}
	}
	return f.Close()
}

func parseLine[T core.Scalar](line string) (label int32, vec []T, err error) {
	label = NoLabel
	if strings.HasPrefix(line, labelPrefix) {
		rest := line[len(labelPrefix):]
		var tok string
		tok, rest, _ = strings.Cut(rest, " ")
		l, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("bad label %q: %w", tok, err)
		}
		label = int32(l)
		line = rest
	}

	// The format tolerates comma- and semicolon-separated rows.
	line = strings.Map(func(r rune) rune {
		if r == ',' || r == ';' {
			return ' '
		}
		return r
	}, line)

	for _, field := range strings.Fields(line) {
		v, err := parseComponent[T](field)
		if err != nil {
			return 0, nil, err
		}
		vec = append(vec, v)
	}
	return label, vec, nil
}

func parseComponent[T core.Scalar](field string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case int32:
		v, err := strconv.ParseInt(field, 10, 32)
		return T(v), err
	case float32:
		v, err := strconv.ParseFloat(field, 32)
		return T(v), err
	default:
		v, err := strconv.ParseFloat(field, 64)
		return T(v), err
	}
}

func formatComponent[T core.Scalar](v T) string {
	switch x := any(v).(type) {
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return strconv.FormatFloat(any(v).(float64), 'g', -1, 64)
	}
}
