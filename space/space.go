// Package space provides distance oracles over opaque objects.
//
// A Space wraps a distance function that may be expensive, asymmetric and
// non-metric. Symmetry and the triangle inequality are never assumed by the
// callers; indices treat the distance as a black box. Distance calls are
// counted per query by the query engines, not here — a Space is stateless
// and never caches.
package space

import (
	"github.com/annlab/nonmetric/core"
)

// Space is an opaque distance oracle over Objects.
//
// Distance must be a pure function of its two arguments. It is allowed to
// return core.MaxValue[T]() to signal an uncomputable pair; such a candidate
// is never admitted to a result set and search proceeds correctly.
//
// A Space does not own the Objects it measures.
type Space[T core.Scalar] interface {
	// Name returns the registry name of the space, e.g. "l2" or "bit_hamming".
	Name() string

	// Distance returns the distance from a to b. Not necessarily symmetric.
	Distance(a, b *Object) T

	// CreateFromVec builds an Object owning a payload encoded from vec.
	CreateFromVec(id uint32, label int32, vec []T) (*Object, error)
}

// VectorDecoder is implemented by spaces whose payloads decode back into
// component vectors. It is required for writing datasets.
type VectorDecoder[T core.Scalar] interface {
	// DecodeVec returns the component vector encoded in o's payload.
	// For packed representations the returned vector may be padded to the
	// encoding granularity.
	DecodeVec(o *Object) []T
}
