package space

import (
	"fmt"
	"math"

	"github.com/annlab/nonmetric/core"
)

// Compile-time checks to ensure VectorSpace satisfies required interfaces.
var _ Space[float32] = (*VectorSpace[float32])(nil)
var _ VectorDecoder[float32] = (*VectorSpace[float32])(nil)

// VectorSpace is a dense-vector space with a pluggable distance kernel.
// Kernels compute in float64 and the result is converted to the space's
// scalar type.
type VectorSpace[T core.Scalar] struct {
	name   string
	kernel func(a, b []T) float64
}

// NewL1 creates the Manhattan distance space.
func NewL1[T core.Scalar]() *VectorSpace[T] {
	return &VectorSpace[T]{name: "l1", kernel: l1Kernel[T]}
}

// NewL2 creates the Euclidean distance space.
func NewL2[T core.Scalar]() *VectorSpace[T] {
	return &VectorSpace[T]{name: "l2", kernel: l2Kernel[T]}
}

// NewLinf creates the Chebyshev distance space.
func NewLinf[T core.Scalar]() *VectorSpace[T] {
	return &VectorSpace[T]{name: "linf", kernel: linfKernel[T]}
}

// NewLp creates the generalized Minkowski distance space with parameter p.
// Fractional p (0 < p < 1) is allowed; the resulting function is not a
// metric, which is fine — nothing downstream assumes metricity.
func NewLp[T core.Scalar](p float64) (*VectorSpace[T], error) {
	if p <= 0 || math.IsNaN(p) {
		return nil, fmt.Errorf("lp: p must be positive, got %v", p)
	}
	return &VectorSpace[T]{
		name: fmt.Sprintf("lp:p=%v", p),
		kernel: func(a, b []T) float64 {
			var sum float64
			for i := range a {
				sum += math.Pow(math.Abs(float64(a[i])-float64(b[i])), p)
			}
			return math.Pow(sum, 1/p)
		},
	}, nil
}

// NewCosine creates the cosine distance space: 1 - cos(a, b).
// Zero-norm vectors are at distance 1 from everything.
func NewCosine[T core.Scalar]() *VectorSpace[T] {
	return &VectorSpace[T]{name: "cosine", kernel: cosineKernel[T]}
}

// Name returns the registry name of the space.
func (s *VectorSpace[T]) Name() string { return s.name }

// Distance computes the kernel over the payload component views.
// A length mismatch yields core.MaxValue, never a partial result.
func (s *VectorSpace[T]) Distance(a, b *Object) T {
	va, vb := Components[T](a), Components[T](b)
	if len(va) != len(vb) {
		return core.MaxValue[T]()
	}
	return T(s.kernel(va, vb))
}

// CreateFromVec builds an Object whose payload is the raw component vector.
func (s *VectorSpace[T]) CreateFromVec(id uint32, label int32, vec []T) (*Object, error) {
	return newObjectFromComponents(id, label, vec), nil
}

// DecodeVec implements VectorDecoder.
func (s *VectorSpace[T]) DecodeVec(o *Object) []T {
	return Components[T](o)
}

func l1Kernel[T core.Scalar](a, b []T) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum
}

func l2Kernel[T core.Scalar](a, b []T) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func linfKernel[T core.Scalar](a, b []T) float64 {
	var best float64
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		if d > best {
			best = d
		}
	}
	return best
}

func cosineKernel[T core.Scalar](a, b []T) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp against rounding: cos must stay within [-1, 1].
	cos = math.Max(-1, math.Min(1, cos))
	return 1 - cos
}
