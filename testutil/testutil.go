package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/space"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Rand exposes the underlying *rand.Rand for APIs that take one directly.
// The caller must not share it across goroutines.
func (r *RNG) Rand() *rand.Rand {
	return r.rand
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard-normal pseudo-random number.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// UniformVectors generates random vectors with components in [0, 1).
func UniformVectors[T core.Float](r *RNG, num, dimensions int) [][]T {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]T, num)
	for i := range vectors {
		vec := make([]T, dimensions)
		for j := range vec {
			vec[j] = T(r.rand.Float64())
		}
		vectors[i] = vec
	}
	return vectors
}

// NormalVectors generates random vectors with iid standard-normal
// components.
func NormalVectors[T core.Float](r *RNG, num, dimensions int) [][]T {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]T, num)
	for i := range vectors {
		vec := make([]T, dimensions)
		for j := range vec {
			vec[j] = T(r.rand.NormFloat64())
		}
		vectors[i] = vec
	}
	return vectors
}

// BitVectors generates random 0/1 vectors for the bit-Hamming space.
func BitVectors(r *RNG, num, dimensions int) [][]int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]int32, num)
	for i := range vectors {
		vec := make([]int32, dimensions)
		for j := range vec {
			vec[j] = int32(r.rand.Intn(2))
		}
		vectors[i] = vec
	}
	return vectors
}

// GridVectors generates the unit grid {0..side-1} x {0..side-1} in row
// order, one 2-dimensional vector per grid point.
func GridVectors[T core.Float](side int) [][]T {
	vectors := make([][]T, 0, side*side)
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			vectors = append(vectors, []T{T(x), T(y)})
		}
	}
	return vectors
}

// MakeObjects turns component vectors into dataset objects with sequential
// IDs and no labels. It panics on CreateFromVec errors; test inputs are
// expected to be valid.
func MakeObjects[T core.Scalar](s space.Space[T], vecs [][]T) []*space.Object {
	objs := make([]*space.Object, len(vecs))
	for i, vec := range vecs {
		obj, err := s.CreateFromVec(uint32(i), space.NoLabel, vec)
		if err != nil {
			panic(err)
		}
		objs[i] = obj
	}
	return objs
}

// BruteForceKNN is an independent exact k-NN reference: it sorts the full
// distance list instead of going through the query engines.
func BruteForceKNN[T core.Scalar](s space.Space[T], data []*space.Object, query *space.Object, k int) []core.Result[T] {
	all := make([]core.Result[T], len(data))
	for i, o := range data {
		all[i] = core.Result[T]{ID: o.ID(), Distance: s.Distance(query, o)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].ID < all[j].ID
	})
	if k < len(all) {
		all = all[:k]
	}
	return all
}
