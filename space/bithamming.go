package space

import (
	"fmt"
	"math/bits"

	"github.com/annlab/nonmetric/core"
)

// wordBits is the packing granularity of bit vectors.
const wordBits = 32

// Compile-time checks to ensure BitHamming satisfies required interfaces.
var _ Space[int32] = (*BitHamming)(nil)
var _ VectorDecoder[int32] = (*BitHamming)(nil)

// BitHamming is the Hamming distance space over binary vectors packed into
// 32-bit words, 32 components per word.
type BitHamming struct{}

// NewBitHamming creates a bit-Hamming space.
func NewBitHamming() *BitHamming { return &BitHamming{} }

// Name returns the registry name of the space.
func (s *BitHamming) Name() string { return "bit_hamming" }

// Distance returns the number of differing bits between the packed payloads.
func (s *BitHamming) Distance(a, b *Object) int32 {
	wa, wb := Components[int32](a), Components[int32](b)
	if len(wa) != len(wb) {
		return core.MaxValue[int32]()
	}
	var dist int32
	for i := range wa {
		dist += int32(bits.OnesCount32(uint32(wa[i]) ^ uint32(wb[i])))
	}
	return dist
}

// CreateFromVec packs a vector of 0/1 components into 32-bit words.
// The last word is zero-padded when len(vec) is not a multiple of 32.
func (s *BitHamming) CreateFromVec(id uint32, label int32, vec []int32) (*Object, error) {
	words := make([]int32, (len(vec)+wordBits-1)/wordBits)
	for i, v := range vec {
		switch v {
		case 0:
		case 1:
			words[i/wordBits] |= 1 << (i % wordBits)
		default:
			return nil, fmt.Errorf("bit_hamming: only zeros and ones are allowed, got %d at component %d", v, i)
		}
	}
	return newObjectFromComponents(id, label, words), nil
}

// DecodeVec unpacks the payload back into 0/1 components. The result length
// is always a multiple of 32: padding bits decode as zeros.
func (s *BitHamming) DecodeVec(o *Object) []int32 {
	words := Components[int32](o)
	vec := make([]int32, len(words)*wordBits)
	for i := range vec {
		vec[i] = (words[i/wordBits] >> (i % wordBits)) & 1
	}
	return vec
}
