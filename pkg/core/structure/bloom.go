package structure

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"hali/pkg/common"
)

// BloomFilter is a fixed-size membership sieve. Contains never reports a
// false negative: a false answer means the key was never added.
//
// Probe positions come from double hashing: a 128-bit hash basis (h1, h2) is
// derived from xxhash64 over the key bytes, h2 by reseeding with h1, and
// probe i lands at (h1 + i*h2) mod m.
type BloomFilter struct {
	bits  []uint64
	m     uint64 // total bits, multiple of 64
	k     uint64 // hash probes per key
	count uint64 // keys added
}

// NewBloomFilter sizes the filter for the expected key count at the given
// bits-per-key budget. 10 bits/key gives roughly a 1% false positive rate.
func NewBloomFilter(expected int, bitsPerKey int) *BloomFilter {
	if expected < 1 {
		expected = 1
	}
	if bitsPerKey < 1 {
		bitsPerKey = 1
	}

	m := uint64(expected) * uint64(bitsPerKey)
	m = (m + 63) / 64 * 64

	// Optimal k = bits_per_key * ln 2.
	k := uint64(math.Round(float64(bitsPerKey) * math.Ln2))
	if k < 1 {
		k = 1
	}

	return &BloomFilter{
		bits: make([]uint64, m/64),
		m:    m,
		k:    k,
	}
}

func (bf *BloomFilter) Add(key common.KeyType) {
	h1, h2 := hashPair(key)
	for i := uint64(0); i < bf.k; i++ {
		pos := (h1 + i*h2) % bf.m
		bf.bits[pos/64] |= 1 << (pos % 64)
	}
	bf.count++
}

func (bf *BloomFilter) Contains(key common.KeyType) bool {
	h1, h2 := hashPair(key)
	for i := uint64(0); i < bf.k; i++ {
		pos := (h1 + i*h2) % bf.m
		if bf.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

func (bf *BloomFilter) Clear() {
	for i := range bf.bits {
		bf.bits[i] = 0
	}
	bf.count = 0
}

// MemoryBytes reports the bit-array size.
func (bf *BloomFilter) MemoryBytes() int {
	return len(bf.bits) * 8
}

// FalsePositiveRate reports the theoretical FPR at the current load:
// (1 - e^(-kn/m))^k.
func (bf *BloomFilter) FalsePositiveRate() float64 {
	if bf.count == 0 {
		return 0
	}
	exp := -float64(bf.k*bf.count) / float64(bf.m)
	return math.Pow(1-math.Exp(exp), float64(bf.k))
}

func (bf *BloomFilter) NumBits() uint64   { return bf.m }
func (bf *BloomFilter) NumHashes() uint64 { return bf.k }
func (bf *BloomFilter) Count() uint64     { return bf.count }

// hashPair derives the double-hashing basis for a key. h1 hashes the raw key
// bytes; h2 rehashes the key bytes with h1 appended, which reseeds the hash
// without needing a seeded xxhash variant.
func hashPair(key common.KeyType) (uint64, uint64) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(key))

	h1 := xxhash.Sum64(buf[:8])
	binary.LittleEndian.PutUint64(buf[8:], h1)
	h2 := xxhash.Sum64(buf[:])
	return h1, h2
}
