// Package hali implements the hierarchical adaptive learned index: a binary-
// search router over disjoint key ranges, one expert model per range chosen
// from data statistics, a Bloom hierarchy for negative lookups, and a
// write-through delta buffer.
package hali

import (
	"fmt"
	"sort"

	"hali/pkg/common"
	"hali/pkg/core/structure"
)

// Index is the composed index. The static tier (router, partitions, Bloom
// filters) is frozen at Build; the delta buffer is the only mutable state.
// Operations require exclusive access; callers serialize.
type Index struct {
	compression float64

	// boundaries[i] is partition i's assigned lower bound; boundaries[m] is
	// a sentinel strictly above every stored key (saturated at MaxInt64 when
	// necessary, flagged by noUpperSentinel).
	boundaries      []common.KeyType
	parts           []*partition
	globalBloom     *structure.BloomFilter
	delta           deltaBuffer
	nStatic         int
	noUpperSentinel bool
}

// New creates an empty index. The compression level c in [0, 1] biases every
// adaptive choice: 0 favors lookup speed, 1 favors memory.
func New(compression float64) *Index {
	if compression < 0 {
		compression = 0
	}
	if compression > 1 {
		compression = 1
	}
	idx := &Index{compression: compression}
	idx.delta = idx.newDelta()
	return idx
}

func (idx *Index) newDelta() deltaBuffer {
	if idx.compression < 0.5 {
		return make(hashDelta)
	}
	return newOrderedDelta()
}

// Find consults, in order: the delta buffer, the global Bloom filter, the
// router, the routed partition's Bloom filter, and finally the expert.
func (idx *Index) Find(key common.KeyType) (common.ValueType, bool) {
	if val, ok := idx.delta.find(key); ok {
		return val, true
	}

	if idx.nStatic == 0 {
		return 0, false
	}

	if !idx.globalBloom.Contains(key) {
		return 0, false
	}

	part := idx.parts[idx.route(key)]
	if part.count == 0 {
		return 0, false
	}

	if !part.bloom.Contains(key) {
		// A sound Bloom filter cannot answer false here for a stored key, so
		// normally the key is absent. The range check guards the one way a
		// broken filter could manufacture a false negative.
		if key < part.minKey || key > part.maxKey {
			return 0, false
		}
	}

	return part.expert.Find(key)
}

// Insert places the pair in the delta buffer. It returns false, changing
// nothing, when the key is already present in either tier.
func (idx *Index) Insert(key common.KeyType, value common.ValueType) bool {
	if _, ok := idx.Find(key); ok {
		return false
	}
	idx.delta.insert(key, value)
	return true
}

// Erase removes the key from the delta buffer only. Static-tier keys cannot
// be removed; for those it returns false.
func (idx *Index) Erase(key common.KeyType) bool {
	return idx.delta.erase(key)
}

// route returns the index of the unique partition whose assigned range
// contains key: the largest i with boundaries[i] <= key. Keys below the
// first boundary resolve to partition 0; the global Bloom filter has already
// rejected them, but routing stays total.
func (idx *Index) route(key common.KeyType) int {
	m := len(idx.parts)
	j := sort.Search(m, func(i int) bool {
		return idx.boundaries[i] > key
	}) - 1
	if j < 0 {
		return 0
	}
	if j > m-1 {
		return m - 1
	}
	return j
}

func (idx *Index) Len() int {
	return idx.nStatic + idx.delta.len()
}

func (idx *Index) MemoryBytes() int {
	total := len(idx.boundaries) * 8
	for _, part := range idx.parts {
		total += part.expert.MemoryBytes()
		total += part.bloom.MemoryBytes()
	}
	if idx.globalBloom != nil {
		total += idx.globalBloom.MemoryBytes()
	}
	total += idx.delta.memoryBytes()
	return total
}

func (idx *Index) Name() string {
	return fmt.Sprintf("HALI(c=%.2f)", idx.compression)
}

// Clear returns the index to its freshly constructed state, keeping the
// compression level.
func (idx *Index) Clear() {
	idx.boundaries = nil
	idx.parts = nil
	idx.globalBloom = nil
	idx.delta = idx.newDelta()
	idx.nStatic = 0
	idx.noUpperSentinel = false
}

// Compression reports the configured compression level.
func (idx *Index) Compression() float64 {
	return idx.compression
}

// NumExperts reports the partition count m.
func (idx *Index) NumExperts() int {
	return len(idx.parts)
}

// DeltaLen reports the delta-buffer population.
func (idx *Index) DeltaLen() int {
	return idx.delta.len()
}

// Boundaries returns a copy of the router boundary array, sentinel included.
func (idx *Index) Boundaries() []common.KeyType {
	out := make([]common.KeyType, len(idx.boundaries))
	copy(out, idx.boundaries)
	return out
}

// Experts returns the diagnostic composition of the static tier.
func (idx *Index) Experts() []ExpertInfo {
	out := make([]ExpertInfo, len(idx.parts))
	for i, part := range idx.parts {
		out[i] = ExpertInfo{
			Kind:       part.kind,
			Keys:       part.count,
			AssignedLo: part.assignedLo,
			MinKey:     part.minKey,
			MaxKey:     part.maxKey,
		}
	}
	return out
}

// GlobalBloom exposes the global filter for white-box checks.
func (idx *Index) GlobalBloom() *structure.BloomFilter {
	return idx.globalBloom
}

// PartitionBloom exposes partition i's filter for white-box checks.
func (idx *Index) PartitionBloom(i int) *structure.BloomFilter {
	return idx.parts[i].bloom
}

// Route exposes the router decision for white-box checks.
func (idx *Index) Route(key common.KeyType) int {
	return idx.route(key)
}
