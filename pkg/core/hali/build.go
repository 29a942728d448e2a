package hali

import (
	"math"

	"hali/pkg/common"
	"hali/pkg/core/ot"
	"hali/pkg/core/pls"
	"hali/pkg/core/rlm"
	"hali/pkg/core/structure"
	"hali/pkg/model"
)

const (
	minExperts = 4

	// Partitions below this population are never worth a learned model.
	smallPartition = 100
)

// Build loads the full initial key set. Input order is free; duplicate keys
// or mismatched lengths fail the build with no state change. On success the
// delta buffer is empty and the static tier is frozen.
func (idx *Index) Build(keys []common.KeyType, values []common.ValueType) error {
	sortedKeys, sortedValues, err := common.SortedRecords(keys, values)
	if err != nil {
		return err
	}

	idx.Clear()
	n := len(sortedKeys)
	if n == 0 {
		return nil
	}

	kMin := sortedKeys[0]
	kMax := sortedKeys[n-1]

	m := idx.expertCount(n)
	if kMin == kMax {
		m = 1
	}

	// Key-range partitioning. The span can exceed int64, so width math runs
	// through uint64 differences and float64; because stored keys are unique,
	// n <= span+1 and therefore width >= 1, which keeps the boundaries
	// strictly increasing.
	span := uint64(kMax) - uint64(kMin)
	width := (float64(span) + 1) / float64(m)

	boundaries := make([]common.KeyType, m+1)
	for i := 0; i < m; i++ {
		off := uint64(math.Floor(float64(i) * width))
		boundaries[i] = common.KeyType(uint64(kMin) + off)
	}
	if kMax == math.MaxInt64 {
		boundaries[m] = kMax
		idx.noUpperSentinel = true
	} else {
		boundaries[m] = kMax + 1
	}

	bitsPerKey := int(math.Round(5 + 10*idx.compression))

	global := structure.NewBloomFilter(n, bitsPerKey)
	for _, key := range sortedKeys {
		global.Add(key)
	}

	// Distribute by the boundary array itself, so placement and routing can
	// never disagree on which partition owns a key. The last partition
	// absorbs everything up to kMax.
	parts := make([]*partition, m)
	pos := 0
	for p := 0; p < m; p++ {
		start := pos
		for pos < n && (p == m-1 || sortedKeys[pos] < boundaries[p+1]) {
			pos++
		}
		parts[p] = idx.buildPartition(boundaries[p], sortedKeys[start:pos], sortedValues[start:pos], bitsPerKey)
	}

	idx.boundaries = boundaries
	idx.parts = parts
	idx.globalBloom = global
	idx.nStatic = n
	return nil
}

// expertCount derives m from the dataset size and the compression level:
// sqrt(n)/100 as the base, scaled into [0.5x, 2x], floored at minExperts,
// and never more experts than keys.
func (idx *Index) expertCount(n int) int {
	base := int(math.Sqrt(float64(n)) / 100)
	if base < minExperts {
		base = minExperts
	}

	scale := 0.5 + 1.5*idx.compression
	m := int(float64(base) * scale)
	if m < minExperts {
		m = minExperts
	}
	if m > n {
		m = n
	}
	return m
}

func (idx *Index) buildPartition(lo common.KeyType, keys []common.KeyType, values []common.ValueType, bitsPerKey int) *partition {
	if len(keys) == 0 {
		// Gap in clustered data. An empty OT keeps expert ids aligned with
		// boundaries; its filter is sized for one key and never consulted.
		return &partition{
			kind:       KindOT,
			expert:     ot.FromSorted(nil, nil),
			bloom:      structure.NewBloomFilter(1, bitsPerKey),
			assignedLo: lo,
		}
	}

	kind := idx.selectKind(keys)

	var ex expert
	switch kind {
	case KindPLS:
		ex = pls.FromSorted(keys, values)
	case KindRLM:
		ex = rlm.FromSorted(keys, values, 1)
	default:
		ex = ot.FromSorted(keys, values)
	}

	bloom := structure.NewBloomFilter(len(keys), bitsPerKey)
	for _, key := range keys {
		bloom.Add(key)
	}

	return &partition{
		kind:       kind,
		expert:     ex,
		bloom:      bloom,
		assignedLo: lo,
		minKey:     keys[0],
		maxKey:     keys[len(keys)-1],
		count:      len(keys),
	}
}

// selectKind picks a partition's representation from its population and
// linearity. Low compression leans on fast exact structures, high
// compression on compact segments; the r² gate keeps learned models off
// data their error bound cannot handle.
func (idx *Index) selectKind(keys []common.KeyType) ExpertKind {
	if len(keys) < smallPartition {
		return KindOT
	}

	r2 := model.Linearity(keys)

	switch {
	case idx.compression < 0.3:
		if r2 > 0.90 {
			return KindRLM
		}
		return KindOT
	case idx.compression > 0.7:
		if r2 > 0.70 {
			return KindPLS
		}
		return KindRLM
	default:
		if r2 > 0.95 {
			return KindPLS
		}
		if r2 > 0.80 {
			return KindRLM
		}
		return KindOT
	}
}
