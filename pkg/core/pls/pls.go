// Package pls implements the piecewise-linear segment index: a minimal set
// of linear segments approximating the position function of a sorted key
// sequence, each accurate to within ErrorBound positions.
package pls

import (
	"math"

	"hali/pkg/common"
)

// ErrorBound is the per-segment prediction error guarantee. Every lookup
// corrects the predicted position inside a ±ErrorBound window.
const ErrorBound = 64

type segment struct {
	firstKey  common.KeyType
	slope     float64
	intercept float64
}

func (s segment) predict(key common.KeyType) float64 {
	return s.slope*float64(key) + s.intercept
}

// Index is a static learned index over a sorted key array. Post-build
// inserts land in a side buffer; the static tier is immutable.
type Index struct {
	keys     []common.KeyType
	values   []common.ValueType
	segments []segment
	buffer   map[common.KeyType]common.ValueType
}

func New() *Index {
	return &Index{buffer: make(map[common.KeyType]common.ValueType)}
}

// FromSorted constructs the segment cover over an already sorted, duplicate-
// free key sequence. The caller guarantees ordering.
func FromSorted(keys []common.KeyType, values []common.ValueType) *Index {
	idx := New()
	idx.keys = keys
	idx.values = values
	idx.segments = buildSegments(keys)
	return idx
}

func (idx *Index) Build(keys []common.KeyType, values []common.ValueType) error {
	sortedKeys, sortedValues, err := common.SortedRecords(keys, values)
	if err != nil {
		return err
	}
	idx.Clear()
	idx.keys = sortedKeys
	idx.values = sortedValues
	idx.segments = buildSegments(sortedKeys)
	return nil
}

// buildSegments runs a single-pass shrinking-cone sweep: it keeps the
// interval of slopes under which every point seen so far stays within
// ErrorBound of its true position, and closes the segment when that interval
// empties. Output is O(p/ErrorBound) segments on typical data.
func buildSegments(keys []common.KeyType) []segment {
	if len(keys) == 0 {
		return nil
	}

	var segments []segment

	start := 0
	x0 := float64(keys[0])
	slopeLo := math.Inf(-1)
	slopeHi := math.Inf(1)

	emit := func() {
		s := segment{firstKey: keys[start]}
		if !math.IsInf(slopeLo, 0) && !math.IsInf(slopeHi, 0) {
			s.slope = (slopeLo + slopeHi) / 2
		}
		// predict(k) = slope*(k - x0) + start
		s.intercept = float64(start) - s.slope*x0
		segments = append(segments, s)
	}

	for i := start + 1; i < len(keys); i++ {
		dx := float64(keys[i]) - x0
		dy := float64(i - start)

		lo := (dy - ErrorBound) / dx
		hi := (dy + ErrorBound) / dx
		if lo < slopeLo {
			lo = slopeLo
		}
		if hi > slopeHi {
			hi = slopeHi
		}

		if lo > hi {
			// The corridor emptied: the running segment cannot absorb
			// keys[i] within ErrorBound. Emit it and restart here.
			emit()
			start = i
			x0 = float64(keys[i])
			slopeLo = math.Inf(-1)
			slopeHi = math.Inf(1)
		} else {
			slopeLo = lo
			slopeHi = hi
		}
	}
	emit()

	return segments
}

// findSegment locates the last segment whose firstKey is <= key.
func (idx *Index) findSegment(key common.KeyType) segment {
	lo, hi := 0, len(idx.segments)
	for lo < hi {
		mid := (lo + hi) / 2
		if idx.segments[mid].firstKey <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return idx.segments[0]
	}
	return idx.segments[lo-1]
}

func (idx *Index) Find(key common.KeyType) (common.ValueType, bool) {
	if len(idx.keys) > 0 {
		seg := idx.findSegment(key)
		pred := seg.predict(key)

		pos := int(pred)
		if pred < 0 {
			pos = 0
		}
		if pos > len(idx.keys)-1 {
			pos = len(idx.keys) - 1
		}

		if i, ok := common.BoundedSearch(idx.keys, key, pos, ErrorBound); ok {
			return idx.values[i], true
		}
	}

	val, ok := idx.buffer[key]
	return val, ok
}

func (idx *Index) Insert(key common.KeyType, value common.ValueType) bool {
	if _, ok := idx.Find(key); ok {
		return false
	}
	idx.buffer[key] = value
	return true
}

// Erase removes post-build inserts only; static-tier keys are immutable.
func (idx *Index) Erase(key common.KeyType) bool {
	if _, ok := idx.buffer[key]; ok {
		delete(idx.buffer, key)
		return true
	}
	return false
}

func (idx *Index) Len() int {
	return len(idx.keys) + len(idx.buffer)
}

// Segments reports the segment count, for diagnostics.
func (idx *Index) Segments() int {
	return len(idx.segments)
}

func (idx *Index) MemoryBytes() int {
	return len(idx.keys)*8 + len(idx.values)*8 +
		len(idx.segments)*24 + len(idx.buffer)*16
}

func (idx *Index) Name() string {
	return "PLS"
}

func (idx *Index) Clear() {
	idx.keys = nil
	idx.values = nil
	idx.segments = nil
	idx.buffer = make(map[common.KeyType]common.ValueType)
}
