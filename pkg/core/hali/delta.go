package hali

import (
	"hali/pkg/common"
	"hali/pkg/core/ot"
)

// deltaBuffer absorbs every write after build. Reads give it total
// precedence over the static tier.
type deltaBuffer interface {
	insert(key common.KeyType, value common.ValueType)
	find(key common.KeyType) (common.ValueType, bool)
	erase(key common.KeyType) bool
	len() int
	memoryBytes() int
}

// hashDelta is the speed-leaning variant (compression < 0.5): an unordered
// map with O(1) point operations.
type hashDelta map[common.KeyType]common.ValueType

func (d hashDelta) insert(key common.KeyType, value common.ValueType) {
	d[key] = value
}

func (d hashDelta) find(key common.KeyType) (common.ValueType, bool) {
	val, ok := d[key]
	return val, ok
}

func (d hashDelta) erase(key common.KeyType) bool {
	if _, ok := d[key]; ok {
		delete(d, key)
		return true
	}
	return false
}

func (d hashDelta) len() int { return len(d) }

func (d hashDelta) memoryBytes() int {
	// Hash-table slot overhead on top of the 16-byte entry.
	return len(d) * 21
}

// orderedDelta is the memory-leaning variant (compression >= 0.5): an OT,
// which keeps the buffer mergeable into the static tier in key order.
type orderedDelta struct {
	tree *ot.Index
}

func newOrderedDelta() *orderedDelta {
	return &orderedDelta{tree: ot.New()}
}

func (d *orderedDelta) insert(key common.KeyType, value common.ValueType) {
	d.tree.Insert(key, value)
}

func (d *orderedDelta) find(key common.KeyType) (common.ValueType, bool) {
	return d.tree.Find(key)
}

func (d *orderedDelta) erase(key common.KeyType) bool {
	return d.tree.Erase(key)
}

func (d *orderedDelta) len() int { return d.tree.Len() }

func (d *orderedDelta) memoryBytes() int { return d.tree.MemoryBytes() }
