// Package rlm implements the 2-layer recursive linear model index: a root
// linear regressor routes a key to one of L leaf regressors, the chosen leaf
// predicts a position, and a bounded window search confirms the key.
package rlm

import (
	"hali/pkg/common"
	"hali/pkg/model"
)

// ErrorBound is the half-width of the correction window around the leaf
// prediction. When the prediction error exceeds it, Find falls back to a
// full-width search, so a present key is still found.
const ErrorBound = 64

// DefaultLeaves is the leaf count for the standalone baseline. Expert usage
// inside HALI passes 1.
const DefaultLeaves = 100

type Index struct {
	root      model.LinearModel
	leaves    []model.LinearModel
	numLeaves int

	keys   []common.KeyType
	values []common.ValueType
	buffer map[common.KeyType]common.ValueType
}

func New(leaves int) *Index {
	if leaves < 1 {
		leaves = 1
	}
	return &Index{
		numLeaves: leaves,
		buffer:    make(map[common.KeyType]common.ValueType),
	}
}

// FromSorted trains the model stack over an already sorted, duplicate-free
// key sequence. The caller guarantees ordering.
func FromSorted(keys []common.KeyType, values []common.ValueType, leaves int) *Index {
	idx := New(leaves)
	idx.keys = keys
	idx.values = values
	idx.train()
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
	idx.train()
	return nil
}

func (idx *Index) train() {
	if len(idx.keys) == 0 {
		return
	}

	idx.leaves = make([]model.LinearModel, idx.numLeaves)

	// Layer 1: map each key to its proportional leaf slot and fit the root
	// regressor against that assignment.
	targets := make([]int, len(idx.keys))
	for i := range idx.keys {
		targets[i] = i * idx.numLeaves / len(idx.keys)
	}
	idx.root.TrainWithPos(idx.keys, targets)

	// Layer 2: partition keys by the root's own routing so that training and
	// prediction agree, then fit each leaf against global positions.
	leafKeys := make([][]common.KeyType, idx.numLeaves)
	leafPositions := make([][]int, idx.numLeaves)
	for i, key := range idx.keys {
		leaf := idx.root.Predict(key, idx.numLeaves-1)
		leafKeys[leaf] = append(leafKeys[leaf], key)
		leafPositions[leaf] = append(leafPositions[leaf], i)
	}
	for l := 0; l < idx.numLeaves; l++ {
		if len(leafKeys[l]) > 0 {
			idx.leaves[l].TrainWithPos(leafKeys[l], leafPositions[l])
		}
	}
}

func (idx *Index) predictPosition(key common.KeyType) int {
	leaf := idx.root.Predict(key, idx.numLeaves-1)
	return idx.leaves[leaf].Predict(key, len(idx.keys)-1)
}

func (idx *Index) Find(key common.KeyType) (common.ValueType, bool) {
	if len(idx.keys) > 0 {
		pos := idx.predictPosition(key)
		if i, ok := common.BoundedSearch(idx.keys, key, pos, ErrorBound); ok {
			return idx.values[i], true
		}
		// Backstop: when the model mispredicts by more than ErrorBound, fall
		// back to a full-width search so a present key is never missed.
		if key >= idx.keys[0] && key <= idx.keys[len(idx.keys)-1] {
			if i, ok := common.BoundedSearch(idx.keys, key, len(idx.keys)/2, len(idx.keys)); ok {
				return idx.values[i], true
			}
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

func (idx *Index) MemoryBytes() int {
	return len(idx.keys)*8 + len(idx.values)*8 +
		(1+len(idx.leaves))*16 + len(idx.buffer)*16
}

func (idx *Index) Name() string {
	return "RLM"
}

func (idx *Index) Clear() {
	idx.root = model.LinearModel{}
	idx.leaves = nil
	idx.keys = nil
	idx.values = nil
	idx.buffer = make(map[common.KeyType]common.ValueType)
}
