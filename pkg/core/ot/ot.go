// Package ot implements the ordered trie index: an exact ordered associative
// structure over int64 keys, backed by a B-tree. It serves three roles:
// a standalone baseline index, the expert installed on partitions too small
// or too irregular for a learned model, and the ordered delta-buffer variant.
package ot

import (
	"github.com/google/btree"

	"hali/pkg/common"
)

const treeDegree = 32

// Item is one key/value entry in the tree.
type Item struct {
	Key common.KeyType
	Val common.ValueType
}

func (i Item) Less(than btree.Item) bool {
	return i.Key < than.(Item).Key
}

// Index is an exact ordered index. Unlike the learned kinds it is fully
// mutable: Insert and Erase operate on the whole structure.
type Index struct {
	tree *btree.BTree
}

func New() *Index {
	return &Index{tree: btree.New(treeDegree)}
}

// FromSorted bulk-loads a strictly increasing key sequence. The caller
// guarantees ordering and uniqueness.
func FromSorted(keys []common.KeyType, values []common.ValueType) *Index {
	idx := New()
	for i, key := range keys {
		idx.tree.ReplaceOrInsert(Item{Key: key, Val: values[i]})
	}
	return idx
}

func (idx *Index) Build(keys []common.KeyType, values []common.ValueType) error {
	sortedKeys, sortedValues, err := common.SortedRecords(keys, values)
	if err != nil {
		return err
	}
	idx.Clear()
	for i, key := range sortedKeys {
		idx.tree.ReplaceOrInsert(Item{Key: key, Val: sortedValues[i]})
	}
	return nil
}

func (idx *Index) Find(key common.KeyType) (common.ValueType, bool) {
	res := idx.tree.Get(Item{Key: key})
	if res == nil {
		return 0, false
	}
	return res.(Item).Val, true
}

func (idx *Index) Insert(key common.KeyType, value common.ValueType) bool {
	if idx.tree.Has(Item{Key: key}) {
		return false
	}
	idx.tree.ReplaceOrInsert(Item{Key: key, Val: value})
	return true
}

func (idx *Index) Erase(key common.KeyType) bool {
	return idx.tree.Delete(Item{Key: key}) != nil
}

func (idx *Index) Len() int {
	return idx.tree.Len()
}

// Ascend visits entries in key order until fn returns false.
func (idx *Index) Ascend(fn func(key common.KeyType, val common.ValueType) bool) {
	idx.tree.Ascend(func(i btree.Item) bool {
		item := i.(Item)
		return fn(item.Key, item.Val)
	})
}

// MemoryBytes estimates entry payload plus tree-node overhead.
func (idx *Index) MemoryBytes() int {
	return idx.tree.Len() * (16 + 4)
}

func (idx *Index) Name() string {
	return "OT"
}

func (idx *Index) Clear() {
	idx.tree = btree.New(treeDegree)
}
