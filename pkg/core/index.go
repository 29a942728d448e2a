package core

import (
	"hali/pkg/common"
	"hali/pkg/core/hali"
	"hali/pkg/core/ot"
	"hali/pkg/core/pls"
	"hali/pkg/core/rlm"
)

// Index is the contract shared by HALI and the standalone expert indexes
// (PLS, RLM, OT), so embedders can compare them through one surface.
//
// Build loads the full initial key set, clearing any prior state first; it
// fails with common.ErrInputLengthMismatch or common.ErrDuplicateKey.
// Find reports (value, true) iff the key is present. Insert returns true iff
// the key was newly inserted; a present key leaves the index unchanged.
// Erase returns whether it removed the key. HALI, PLS and RLM remove
// post-build inserts only; OT is fully mutable and removes any key.
type Index interface {
	Build(keys []common.KeyType, values []common.ValueType) error
	Find(key common.KeyType) (common.ValueType, bool)
	Insert(key common.KeyType, value common.ValueType) bool
	Erase(key common.KeyType) bool
	Len() int
	MemoryBytes() int
	Name() string
	Clear()
}

// Every index kind is usable standalone through the same surface.
var (
	_ Index = (*hali.Index)(nil)
	_ Index = (*pls.Index)(nil)
	_ Index = (*rlm.Index)(nil)
	_ Index = (*ot.Index)(nil)
)
