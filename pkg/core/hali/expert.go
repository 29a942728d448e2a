package hali

import (
	"hali/pkg/common"
	"hali/pkg/core/structure"
)

// ExpertKind identifies the representation installed on a partition.
type ExpertKind int

const (
	KindPLS ExpertKind = iota
	KindRLM
	KindOT
)

func (k ExpertKind) String() string {
	switch k {
	case KindPLS:
		return "PLS"
	case KindRLM:
		return "RLM"
	case KindOT:
		return "OT"
	}
	return "unknown"
}

// expert is the read-only contract a partition's representation satisfies.
// Partitions are immutable after build, so this is all routing ever needs.
type expert interface {
	Find(key common.KeyType) (common.ValueType, bool)
	MemoryBytes() int
}

// partition is one disjoint key-range slice of the static tier.
type partition struct {
	kind   ExpertKind
	expert expert
	bloom  *structure.BloomFilter

	assignedLo common.KeyType // router boundary
	minKey     common.KeyType // smallest stored key (undefined when empty)
	maxKey     common.KeyType // largest stored key (undefined when empty)
	count      int
}

// ExpertInfo is the diagnostic view of one partition.
type ExpertInfo struct {
	Kind       ExpertKind
	Keys       int
	AssignedLo common.KeyType
	MinKey     common.KeyType
	MaxKey     common.KeyType
}
