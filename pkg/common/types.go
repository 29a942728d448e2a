package common

import "fmt"

// KeyType is the index key type, a totally-ordered 64-bit integer.
// Keys are unique within one index.
type KeyType int64

// ValueType is the payload type: opaque, fixed-size, trivially copyable.
type ValueType uint64

// Record pairs a key with its value.
type Record struct {
	Key   KeyType
	Value ValueType
}

func (r *Record) String() string {
	return fmt.Sprintf("Record{Key: %d, Value: %d}", r.Key, r.Value)
}
