package common

import (
	"errors"
	"sort"
)

// Build errors. All other index outcomes (key already present, key absent,
// empty index) travel through return values.
var (
	ErrInputLengthMismatch = errors.New("keys and values length mismatch")
	ErrDuplicateKey        = errors.New("duplicate key in build input")
)

// SortedRecords validates a build input and returns the pairs sorted by key.
// It fails with ErrInputLengthMismatch or ErrDuplicateKey without touching
// the inputs, so callers can validate before clearing prior state.
func SortedRecords(keys []KeyType, values []ValueType) ([]KeyType, []ValueType, error) {
	if len(keys) != len(values) {
		return nil, nil, ErrInputLengthMismatch
	}
	if len(keys) == 0 {
		return nil, nil, nil
	}

	records := make([]Record, len(keys))
	for i := range keys {
		records[i] = Record{Key: keys[i], Value: values[i]}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})

	sortedKeys := make([]KeyType, len(records))
	sortedValues := make([]ValueType, len(records))
	for i, rec := range records {
		if i > 0 && rec.Key == records[i-1].Key {
			return nil, nil, ErrDuplicateKey
		}
		sortedKeys[i] = rec.Key
		sortedValues[i] = rec.Value
	}
	return sortedKeys, sortedValues, nil
}
