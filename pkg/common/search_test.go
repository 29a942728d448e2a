package common

import "testing"

func TestBoundedSearchHit(t *testing.T) {
	keys := []KeyType{10, 20, 30, 40, 50, 60, 70}

	for want, key := range keys {
		got, ok := BoundedSearch(keys, key, want, 2)
		if !ok || got != want {
			t.Fatalf("BoundedSearch(%d) = (%d, %v), want (%d, true)", key, got, ok, want)
		}
	}
}

func TestBoundedSearchMissInsideWindow(t *testing.T) {
	keys := []KeyType{10, 20, 30, 40, 50}

	if i, ok := BoundedSearch(keys, 35, 2, 2); ok {
		t.Fatalf("expected miss for absent key 35, got index %d", i)
	}
}

func TestBoundedSearchMissOutsideWindow(t *testing.T) {
	keys := []KeyType{10, 20, 30, 40, 50, 60, 70, 80}

	// Key 80 is at position 7; a radius-1 window around 0 must not see it.
	if i, ok := BoundedSearch(keys, 80, 0, 1); ok {
		t.Fatalf("expected miss outside window, got index %d", i)
	}
}

func TestBoundedSearchSaturatesAtEdges(t *testing.T) {
	keys := []KeyType{10, 20, 30}

	if i, ok := BoundedSearch(keys, 10, -5, 100); !ok || i != 0 {
		t.Fatalf("low-saturated search = (%d, %v), want (0, true)", i, ok)
	}
	if i, ok := BoundedSearch(keys, 30, 99, 100); !ok || i != 2 {
		t.Fatalf("high-saturated search = (%d, %v), want (2, true)", i, ok)
	}
}

func TestBoundedSearchEmpty(t *testing.T) {
	if _, ok := BoundedSearch(nil, 1, 0, 64); ok {
		t.Fatal("expected miss on empty slice")
	}
}

func TestSortedRecordsSortsAndValidates(t *testing.T) {
	keys := []KeyType{30, 10, 20}
	values := []ValueType{3, 1, 2}

	sk, sv, err := SortedRecords(keys, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKeys := []KeyType{10, 20, 30}
	wantValues := []ValueType{1, 2, 3}
	for i := range wantKeys {
		if sk[i] != wantKeys[i] || sv[i] != wantValues[i] {
			t.Fatalf("pos %d = (%d, %d), want (%d, %d)", i, sk[i], sv[i], wantKeys[i], wantValues[i])
		}
	}

	if keys[0] != 30 {
		t.Fatal("input slice must not be reordered")
	}
}

func TestSortedRecordsErrors(t *testing.T) {
	if _, _, err := SortedRecords([]KeyType{1, 2}, []ValueType{1}); err != ErrInputLengthMismatch {
		t.Fatalf("length mismatch error = %v", err)
	}
	if _, _, err := SortedRecords([]KeyType{1, 2, 1}, []ValueType{1, 2, 3}); err != ErrDuplicateKey {
		t.Fatalf("duplicate error = %v", err)
	}
	if sk, sv, err := SortedRecords(nil, nil); err != nil || sk != nil || sv != nil {
		t.Fatalf("empty input should be valid, got (%v, %v, %v)", sk, sv, err)
	}
}
