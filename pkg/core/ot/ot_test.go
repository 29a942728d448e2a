package ot

import (
	"errors"
	"testing"

	"hali/pkg/common"
)

func TestBuildAndFind(t *testing.T) {
	idx := New()
	keys := []common.KeyType{50, 10, 30, 20, 40}
	values := []common.ValueType{500, 100, 300, 200, 400}

	if err := idx.Build(keys, values); err != nil {
		t.Fatalf("build: %v", err)
	}
	if idx.Len() != 5 {
		t.Fatalf("len = %d, want 5", idx.Len())
	}

	for i, key := range keys {
		val, ok := idx.Find(key)
		if !ok || val != values[i] {
			t.Fatalf("Find(%d) = (%d, %v), want (%d, true)", key, val, ok, values[i])
		}
	}
	if _, ok := idx.Find(35); ok {
		t.Fatal("Find(35) should miss")
	}
}

func TestBuildErrors(t *testing.T) {
	idx := New()
	if err := idx.Build([]common.KeyType{1}, nil); !errors.Is(err, common.ErrInputLengthMismatch) {
		t.Fatalf("length mismatch error = %v", err)
	}
	if err := idx.Build([]common.KeyType{1, 1}, []common.ValueType{1, 2}); !errors.Is(err, common.ErrDuplicateKey) {
		t.Fatalf("duplicate error = %v", err)
	}
}

func TestInsertEraseRoundTrip(t *testing.T) {
	idx := New()
	if !idx.Insert(1, 10) {
		t.Fatal("first insert should succeed")
	}
	if idx.Insert(1, 99) {
		t.Fatal("second insert of same key should fail")
	}
	if val, ok := idx.Find(1); !ok || val != 10 {
		t.Fatalf("Find(1) = (%d, %v), first insert must win", val, ok)
	}
	if !idx.Erase(1) {
		t.Fatal("erase should succeed")
	}
	if idx.Erase(1) {
		t.Fatal("second erase should fail")
	}
	if _, ok := idx.Find(1); ok {
		t.Fatal("key present after erase")
	}
}

func TestAscendIsOrdered(t *testing.T) {
	idx := New()
	for _, key := range []common.KeyType{5, 3, 9, 1, 7} {
		idx.Insert(key, common.ValueType(key*10))
	}

	var visited []common.KeyType
	idx.Ascend(func(key common.KeyType, val common.ValueType) bool {
		visited = append(visited, key)
		return true
	})

	want := []common.KeyType{1, 3, 5, 7, 9}
	if len(visited) != len(want) {
		t.Fatalf("visited %d keys, want %d", len(visited), len(want))
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visit order %v, want %v", visited, want)
		}
	}
}

func TestClear(t *testing.T) {
	idx := New()
	idx.Insert(1, 1)
	idx.Clear()
	if idx.Len() != 0 {
		t.Fatalf("len after clear = %d", idx.Len())
	}
	if _, ok := idx.Find(1); ok {
		t.Fatal("key survived clear")
	}
}

func TestName(t *testing.T) {
	if New().Name() != "OT" {
		t.Fatal("unexpected name")
	}
}
