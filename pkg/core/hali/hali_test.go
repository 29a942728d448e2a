package hali

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"hali/pkg/common"
)

func buildIndex(t *testing.T, keys []common.KeyType, values []common.ValueType, c float64) *Index {
	t.Helper()
	idx := New(c)
	if err := idx.Build(keys, values); err != nil {
		t.Fatalf("build (c=%.2f, n=%d): %v", c, len(keys), err)
	}
	return idx
}

func sequentialKeys(n int) ([]common.KeyType, []common.ValueType) {
	keys := make([]common.KeyType, n)
	values := make([]common.ValueType, n)
	for i := 0; i < n; i++ {
		keys[i] = common.KeyType(i + 1)
		values[i] = common.ValueType(i + 1)
	}
	return keys, values
}

func uniformKeys(n int, seed int64) ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
	rng := rand.New(rand.NewSource(seed))
	seen := make(map[common.KeyType]common.ValueType, n)
	keys := make([]common.KeyType, 0, n)
	values := make([]common.ValueType, 0, n)
	for len(keys) < n {
		key := common.KeyType(rng.Uint64())
		if _, dup := seen[key]; dup {
			continue
		}
		val := common.ValueType(len(keys))
		seen[key] = val
		keys = append(keys, key)
		values = append(values, val)
	}
	return keys, values, seen
}

func clusteredKeys(n int, clusters int, gap, sigma float64, seed int64) ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
	rng := rand.New(rand.NewSource(seed))
	seen := make(map[common.KeyType]common.ValueType, n)
	keys := make([]common.KeyType, 0, n)
	values := make([]common.ValueType, 0, n)
	perCluster := n / clusters
	for c := 0; c < clusters; c++ {
		center := float64(c) * gap
		count := 0
		for count < perCluster {
			key := common.KeyType(center + rng.NormFloat64()*sigma)
			if _, dup := seen[key]; dup {
				continue
			}
			val := common.ValueType(len(keys))
			seen[key] = val
			keys = append(keys, key)
			values = append(values, val)
			count++
		}
	}
	return keys, values, seen
}

func lognormalKeys(n int, seed int64) ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
	rng := rand.New(rand.NewSource(seed))
	seen := make(map[common.KeyType]common.ValueType, n)
	keys := make([]common.KeyType, 0, n)
	values := make([]common.ValueType, 0, n)
	for len(keys) < n {
		key := common.KeyType(math.Exp(12 + 2*rng.NormFloat64()))
		if _, dup := seen[key]; dup {
			continue
		}
		val := common.ValueType(len(keys))
		seen[key] = val
		keys = append(keys, key)
		values = append(values, val)
	}
	return keys, values, seen
}

// verifyAll checks P1 (every built pair findable) and P2 (sampled negatives
// miss) against the generating map.
func verifyAll(t *testing.T, idx *Index, seen map[common.KeyType]common.ValueType, seed int64) {
	t.Helper()
	for key, want := range seen {
		val, ok := idx.Find(key)
		if !ok || val != want {
			t.Fatalf("%s: Find(%d) = (%d, %v), want (%d, true)", idx.Name(), key, val, ok, want)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	probes := 0
	for probes < 10000 {
		probe := common.KeyType(rng.Uint64())
		if _, present := seen[probe]; present {
			continue
		}
		if val, ok := idx.Find(probe); ok {
			t.Fatalf("%s: false positive Find(%d) = %d", idx.Name(), probe, val)
		}
		probes++
	}
}

func TestScenarioSmallBuild(t *testing.T) {
	keys := []common.KeyType{10, 20, 30, 40, 50}
	values := []common.ValueType{100, 200, 300, 400, 500}
	idx := buildIndex(t, keys, values, 0.5)

	if val, ok := idx.Find(30); !ok || val != 300 {
		t.Fatalf("Find(30) = (%d, %v), want (300, true)", val, ok)
	}
	if _, ok := idx.Find(35); ok {
		t.Fatal("Find(35) should miss")
	}
	if idx.Len() != 5 {
		t.Fatalf("Len = %d, want 5", idx.Len())
	}
}

func TestScenarioInsertOverBuild(t *testing.T) {
	keys := []common.KeyType{10, 20, 30, 40, 50}
	values := []common.ValueType{100, 200, 300, 400, 500}
	idx := buildIndex(t, keys, values, 0.5)

	if !idx.Insert(35, 350) {
		t.Fatal("Insert(35) should succeed")
	}
	if val, ok := idx.Find(35); !ok || val != 350 {
		t.Fatalf("Find(35) = (%d, %v), want (350, true)", val, ok)
	}
	if idx.Len() != 6 {
		t.Fatalf("Len = %d, want 6", idx.Len())
	}

	if idx.Insert(30, 999) {
		t.Fatal("Insert(30) should fail, key is in the static tier")
	}
	if val, ok := idx.Find(30); !ok || val != 300 {
		t.Fatalf("Find(30) = (%d, %v), static value must survive", val, ok)
	}
}

func TestScenarioSequential100k(t *testing.T) {
	keys, values := sequentialKeys(100000)
	idx := buildIndex(t, keys, values, 0.0)

	for i := range keys {
		val, ok := idx.Find(keys[i])
		if !ok || val != values[i] {
			t.Fatalf("Find(%d) = (%d, %v), want (%d, true)", keys[i], val, ok, values[i])
		}
	}
	if _, ok := idx.Find(0); ok {
		t.Fatal("Find(0) should miss")
	}
	if _, ok := idx.Find(100001); ok {
		t.Fatal("Find(100001) should miss")
	}

	// Perfectly even spacing: every populated partition should carry a
	// learned expert, not an OT.
	for i, info := range idx.Experts() {
		if info.Keys >= 100 && info.Kind == KindOT {
			t.Fatalf("partition %d: OT chosen for %d perfectly linear keys", i, info.Keys)
		}
	}
}

func TestScenarioClustered(t *testing.T) {
	for _, c := range []float64{0.0, 0.5, 1.0} {
		keys, values, seen := clusteredKeys(5000, 5, 1e9, 1e5, 99)
		idx := buildIndex(t, keys, values, c)

		for key, want := range seen {
			val, ok := idx.Find(key)
			if !ok || val != want {
				t.Fatalf("c=%.1f: Find(%d) = (%d, %v), want (%d, true)", c, key, val, ok, want)
			}
		}
		if _, ok := idx.Find(5e8); ok {
			t.Fatalf("c=%.1f: Find(5e8) should miss, it falls in a gap", c)
		}
		if idx.Len() != 5000 {
			t.Fatalf("c=%.1f: Len = %d, want 5000", c, idx.Len())
		}
	}
}

func TestScenarioUniformRandomHighCompression(t *testing.T) {
	keys, values, seen := uniformKeys(10000, 5)
	idx := buildIndex(t, keys, values, 1.0)
	verifyAll(t, idx, seen, 6)
}

func TestScenarioEmptyBuild(t *testing.T) {
	idx := New(0.5)
	if err := idx.Build(nil, nil); err != nil {
		t.Fatalf("empty build: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("Len = %d, want 0", idx.Len())
	}
	if _, ok := idx.Find(42); ok {
		t.Fatal("Find(42) on empty index should miss")
	}

	if !idx.Insert(42, 7) {
		t.Fatal("Insert(42) should succeed")
	}
	if val, ok := idx.Find(42); !ok || val != 7 {
		t.Fatalf("Find(42) = (%d, %v), want (7, true)", val, ok)
	}
	if !idx.Erase(42) {
		t.Fatal("Erase(42) should succeed")
	}
	if _, ok := idx.Find(42); ok {
		t.Fatal("Find(42) should miss after erase")
	}
}

func TestEraseSemantics(t *testing.T) {
	keys := []common.KeyType{1, 2, 3}
	values := []common.ValueType{10, 20, 30}
	idx := buildIndex(t, keys, values, 0.5)

	idx.Insert(4, 40)
	if !idx.Erase(4) {
		t.Fatal("post-build key should be erasable")
	}
	if _, ok := idx.Find(4); ok {
		t.Fatal("erased key still findable")
	}

	if idx.Erase(2) {
		t.Fatal("static-tier key must not be erasable")
	}
	if val, ok := idx.Find(2); !ok || val != 20 {
		t.Fatalf("Find(2) = (%d, %v) after failed erase", val, ok)
	}
}

func TestBuildErrorsLeaveStateIntact(t *testing.T) {
	keys := []common.KeyType{10, 20, 30}
	values := []common.ValueType{1, 2, 3}
	idx := buildIndex(t, keys, values, 0.5)

	err := idx.Build([]common.KeyType{5, 5}, []common.ValueType{1, 2})
	if !errors.Is(err, common.ErrDuplicateKey) {
		t.Fatalf("duplicate build error = %v", err)
	}
	err = idx.Build([]common.KeyType{5}, nil)
	if !errors.Is(err, common.ErrInputLengthMismatch) {
		t.Fatalf("mismatch build error = %v", err)
	}

	// The failed builds must not have disturbed the previous state.
	if val, ok := idx.Find(20); !ok || val != 2 {
		t.Fatalf("Find(20) = (%d, %v) after failed rebuilds", val, ok)
	}
	if idx.Len() != 3 {
		t.Fatalf("Len = %d after failed rebuilds", idx.Len())
	}
}

func TestRebuildClearsFirst(t *testing.T) {
	idx := buildIndex(t, []common.KeyType{1, 2}, []common.ValueType{1, 2}, 0.5)
	idx.Insert(100, 100)

	if err := idx.Build([]common.KeyType{7, 8}, []common.ValueType{70, 80}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, ok := idx.Find(1); ok {
		t.Fatal("old static key survived rebuild")
	}
	if _, ok := idx.Find(100); ok {
		t.Fatal("old delta key survived rebuild")
	}
	if val, ok := idx.Find(7); !ok || val != 70 {
		t.Fatalf("Find(7) = (%d, %v)", val, ok)
	}
}

func TestRouterInvariant(t *testing.T) {
	keys, values, _ := uniformKeys(50000, 17)
	idx := buildIndex(t, keys, values, 0.5)

	boundaries := idx.Boundaries()
	experts := idx.Experts()
	if len(boundaries) != len(experts)+1 {
		t.Fatalf("boundaries = %d, experts = %d", len(boundaries), len(experts))
	}

	for i := 0; i < len(boundaries)-1; i++ {
		if boundaries[i] >= boundaries[i+1] {
			t.Fatalf("boundaries not strictly increasing at %d: %d >= %d", i, boundaries[i], boundaries[i+1])
		}
	}

	for i, info := range experts {
		if info.AssignedLo != boundaries[i] {
			t.Fatalf("partition %d assigned_lo %d != boundary %d", i, info.AssignedLo, boundaries[i])
		}
		if info.Keys == 0 {
			continue
		}
		if info.MinKey < boundaries[i] || info.MaxKey >= boundaries[i+1] {
			t.Fatalf("partition %d stores [%d, %d] outside [%d, %d)", i, info.MinKey, info.MaxKey, boundaries[i], boundaries[i+1])
		}
	}
}

func TestRoutingMatchesPlacement(t *testing.T) {
	keys, values, _ := clusteredKeys(5000, 5, 1e9, 1e5, 31)
	idx := buildIndex(t, keys, values, 1.0)

	boundaries := idx.Boundaries()
	for _, key := range keys {
		j := idx.Route(key)
		if key < boundaries[j] || (j+1 < len(boundaries) && key >= boundaries[j+1]) {
			t.Fatalf("Route(%d) = %d, outside [%d, %d)", key, j, boundaries[j], boundaries[j+1])
		}
	}
}

func TestBloomConsistency(t *testing.T) {
	keys, values, _ := uniformKeys(20000, 29)
	idx := buildIndex(t, keys, values, 0.5)

	for _, key := range keys {
		if !idx.GlobalBloom().Contains(key) {
			t.Fatalf("global bloom missing built key %d", key)
		}
		if !idx.PartitionBloom(idx.Route(key)).Contains(key) {
			t.Fatalf("partition bloom missing built key %d", key)
		}
	}
}

func TestCompressionMonotonicity(t *testing.T) {
	keys, values, _ := uniformKeys(100000, 41)

	prevExperts := 0
	memAtZero := 0
	for _, c := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		idx := buildIndex(t, keys, values, c)
		if idx.NumExperts() < prevExperts {
			t.Fatalf("expert count dropped from %d to %d at c=%.2f", prevExperts, idx.NumExperts(), c)
		}
		prevExperts = idx.NumExperts()

		if c == 0.0 {
			memAtZero = idx.MemoryBytes()
		} else if idx.MemoryBytes() > memAtZero*4 {
			t.Fatalf("memory at c=%.2f (%d) blew past c=0 (%d)", c, idx.MemoryBytes(), memAtZero)
		}
	}
}

func TestDistributions(t *testing.T) {
	type dataset struct {
		name string
		gen  func() ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType)
	}

	datasets := []dataset{
		{"sequential", func() ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
			keys, values := sequentialKeys(20000)
			seen := make(map[common.KeyType]common.ValueType, len(keys))
			for i := range keys {
				seen[keys[i]] = values[i]
			}
			return keys, values, seen
		}},
		{"uniform", func() ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
			return uniformKeys(20000, 53)
		}},
		{"clustered", func() ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
			return clusteredKeys(20000, 5, 1e9, 1e5, 59)
		}},
		{"lognormal", func() ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
			return lognormalKeys(20000, 61)
		}},
		{"single", func() ([]common.KeyType, []common.ValueType, map[common.KeyType]common.ValueType) {
			return []common.KeyType{77}, []common.ValueType{770},
				map[common.KeyType]common.ValueType{77: 770}
		}},
	}

	for _, ds := range datasets {
		t.Run(ds.name, func(t *testing.T) {
			keys, values, seen := ds.gen()
			idx := buildIndex(t, keys, values, 0.5)
			verifyAll(t, idx, seen, 67)

			// Insert/erase round-trip on top of each distribution.
			fresh := common.KeyType(-424242)
			if _, present := seen[fresh]; present {
				t.Fatal("probe key collides with dataset")
			}
			if !idx.Insert(fresh, 1) {
				t.Fatal("insert of fresh key failed")
			}
			if idx.Insert(fresh, 2) {
				t.Fatal("duplicate insert succeeded")
			}
			if val, ok := idx.Find(fresh); !ok || val != 1 {
				t.Fatalf("first-insert-wins violated: (%d, %v)", val, ok)
			}
			if !idx.Erase(fresh) {
				t.Fatal("erase of fresh key failed")
			}
			if _, ok := idx.Find(fresh); ok {
				t.Fatal("key present after erase")
			}
		})
	}
}

func TestDeltaBufferVariants(t *testing.T) {
	keys := []common.KeyType{100, 200, 300}
	values := []common.ValueType{1, 2, 3}

	// Below 0.5 the delta is a hash map, at or above it an ordered tree;
	// behavior must be identical either way.
	for _, c := range []float64{0.2, 0.8} {
		idx := buildIndex(t, keys, values, c)
		for i := common.KeyType(0); i < 1000; i++ {
			if !idx.Insert(1000+i, common.ValueType(i)) {
				t.Fatalf("c=%.1f: insert %d failed", c, 1000+i)
			}
		}
		if idx.Len() != 1003 {
			t.Fatalf("c=%.1f: Len = %d, want 1003", c, idx.Len())
		}
		for i := common.KeyType(0); i < 1000; i++ {
			val, ok := idx.Find(1000 + i)
			if !ok || val != common.ValueType(i) {
				t.Fatalf("c=%.1f: Find(%d) = (%d, %v)", c, 1000+i, val, ok)
			}
		}
		for i := common.KeyType(0); i < 1000; i++ {
			if !idx.Erase(1000 + i) {
				t.Fatalf("c=%.1f: erase %d failed", c, 1000+i)
			}
		}
		if idx.Len() != 3 {
			t.Fatalf("c=%.1f: Len = %d after erases, want 3", c, idx.Len())
		}
	}
}

func TestDeltaPrecedenceOverStatic(t *testing.T) {
	// A delta key shadows nothing by construction (insert refuses existing
	// keys), but delta reads must still win the race order: a key present
	// only in the delta is served without consulting the static tier.
	idx := New(0.5)
	if !idx.Insert(5, 50) {
		t.Fatal("insert failed")
	}
	if val, ok := idx.Find(5); !ok || val != 50 {
		t.Fatalf("Find(5) = (%d, %v)", val, ok)
	}
}

func TestExtremeKeySpan(t *testing.T) {
	keys := []common.KeyType{math.MinInt64, -1, 0, 1, math.MaxInt64}
	values := []common.ValueType{1, 2, 3, 4, 5}
	idx := buildIndex(t, keys, values, 0.5)

	for i, key := range keys {
		val, ok := idx.Find(key)
		if !ok || val != values[i] {
			t.Fatalf("Find(%d) = (%d, %v), want (%d, true)", key, val, ok, values[i])
		}
	}

	boundaries := idx.Boundaries()
	for i := 0; i < len(boundaries)-2; i++ {
		if boundaries[i] >= boundaries[i+1] {
			t.Fatalf("boundaries not increasing under extreme span at %d", i)
		}
	}
}

func TestSingleKeyBuild(t *testing.T) {
	idx := buildIndex(t, []common.KeyType{42}, []common.ValueType{420}, 0.5)

	if idx.NumExperts() != 1 {
		t.Fatalf("experts = %d, want 1 for a single key", idx.NumExperts())
	}
	if val, ok := idx.Find(42); !ok || val != 420 {
		t.Fatalf("Find(42) = (%d, %v)", val, ok)
	}
	if _, ok := idx.Find(43); ok {
		t.Fatal("Find(43) should miss")
	}
}

func TestTinyBuildUsesOT(t *testing.T) {
	keys, values := sequentialKeys(3)
	idx := buildIndex(t, keys, values, 0.5)

	if idx.NumExperts() > 3 {
		t.Fatalf("experts = %d, want at most n", idx.NumExperts())
	}
	for _, info := range idx.Experts() {
		if info.Keys > 0 && info.Kind != KindOT {
			t.Fatalf("tiny partition got kind %s", info.Kind)
		}
	}
}

func TestNameAndClear(t *testing.T) {
	idx := New(0.25)
	if idx.Name() != "HALI(c=0.25)" {
		t.Fatalf("name = %q", idx.Name())
	}

	keys, values := sequentialKeys(100)
	if err := idx.Build(keys, values); err != nil {
		t.Fatalf("build: %v", err)
	}
	idx.Insert(1000, 1)
	idx.Clear()

	if idx.Len() != 0 {
		t.Fatalf("Len after clear = %d", idx.Len())
	}
	if _, ok := idx.Find(50); ok {
		t.Fatal("static key survived clear")
	}
	if idx.MemoryBytes() < 0 {
		t.Fatal("memory estimate negative")
	}
}

func TestMemoryBytesAccountsForTiers(t *testing.T) {
	keys, values, _ := uniformKeys(10000, 71)
	idx := buildIndex(t, keys, values, 0.5)

	// Key and value arrays alone are 16 bytes per entry.
	if idx.MemoryBytes() < 160000 {
		t.Fatalf("memory = %d, below raw data size", idx.MemoryBytes())
	}

	before := idx.MemoryBytes()
	for i := common.KeyType(0); i < 1000; i++ {
		idx.Insert(common.KeyType(math.MinInt64)+i, 1)
	}
	if idx.MemoryBytes() <= before {
		t.Fatal("delta growth not reflected in memory estimate")
	}
}
