package core

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"hali/pkg/common"
	"hali/pkg/config"
	"hali/pkg/core/hali"
	"hali/pkg/monitor"
	"hali/pkg/storage"
)

// Store is the served wrapper around one HALI index. The index itself is
// single-threaded; Store owns the lock that serializes access, the workload
// counters, and the record journal the index is rebuilt from on startup.
type Store struct {
	mu      sync.RWMutex
	index   *hali.Index
	backend storage.Backend
	stats   *monitor.WorkloadStats
	writeCh chan common.Record
	closeCh chan struct{}
	wg      sync.WaitGroup
	conf    *config.Config
}

func NewStore(cfg *config.Config) *Store {
	if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	journalPath := filepath.Join(cfg.Storage.Path, "hali.db")
	st := &Store{
		index:   hali.New(cfg.Index.CompressionLevel),
		backend: storage.NewSQLiteBackend(journalPath),
		stats:   monitor.NewWorkloadStats(),
		writeCh: make(chan common.Record, cfg.Storage.JournalBuffer),
		closeCh: make(chan struct{}),
		conf:    cfg,
	}

	st.recoverFromJournal()

	st.wg.Add(1)
	go st.backgroundPersist()

	return st
}

// recoverFromJournal rebuilds the static tier from every journaled record.
// The journal's primary key rules out duplicates, so the build cannot fail
// on input shape.
func (st *Store) recoverFromJournal() {
	log.Println("[HaliDB] Replaying record journal...")
	records, err := st.backend.LoadAll()
	if err != nil {
		log.Printf("[HaliDB] Journal replay failed: %v", err)
		return
	}
	if len(records) == 0 {
		log.Println("[HaliDB] Journal empty, starting fresh.")
		return
	}

	keys := make([]common.KeyType, len(records))
	values := make([]common.ValueType, len(records))
	for i, r := range records {
		keys[i] = r.Key
		values[i] = r.Value
	}

	start := time.Now()
	if err := st.index.Build(keys, values); err != nil {
		log.Printf("[HaliDB] Index build failed: %v", err)
		return
	}
	log.Printf("[HaliDB] Rebuilt %s over %d keys (%d experts) in %v",
		st.index.Name(), len(records), st.index.NumExperts(), time.Since(start))
}

// Put inserts a record. It returns false when the key already exists, in
// which case neither the index nor the journal changes.
func (st *Store) Put(key common.KeyType, val common.ValueType) bool {
	st.stats.RecordWrite()

	st.mu.Lock()
	inserted := st.index.Insert(key, val)
	st.mu.Unlock()

	if !inserted {
		st.stats.RecordReject()
		return false
	}

	st.writeCh <- common.Record{Key: key, Value: val}
	return true
}

func (st *Store) Get(key common.KeyType) (common.ValueType, bool) {
	st.stats.RecordRead()

	st.mu.RLock()
	val, ok := st.index.Find(key)
	st.mu.RUnlock()

	if ok {
		st.stats.RecordHit()
	}
	return val, ok
}

// Delete removes a post-build key. Static-tier keys cannot be deleted until
// the next rebuild; for those it returns false and the journal keeps the
// record.
func (st *Store) Delete(key common.KeyType) bool {
	st.mu.Lock()
	erased := st.index.Erase(key)
	st.mu.Unlock()

	if erased {
		if err := st.backend.Delete(key); err != nil {
			log.Printf("[HaliDB] Journal delete failed: %v", err)
		}
	}
	return erased
}

func (st *Store) backgroundPersist() {
	defer st.wg.Done()
	buffer := make([]common.Record, 0, st.conf.Storage.BatchSize)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if err := st.backend.BatchWrite(buffer); err != nil {
			log.Printf("[HaliDB] Batch write error: %v", err)
		}
		buffer = buffer[:0]
	}

	for {
		select {
		case rec := <-st.writeCh:
			buffer = append(buffer, rec)
			if len(buffer) >= st.conf.Storage.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-st.closeCh:
			for {
				select {
				case rec := <-st.writeCh:
					buffer = append(buffer, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (st *Store) Stats() map[string]interface{} {
	st.mu.RLock()
	total := st.index.Len()
	deltaLen := st.index.DeltaLen()
	experts := st.index.NumExperts()
	mem := st.index.MemoryBytes()
	name := st.index.Name()
	kinds := map[string]int{}
	for _, info := range st.index.Experts() {
		kinds[info.Kind.String()]++
	}
	st.mu.RUnlock()

	return map[string]interface{}{
		"index":          name,
		"total_keys":     total,
		"static_keys":    total - deltaLen,
		"delta_keys":     deltaLen,
		"experts":        experts,
		"expert_kinds":   kinds,
		"memory_bytes":   mem,
		"memory_human":   humanize.Bytes(uint64(mem)),
		"pending_writes": len(st.writeCh),
		"rw_ratio":       st.stats.GetReadWriteRatio(),
		"hit_rate":       st.stats.GetHitRate(),
	}
}

// ExpertComposition exposes the per-partition diagnostics for the API layer.
func (st *Store) ExpertComposition() []hali.ExpertInfo {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.index.Experts()
}

// Reset drops the journal and the index.
func (st *Store) Reset() error {
	st.mu.Lock()
	st.index.Clear()
	st.mu.Unlock()
	return st.backend.Truncate()
}

func (st *Store) Close() {
	close(st.closeCh)
	st.wg.Wait()
	st.backend.Close()
}
