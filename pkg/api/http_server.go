package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"hali/pkg/common"
	"hali/pkg/core"
)

type Server struct {
	store *core.Store
}

func NewServer(store *core.Store) *Server {
	return &Server{store: store}
}

func (s *Server) Start(addr string) {
	http.HandleFunc("/api/get", s.handleGet)
	http.HandleFunc("/api/insert", s.handleInsert)
	http.HandleFunc("/api/erase", s.handleErase)
	http.HandleFunc("/api/stats", s.handleStats)
	http.HandleFunc("/api/experts", s.handleExperts)
	http.HandleFunc("/api/reset", s.handleReset)

	log.Printf("[API] Server listening on %s ...", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	keyStr := r.URL.Query().Get("key")
	key, err := strconv.ParseInt(keyStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid key", http.StatusBadRequest)
		return
	}

	start := time.Now()
	val, found := s.store.Get(common.KeyType(key))
	duration := time.Since(start)

	if !found {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}

	resp := map[string]interface{}{
		"key":        key,
		"value":      uint64(val),
		"found":      true,
		"latency_ns": duration.Nanoseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Key   int64  `json:"key"`
		Value uint64 `json:"value"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	inserted := s.store.Put(common.KeyType(req.Key), common.ValueType(req.Value))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"inserted": inserted})
}

func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Key int64 `json:"key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	erased := s.store.Delete(common.KeyType(req.Key))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"erased": erased})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.store.Stats())
}

// handleExperts exposes the static tier's composition: one row per
// partition with its kind, population and key range.
func (s *Server) handleExperts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	type expertRow struct {
		Kind       string `json:"kind"`
		Keys       int    `json:"keys"`
		AssignedLo int64  `json:"assigned_lo"`
		MinKey     int64  `json:"min_key"`
		MaxKey     int64  `json:"max_key"`
	}

	infos := s.store.ExpertComposition()
	rows := make([]expertRow, len(infos))
	for i, info := range infos {
		rows[i] = expertRow{
			Kind:       info.Kind.String(),
			Keys:       info.Keys,
			AssignedLo: int64(info.AssignedLo),
			MinKey:     int64(info.MinKey),
			MaxKey:     int64(info.MaxKey),
		}
	}
	json.NewEncoder(w).Encode(rows)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Reset(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
