// Package storage provides the record journal behind the served store. It
// persists raw key/value records only — index state is never written; a
// restarted server rebuilds its index from the journal.
package storage

import (
	"database/sql"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"hali/pkg/common"
)

type Backend interface {
	Write(key common.KeyType, val common.ValueType) error
	BatchWrite(records []common.Record) error
	Delete(key common.KeyType) error
	LoadAll() ([]common.Record, error)
	Truncate() error
	Close()
}

type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLiteBackend(path string) *SQLiteBackend {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS records (
		key INTEGER PRIMARY KEY,
		value INTEGER NOT NULL
	);`
	if _, err := db.Exec(query); err != nil {
		log.Fatalf("Failed to init table: %v", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("Warning: Failed to set PRAGMA: %v", err)
	}

	return &SQLiteBackend{db: db}
}

func (s *SQLiteBackend) Write(key common.KeyType, val common.ValueType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("INSERT OR REPLACE INTO records (key, value) VALUES (?, ?)",
		int64(key), int64(val))
	return err
}

func (s *SQLiteBackend) BatchWrite(records []common.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO records (key, value) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(int64(r.Key), int64(r.Value)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteBackend) Delete(key common.KeyType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM records WHERE key = ?", int64(key))
	return err
}

func (s *SQLiteBackend) LoadAll() ([]common.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT key, value FROM records ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []common.Record
	for rows.Next() {
		var key, value int64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		records = append(records, common.Record{
			Key:   common.KeyType(key),
			Value: common.ValueType(value),
		})
	}
	return records, rows.Err()
}

func (s *SQLiteBackend) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM records")
	return err
}

func (s *SQLiteBackend) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.Close()
}
