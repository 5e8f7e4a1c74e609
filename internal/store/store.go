package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type opKind int

const (
	opPut opKind = iota
	opDelete
)

type op struct {
	kind  opKind
	key   string
	value []byte
}

// Store is a persistent key-value table backed by SQLite. The namespace is
// shared: tab-state records live alongside keys owned by other subsystems.
// Writes are fire-and-forget, queued to a single writer goroutine so per-key
// issue order is preserved; callers never observe I/O completion or errors.
type Store struct {
	db        *sql.DB
	writeCh   chan op
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

const defaultBufferSize = 1024

// Open opens (creating if needed) the state database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state store: open %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state store: init schema: %w", err)
	}

	s := &Store{
		db:      db,
		writeCh: make(chan op, defaultBufferSize),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

// Snapshot reads the full persisted mapping. This is the store's readiness
// signal: startup reconciliation runs against the returned map.
func (s *Store) Snapshot() (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(`SELECT key, value FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("state store: snapshot: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("state store: snapshot scan: %w", err)
		}
		out[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("state store: snapshot rows: %w", err)
	}
	return out, nil
}

// Set queues an upsert of value under key. The value is marshaled now, so
// the caller's record is snapshotted before any later mutation.
func (s *Store) Set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("state store marshal failed", "key", key, "error", err)
		return
	}
	s.enqueue(op{kind: opPut, key: key, value: data})
}

// Remove queues a delete of key.
func (s *Store) Remove(key string) {
	s.enqueue(op{kind: opDelete, key: key})
}

func (s *Store) enqueue(o op) {
	select {
	case <-s.done:
		slog.Warn("state store write after close dropped", "key", o.key)
		return
	default:
	}
	select {
	case s.writeCh <- o:
	default:
		// Queue full; the store is best-effort, drop rather than block the
		// event turn that triggered the write.
		slog.Warn("state store write buffer full, dropping", "key", o.key)
	}
}

func (s *Store) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case o := <-s.writeCh:
			s.apply(o)
		case <-s.done:
			return
		}
	}
}

func (s *Store) apply(o op) {
	var err error
	switch o.kind {
	case opPut:
		_, err = s.db.Exec(
			`INSERT INTO kv (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			o.key, string(o.value))
	case opDelete:
		_, err = s.db.Exec(`DELETE FROM kv WHERE key = ?`, o.key)
	}
	if err != nil {
		slog.Error("state store write failed", "key", o.key, "error", err)
	}
}

// Close stops the writer, drains queued operations with a timeout, and
// closes the database.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case o := <-s.writeCh:
			s.apply(o)
		case <-timeout:
			slog.Warn("state store close timeout, queued writes lost")
			goto done
		default:
			goto done
		}
	}

done:
	return s.db.Close()
}
