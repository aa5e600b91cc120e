/*
Package sqlite provides a SQLite-backed booking.DocumentStore.

PURPOSE:
  Stores route documents and user ledgers as JSON rows. One row per
  document; top-level fields are merged in Go inside the SQL transaction
  that writes them.

KEY TABLES:
  documents: (collection, doc_key) -> fields_json, version

CONDITIONAL COMMITS:
  Commit opens one SQL transaction, reads the version of every written
  document, rejects the whole commit with booking.ErrConcurrentModification
  if a precondition fails, then upserts each merged document with
  version + 1. The transaction makes the version check and the write
  atomic; the mutex serializes writers within one process.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery
  The pool is limited to one connection so ":memory:" databases are shared
  by every query.

USAGE:
  store, err := sqlite.New("./data/tickets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := booking.NewEngine(store)

SEE ALSO:
  - booking/store.go: Interface definition
  - booking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/ticket-engine/booking"
)

// Store implements booking.DocumentStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an already opened database and migrates its schema.
func NewWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		doc_key TEXT NOT NULL,
		fields_json TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (collection, doc_key)
	)`

	_, err := s.db.Exec(schema)
	return err
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectDocument = `SELECT fields_json, version FROM documents WHERE collection = ? AND doc_key = ?`

// Get returns a document, or an empty Version 0 document if absent.
func (s *Store) Get(ctx context.Context, c booking.Collection, key string) (booking.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getDocument(ctx, s.db, c, key)
}

func getDocument(ctx context.Context, q querier, c booking.Collection, key string) (booking.Document, error) {
	doc := booking.Document{Key: key, Fields: map[string]json.RawMessage{}}

	var fieldsJSON string
	err := q.QueryRowContext(ctx, selectDocument, string(c), key).Scan(&fieldsJSON, &doc.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to load document %s/%s: %w", c, key, err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &doc.Fields); err != nil {
		return doc, fmt.Errorf("failed to decode document %s/%s: %w", c, key, err)
	}
	return doc, nil
}

// List returns every document of a collection ordered by key.
func (s *Store) List(ctx context.Context, c booking.Collection) ([]booking.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_key, fields_json, version FROM documents WHERE collection = ? ORDER BY doc_key ASC`,
		string(c),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	defer rows.Close()

	var docs []booking.Document
	for rows.Next() {
		var (
			doc        booking.Document
			fieldsJSON string
		)
		if err := rows.Scan(&doc.Key, &fieldsJSON, &doc.Version); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode document %s/%s: %w", c, doc.Key, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Commit applies all writes in one SQL transaction.
func (s *Store) Commit(ctx context.Context, writes ...booking.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, w := range writes {
		current, err := getDocument(ctx, sqlTx, w.Collection, w.Key)
		if err != nil {
			return err
		}
		if w.MatchVersion != booking.AnyVersion && current.Version != w.MatchVersion {
			return booking.ErrConcurrentModification
		}

		merged, err := json.Marshal(booking.MergeFields(current.Fields, w.Fields))
		if err != nil {
			return fmt.Errorf("failed to encode document %s/%s: %w", w.Collection, w.Key, err)
		}

		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO documents (collection, doc_key, fields_json, version, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (collection, doc_key) DO UPDATE SET
				fields_json = excluded.fields_json,
				version = excluded.version,
				updated_at = excluded.updated_at`,
			string(w.Collection), w.Key, string(merged), current.Version+1,
			time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to write document %s/%s: %w", w.Collection, w.Key, err)
		}
	}

	return sqlTx.Commit()
}

// Reset deletes all documents (dev scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM documents`)
	return err
}
