/*
store.go - Document store contract

PURPOSE:
  The engine keeps its state in two collections of nested JSON documents:

    bookTickets         route key -> RouteDocument  (date -> availability)
    usersBookedTickets  user id   -> UserLedger     (ticket id -> ticket)

  The store knows nothing about bookings. It stores documents as a map of
  top-level fields and merges writes field by field.

MERGE SEMANTICS:
  A Write replaces only the top-level fields it names; other fields of the
  document are kept. Writing date "2030-01-10" never touches "2030-01-11",
  and appending a ticket never touches the user's other tickets.

CONDITIONAL COMMITS:
  Every document carries a Version, bumped on each write. Version 0 means
  the document does not exist. A Write with MatchVersion != AnyVersion only
  applies if the stored version still equals MatchVersion. Commit applies
  all of its writes or none of them, so the route update and the ledger
  append of a booking either both land or neither does.

  This is what makes "read, compute, write" safe: a booking that read seat 3
  as free only commits if nobody wrote the route document in between.

IMPLEMENTATIONS:
  - booking/store/memory.go: In-memory (tests, development)
  - store/sqlite/sqlite.go: SQLite
  - store/redis/redis.go: Redis (WATCH/MULTI)

SEE ALSO:
  - storetest/storetest.go: Contract suite every implementation runs
*/
package booking

import (
	"context"
	"encoding/json"
)

// Collection names a set of documents.
type Collection string

const (
	RouteCollection  Collection = "bookTickets"
	LedgerCollection Collection = "usersBookedTickets"
)

// AnyVersion disables the version precondition of a Write.
const AnyVersion int64 = -1

// Document is a stored document: top-level field name -> JSON value.
type Document struct {
	Key     string
	Fields  map[string]json.RawMessage
	Version int64
}

// Exists reports whether the document has ever been written.
func (d Document) Exists() bool { return d.Version > 0 }

// Write merges Fields into the document Collection/Key.
type Write struct {
	Collection   Collection
	Key          string
	Fields       map[string]json.RawMessage
	MatchVersion int64
}

// DocumentStore persists documents.
type DocumentStore interface {
	// Get returns the document, or a Document with Version 0 and no
	// fields if it does not exist.
	Get(ctx context.Context, c Collection, key string) (Document, error)

	// List returns every document of a collection, ordered by key.
	List(ctx context.Context, c Collection) ([]Document, error)

	// Commit atomically applies all writes. Returns ErrConcurrentModification
	// if any version precondition fails; nothing is written in that case.
	Commit(ctx context.Context, writes ...Write) error
}

// MergeFields returns a copy of base with patch applied on top.
// Store implementations use it to apply a Write.
func MergeFields(base, patch map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
