// Package store provides DocumentStore implementations.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/warp/ticket-engine/booking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	docs map[key]entry
}

type key struct {
	Collection booking.Collection
	Key        string
}

type entry struct {
	fields  map[string]json.RawMessage
	version int64
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[key]entry)}
}

func (m *Memory) Get(_ context.Context, c booking.Collection, docKey string) (booking.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(c, docKey), nil
}

func (m *Memory) getLocked(c booking.Collection, docKey string) booking.Document {
	e, ok := m.docs[key{Collection: c, Key: docKey}]
	if !ok {
		return booking.Document{Key: docKey, Fields: map[string]json.RawMessage{}}
	}
	return booking.Document{Key: docKey, Fields: copyFields(e.fields), Version: e.version}
}

// List returns every document of the collection, ordered by key.
func (m *Memory) List(_ context.Context, c booking.Collection) ([]booking.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []booking.Document
	for k := range m.docs {
		if k.Collection == c {
			out = append(out, m.getLocked(c, k.Key))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Commit applies all writes atomically.
func (m *Memory) Commit(_ context.Context, writes ...booking.Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check every precondition first (atomic check)
	for _, w := range writes {
		if w.MatchVersion == booking.AnyVersion {
			continue
		}
		if m.docs[key{Collection: w.Collection, Key: w.Key}].version != w.MatchVersion {
			return booking.ErrConcurrentModification
		}
	}

	// Apply all (atomic write)
	for _, w := range writes {
		k := key{Collection: w.Collection, Key: w.Key}
		e := m.docs[k]
		m.docs[k] = entry{
			fields:  booking.MergeFields(e.fields, copyFields(w.Fields)),
			version: e.version + 1,
		}
	}
	return nil
}

// Reset drops every document.
func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[key]entry)
	return nil
}

func copyFields(in map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
