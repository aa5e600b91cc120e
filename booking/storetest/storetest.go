// Package storetest is the contract suite shared by every booking.DocumentStore.
package storetest

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ticket-engine/booking"
)

// Run exercises a store created fresh by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) booking.DocumentStore) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("MergeKeepsOtherFields", func(t *testing.T) { testMerge(t, newStore(t)) })
	t.Run("VersionPrecondition", func(t *testing.T) { testVersionPrecondition(t, newStore(t)) })
	t.Run("CommitIsAllOrNothing", func(t *testing.T) { testAllOrNothing(t, newStore(t)) })
	t.Run("ListOrderedByKey", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("ConcurrentCreateSingleWinner", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
}

func raw(v string) json.RawMessage { return json.RawMessage(v) }

func testGetMissing(t *testing.T, s booking.DocumentStore) {
	doc, err := s.Get(context.Background(), booking.RouteCollection, "jkt_bdg")
	require.NoError(t, err)
	assert.False(t, doc.Exists())
	assert.Equal(t, int64(0), doc.Version)
	assert.Empty(t, doc.Fields)
}

func testMerge(t *testing.T, s booking.DocumentStore) {
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, booking.Write{
		Collection: booking.LedgerCollection, Key: "user-1",
		Fields:       map[string]json.RawMessage{"a": raw(`{"n":1}`)},
		MatchVersion: booking.AnyVersion,
	}))
	require.NoError(t, s.Commit(ctx, booking.Write{
		Collection: booking.LedgerCollection, Key: "user-1",
		Fields:       map[string]json.RawMessage{"b": raw(`{"n":2}`)},
		MatchVersion: booking.AnyVersion,
	}))

	doc, err := s.Get(ctx, booking.LedgerCollection, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)
	require.Len(t, doc.Fields, 2)
	assert.JSONEq(t, `{"n":1}`, string(doc.Fields["a"]))
	assert.JSONEq(t, `{"n":2}`, string(doc.Fields["b"]))

	// Same collection, different key, and same key in another collection stay apart.
	other, err := s.Get(ctx, booking.RouteCollection, "user-1")
	require.NoError(t, err)
	assert.False(t, other.Exists())
}

func testVersionPrecondition(t *testing.T, s booking.DocumentStore) {
	ctx := context.Background()
	write := func(match int64, field string) error {
		return s.Commit(ctx, booking.Write{
			Collection: booking.RouteCollection, Key: "jkt_bdg",
			Fields:       map[string]json.RawMessage{field: raw(`true`)},
			MatchVersion: match,
		})
	}

	require.NoError(t, write(0, "2030-01-10"), "create when absent")
	assert.ErrorIs(t, write(0, "2030-01-11"), booking.ErrConcurrentModification, "create when present")
	require.NoError(t, write(1, "2030-01-11"))
	assert.ErrorIs(t, write(1, "2030-01-12"), booking.ErrConcurrentModification, "stale version")

	doc, err := s.Get(ctx, booking.RouteCollection, "jkt_bdg")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)
	assert.Len(t, doc.Fields, 2)
	assert.NotContains(t, doc.Fields, "2030-01-12")
}

func testAllOrNothing(t *testing.T, s booking.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.Commit(ctx, booking.Write{
		Collection: booking.RouteCollection, Key: "jkt_bdg",
		Fields:       map[string]json.RawMessage{"2030-01-10": raw(`1`)},
		MatchVersion: booking.AnyVersion,
	}))

	err := s.Commit(ctx,
		booking.Write{
			Collection: booking.LedgerCollection, Key: "user-1",
			Fields:       map[string]json.RawMessage{"t1": raw(`{}`)},
			MatchVersion: booking.AnyVersion,
		},
		booking.Write{
			Collection: booking.RouteCollection, Key: "jkt_bdg",
			Fields:       map[string]json.RawMessage{"2030-01-10": raw(`2`)},
			MatchVersion: 7,
		},
	)
	require.ErrorIs(t, err, booking.ErrConcurrentModification)

	ledger, err := s.Get(ctx, booking.LedgerCollection, "user-1")
	require.NoError(t, err)
	assert.False(t, ledger.Exists(), "ledger write must be rolled back")

	route, err := s.Get(ctx, booking.RouteCollection, "jkt_bdg")
	require.NoError(t, err)
	assert.JSONEq(t, `1`, string(route.Fields["2030-01-10"]))
}

func testList(t *testing.T, s booking.DocumentStore) {
	ctx := context.Background()

	docs, err := s.List(ctx, booking.RouteCollection)
	require.NoError(t, err)
	assert.Empty(t, docs)

	for _, k := range []string{"jkt_bdg", "bdg_jkt", "grt_bgr"} {
		require.NoError(t, s.Commit(ctx, booking.Write{
			Collection: booking.RouteCollection, Key: k,
			Fields:       map[string]json.RawMessage{"2030-01-10": raw(`{}`)},
			MatchVersion: booking.AnyVersion,
		}))
	}
	require.NoError(t, s.Commit(ctx, booking.Write{
		Collection: booking.LedgerCollection, Key: "user-1",
		Fields:       map[string]json.RawMessage{"t": raw(`{}`)},
		MatchVersion: booking.AnyVersion,
	}))

	docs, err = s.List(ctx, booking.RouteCollection)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "bdg_jkt", docs[0].Key)
	assert.Equal(t, "grt_bgr", docs[1].Key)
	assert.Equal(t, "jkt_bdg", docs[2].Key)
	assert.Equal(t, int64(1), docs[0].Version)
}

func testConcurrentCreate(t *testing.T, s booking.DocumentStore) {
	ctx := context.Background()
	const writers = 8

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Commit(ctx, booking.Write{
				Collection: booking.RouteCollection, Key: "bks_grt",
				Fields:       map[string]json.RawMessage{"2030-01-10": raw(`true`)},
				MatchVersion: 0,
			})
			if err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, booking.ErrConcurrentModification)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
