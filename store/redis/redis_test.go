package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ticket-engine/booking"
	"github.com/warp/ticket-engine/booking/storetest"
)

// The contract suite needs a live server: REDIS_ADDR=localhost:6379 go test ./store/redis
func TestStore_Contract(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	storetest.Run(t, func(t *testing.T) booking.DocumentStore {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		// A fresh prefix per subtest keeps runs independent.
		store := New(client, "test-"+uuid.NewString())
		require.NoError(t, store.Ping(context.Background()))
		t.Cleanup(func() {
			store.Reset(context.Background())
			store.Close()
		})
		return store
	})
}

func TestDecodeHash(t *testing.T) {
	doc, err := decodeHash("jkt_bdg", map[string]string{
		versionField: "4",
		"2030-01-10": `{"allBooked":false}`,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Version)
	assert.Equal(t, "jkt_bdg", doc.Key)
	assert.JSONEq(t, `{"allBooked":false}`, string(doc.Fields["2030-01-10"]))
	assert.NotContains(t, doc.Fields, versionField)
}

func TestDecodeHash_Empty(t *testing.T) {
	doc, err := decodeHash("jkt_bdg", map[string]string{})
	require.NoError(t, err)
	assert.False(t, doc.Exists())
	assert.Empty(t, doc.Fields)
}

func TestDecodeHash_Corrupt(t *testing.T) {
	_, err := decodeHash("jkt_bdg", map[string]string{versionField: "x"})
	assert.ErrorContains(t, err, "bad version")

	_, err = decodeHash("jkt_bdg", map[string]string{versionField: "1", "2030-01-10": "{"})
	assert.ErrorContains(t, err, "not JSON")
}

func TestKeys(t *testing.T) {
	s := New(nil, "")
	assert.Equal(t, "ticket-engine:bookTickets:jkt_bdg", s.docKey(booking.RouteCollection, "jkt_bdg"))
	assert.Equal(t, "ticket-engine:usersBookedTickets", s.indexKey(booking.LedgerCollection))
}
