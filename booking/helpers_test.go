package booking_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/warp/ticket-engine/booking"
	"github.com/warp/ticket-engine/booking/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// today is 2030-01-05 for every engine built by newTestEngine.
var today = time.Date(2030, time.January, 5, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() booking.TicketID {
	var n atomic.Int64
	return func() booking.TicketID {
		return booking.TicketID(fmt.Sprintf("ticket-%03d", n.Add(1)))
	}
}

func newTestEngine(t *testing.T, s booking.DocumentStore, opts ...booking.Option) *booking.Engine {
	t.Helper()
	base := []booking.Option{
		booking.WithClock(booking.FixedClock(today)),
		booking.WithIDGenerator(sequentialIDs()),
		booking.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return booking.NewEngine(s, append(base, opts...)...)
}

func seatBooking(date string, shift booking.Shift, seat booking.Seat) booking.Booking {
	return booking.Booking{
		RouteKey:       "jkt_bdg",
		From:           "jakarta",
		To:             "bandung",
		Date:           date,
		Shift:          shift,
		Seat:           seat,
		PassengerName:  "Siti",
		PassengerPhone: "0812",
	}
}

// countingStore counts commits reaching the wrapped store.
type countingStore struct {
	booking.DocumentStore
	commits atomic.Int32
}

func (s *countingStore) Commit(ctx context.Context, writes ...booking.Write) error {
	s.commits.Add(1)
	return s.DocumentStore.Commit(ctx, writes...)
}

// interleavingStore runs beforeFirstCommit once, right before the first
// commit, to simulate a concurrent request landing between read and write.
type interleavingStore struct {
	booking.DocumentStore
	once              sync.Once
	beforeFirstCommit func()
}

func (s *interleavingStore) Commit(ctx context.Context, writes ...booking.Write) error {
	s.once.Do(s.beforeFirstCommit)
	return s.DocumentStore.Commit(ctx, writes...)
}

// contendedStore fails every commit as if another writer always won.
type contendedStore struct {
	booking.DocumentStore
	commits atomic.Int32
}

func (s *contendedStore) Commit(context.Context, ...booking.Write) error {
	s.commits.Add(1)
	return booking.ErrConcurrentModification
}

// failingStore fails every read.
type failingStore struct {
	booking.DocumentStore
	err error
}

func (s failingStore) Get(context.Context, booking.Collection, string) (booking.Document, error) {
	return booking.Document{}, s.err
}

func (s failingStore) List(context.Context, booking.Collection) ([]booking.Document, error) {
	return nil, s.err
}

func newMemory() *store.Memory { return store.NewMemory() }
