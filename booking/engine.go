/*
engine.go - Booking transition engine

PURPOSE:
  Turns a validated booking into two document writes: the seat flag in the
  route document and the ticket in the user's ledger.

FLOW:
  1. Re-check the date (a Booking may be built without Validate)
  2. Read the route document; a missing document or date is empty
  3. Transition(current, shift, seat) -> new date availability or conflict
  4. Commit, in one atomic store call:
       - route write, conditional on the version read in step 2
       - ledger append of the new ticket (paidOff=false)
  5. If the route changed since step 2, go back to step 2

  Conflicts and validation failures return before step 4: zero writes.

CONCURRENCY:
  Two requests for the same seat can both read it as free, but only the
  first commit matches the version it read. The loser re-reads, sees the
  seat booked and reports ErrSeatAlreadyBooked. At most one ticket is ever
  issued per route/date/shift/seat.

  Retries are bounded by CommitAttempts. A request that keeps losing to
  writers on other seats of the same route gets ErrConcurrentModification.

SEE ALSO:
  - transition.go: Pure conflict/rollup rules
  - ledger.go: Payment confirmation
  - projection.go: Read models
*/
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCommitAttempts bounds the optimistic retry loop of Book and MarkPaid.
const DefaultCommitAttempts = 5

// Engine books seats and maintains user ledgers on a DocumentStore.
type Engine struct {
	store          DocumentStore
	validator      Validator
	newID          func() TicketID
	logger         *slog.Logger
	commitAttempts int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to decide what "today" is.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.validator.Clock = c }
}

// WithLocation sets the time zone of booking dates.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.validator.Location = loc }
}

func WithIDGenerator(fn func() TicketID) Option {
	return func(e *Engine) { e.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCommitAttempts sets how many times a conditional commit is tried.
func WithCommitAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.commitAttempts = n
		}
	}
}

// NewEngine creates an engine on the given store.
func NewEngine(store DocumentStore, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		validator:      Validator{Clock: SystemClock{}, Location: time.UTC},
		newID:          NewTicketID,
		logger:         slog.Default(),
		commitAttempts: DefaultCommitAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validator returns the engine's pre-flight validator.
func (e *Engine) Validator() Validator { return e.validator }

// Validate runs the pre-flight checks on a wire booking.
func (e *Engine) Validate(in BookingInput) (Booking, error) {
	return e.validator.Validate(in)
}

// BookInput validates in and books it for userID.
func (e *Engine) BookInput(ctx context.Context, userID UserID, in BookingInput) (TicketID, error) {
	b, err := e.Validate(in)
	if err != nil {
		return "", err
	}
	return e.Book(ctx, userID, b)
}

// Book reserves b.Seat on b.Date/b.Shift and appends the ticket to the
// user's ledger. Returns the new ticket id.
func (e *Engine) Book(ctx context.Context, userID UserID, b Booking) (TicketID, error) {
	if _, err := e.validator.CheckDate(b.Date); err != nil {
		return "", err
	}
	if !b.Shift.Valid() {
		return "", &ValidationError{Field: "bookShift", Value: string(b.Shift), Err: ErrInvalidShift}
	}
	if !b.Seat.Valid() {
		return "", &ValidationError{Field: "bookSitPos", Value: b.Seat.String(), Err: ErrInvalidSeat}
	}

	ticket := Ticket{
		TicketID:       e.newID(),
		BookFrom:       b.From,
		BookTo:         b.To,
		BookDate:       b.Date,
		BookShift:      b.Shift,
		BookSeat:       b.Seat,
		PassengerName:  b.PassengerName,
		PassengerPhone: b.PassengerPhone,
		TotalPayment:   b.TotalPayment,
	}
	ticketJSON, err := json.Marshal(ticket)
	if err != nil {
		return "", fmt.Errorf("encode ticket: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err := e.tryBook(ctx, userID, b, ticket.TicketID, ticketJSON)
		if err == nil {
			e.logger.Info("seat booked",
				"route", b.RouteKey, "date", b.Date, "shift", b.Shift, "seat", int(b.Seat),
				"ticket", ticket.TicketID, "user", userID, "attempt", attempt)
			return ticket.TicketID, nil
		}
		if !IsRetryable(err) || attempt >= e.commitAttempts {
			return "", err
		}
		e.logger.Debug("route document changed during booking, retrying",
			"route", b.RouteKey, "date", b.Date, "attempt", attempt)
	}
}

func (e *Engine) tryBook(ctx context.Context, userID UserID, b Booking, id TicketID, ticketJSON json.RawMessage) error {
	doc, err := e.store.Get(ctx, RouteCollection, b.RouteKey)
	if err != nil {
		return fmt.Errorf("load route %s: %w", b.RouteKey, err)
	}

	current := EmptyDateAvailability()
	if raw, ok := doc.Fields[b.Date]; ok {
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("decode route %s date %s: %w", b.RouteKey, b.Date, err)
		}
	}

	next, err := Transition(current, b.Date, b.Shift, b.Seat)
	if err != nil {
		return err
	}
	nextJSON, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}

	err = e.store.Commit(ctx,
		Write{
			Collection:   RouteCollection,
			Key:          b.RouteKey,
			Fields:       map[string]json.RawMessage{b.Date: nextJSON},
			MatchVersion: doc.Version,
		},
		Write{
			Collection:   LedgerCollection,
			Key:          string(userID),
			Fields:       map[string]json.RawMessage{string(id): ticketJSON},
			MatchVersion: AnyVersion,
		},
	)
	if err != nil && !errors.Is(err, ErrConcurrentModification) {
		return fmt.Errorf("commit booking %s: %w", id, err)
	}
	return err
}
