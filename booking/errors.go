/*
errors.go - Centralized error types for the booking engine

ERROR CATEGORIES:
  1. Validation errors - Input rejected before any document is read
  2. Conflict errors - Requested date/shift/seat is already taken
  3. Ledger errors - Unknown ticket on payment confirmation
  4. Store errors - Concurrent modification, persistence failures

USAGE:
  Callers classify with errors.Is / errors.As:

    if errors.Is(err, booking.ErrSeatAlreadyBooked) { ... }

    var conflict *booking.ConflictError
    if errors.As(err, &conflict) { ... conflict.Kind ... }

SEE ALSO:
  - api/errors.go: HTTP status mapping
*/
package booking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when the booking date is not an ISO date.
	ErrInvalidDate = errors.New("invalid booking date")

	// ErrPastDate is returned when the booking date is before today.
	ErrPastDate = errors.New("booking date is before today")

	// ErrUnknownCity is returned when a city has no route code.
	ErrUnknownCity = errors.New("unknown city")

	ErrInvalidShift = errors.New("invalid shift")
	ErrInvalidSeat  = errors.New("invalid seat position")

	// Conflicts, reported coarsest first.
	ErrDateFullyBooked   = errors.New("booking date is full")
	ErrShiftFullyBooked  = errors.New("booking shift is full")
	ErrSeatAlreadyBooked = errors.New("seat is already booked")

	// ErrTicketNotFound is returned when a ticket id is not in the user's ledger.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrConcurrentModification is returned when a conditional commit loses
	// against a concurrent writer.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which booking field was rejected.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConflictKind names the level at which a booking conflicted.
type ConflictKind string

const (
	ConflictDate  ConflictKind = "date"
	ConflictShift ConflictKind = "shift"
	ConflictSeat  ConflictKind = "sit"
)

// ConflictError reports a booking that cannot be applied to current availability.
type ConflictError struct {
	Kind  ConflictKind
	Date  string
	Shift Shift
	Seat  Seat
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictDate:
		return fmt.Sprintf("%v: %s", ErrDateFullyBooked, e.Date)
	case ConflictShift:
		return fmt.Sprintf("%v: %s %s", ErrShiftFullyBooked, e.Date, e.Shift)
	default:
		return fmt.Sprintf("%v: %s %s seat %d", ErrSeatAlreadyBooked, e.Date, e.Shift, e.Seat)
	}
}

func (e *ConflictError) Unwrap() error {
	switch e.Kind {
	case ConflictDate:
		return ErrDateFullyBooked
	case ConflictShift:
		return ErrShiftFullyBooked
	default:
		return ErrSeatAlreadyBooked
	}
}

// TicketNotFoundError reports a payment confirmation for a ticket the user does not own.
type TicketNotFoundError struct {
	UserID   UserID
	TicketID TicketID
}

func (e *TicketNotFoundError) Error() string {
	return fmt.Sprintf("ticket %s not found for user %s", e.TicketID, e.UserID)
}

func (e *TicketNotFoundError) Unwrap() error { return ErrTicketNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true for date/shift/seat conflicts.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrPastDate) ||
		errors.Is(err, ErrUnknownCity) ||
		errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrInvalidSeat)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTicketNotFound)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
