/*
Package booking provides the seat-booking engine.

PURPOSE:
  Every origin/destination pair owns one route document: a calendar of dates,
  each with two shifts of five seats. Users book a single seat on a
  (date, shift) and pay for it later. This package owns the availability
  model, the booking transition rules and the per-user ticket ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: morning or afternoon
  - Seat: seat position 1..5 within a shift
  - SeatMap: the booked flag of each seat
  - ShiftAvailability / DateAvailability: seat state plus derived "all booked" rollups
  - RouteDocument: date -> DateAvailability for one route
  - Ticket / UserLedger: what a user booked

DESIGN PRINCIPLES:
  1. Enumerated shifts and seats: no free-form string lookups into documents
  2. Derived flags: allBooked is always recomputed from seats, never set directly
  3. Wire compatibility: JSON names match the web client ("bookedSits", "bookSitPos")

SEE ALSO:
  - availability.go: Rollup rules
  - engine.go: Booking transition engine
  - store.go: Document store contract
*/
package booking

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SHIFT
// =============================================================================

// Shift is one of the two daily departure windows.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
)

// Shifts lists every shift in rollup order.
var Shifts = [...]Shift{ShiftMorning, ShiftAfternoon}

// ParseShift parses a wire shift name.
func ParseShift(s string) (Shift, error) {
	switch Shift(strings.ToLower(strings.TrimSpace(s))) {
	case ShiftMorning:
		return ShiftMorning, nil
	case ShiftAfternoon:
		return ShiftAfternoon, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidShift, s)
}

func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftAfternoon
}

// =============================================================================
// SEAT
// =============================================================================

// SeatsPerShift is the fixed capacity of every shift.
const SeatsPerShift = 5

// Seat is a seat position, 1-based.
type Seat int

// ParseSeat parses a wire seat position ("1".."5").
func ParseSeat(s string) (Seat, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Seat(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeat, s)
	}
	return Seat(n), nil
}

func (s Seat) Valid() bool { return s >= 1 && s <= SeatsPerShift }

func (s Seat) String() string { return strconv.Itoa(int(s)) }

// MarshalText encodes the seat as its position string, the form the client sends.
func (s Seat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeat, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Seat) UnmarshalText(b []byte) error {
	seat, err := ParseSeat(string(b))
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// SeatMap holds the booked flag of each seat in a shift.
// Index i is seat i+1.
type SeatMap [SeatsPerShift]bool

func (m SeatMap) Booked(s Seat) bool { return m[s-1] }

func (m *SeatMap) Book(s Seat) { m[s-1] = true }

// All reports whether every seat is booked.
func (m SeatMap) All() bool {
	for _, booked := range m {
		if !booked {
			return false
		}
	}
	return true
}

// MarshalJSON writes {"1":false,...,"5":false}.
func (m SeatMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]bool, SeatsPerShift)
	for i, booked := range m {
		out[Seat(i+1).String()] = booked
	}
	return json.Marshal(out)
}

func (m *SeatMap) UnmarshalJSON(b []byte) error {
	var in map[string]bool
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	var next SeatMap
	for k, booked := range in {
		seat, err := ParseSeat(k)
		if err != nil {
			return err
		}
		next[seat-1] = booked
	}
	*m = next
	return nil
}

// ShiftAvailability is the seat state of one shift on one date.
type ShiftAvailability struct {
	AllBooked   bool    `json:"allBooked"`
	BookedSeats SeatMap `json:"bookedSits"`
}

// ShiftSet holds both shifts of a date.
type ShiftSet struct {
	Morning   ShiftAvailability `json:"morning"`
	Afternoon ShiftAvailability `json:"afternoon"`
}

// Get returns the availability of a shift. Panics on an invalid shift;
// callers parse shifts with ParseShift first.
func (s ShiftSet) Get(shift Shift) ShiftAvailability {
	return *s.ref(shift)
}

func (s *ShiftSet) ref(shift Shift) *ShiftAvailability {
	switch shift {
	case ShiftMorning:
		return &s.Morning
	case ShiftAfternoon:
		return &s.Afternoon
	}
	panic(fmt.Sprintf("booking: invalid shift %q", shift))
}

// DateAvailability is the availability of one route on one date.
type DateAvailability struct {
	AllBooked bool     `json:"allBooked"`
	Shifts    ShiftSet `json:"shifts"`
}

// RouteDocument maps an ISO date (YYYY-MM-DD) to its availability.
type RouteDocument map[string]DateAvailability

// =============================================================================
// TICKETS
// =============================================================================

// TicketID is an opaque, globally unique ticket identifier.
type TicketID string

// UserID is the stable identifier returned by the identity verifier.
type UserID string

// Ticket is one booked seat in a user's ledger.
// Only PaidOff ever changes after creation.
type Ticket struct {
	TicketID       TicketID        `json:"ticketId"`
	BookFrom       string          `json:"bookFrom"`
	BookTo         string          `json:"bookTo"`
	BookDate       string          `json:"bookDate"`
	BookShift      Shift           `json:"bookShift"`
	BookSeat       Seat            `json:"bookSitPos"`
	PassengerName  string          `json:"bookPassangerName"`
	PassengerPhone string          `json:"bookPassangerPhone"`
	TotalPayment   decimal.Decimal `json:"bookTotalPayment"`
	PaidOff        bool            `json:"paidOff"`
}

// UserLedger is every ticket of one user, keyed by ticket id.
type UserLedger map[TicketID]Ticket
