/*
validator.go - Pre-flight checks before any document is read

PURPOSE:
  Rejects requests that can never succeed, so the transition engine only
  ever sees a well-formed booking.

CHECK ORDER:
  1. Date is an ISO date (YYYY-MM-DD, or an RFC 3339 timestamp)
  2. Date is not before today (both sides normalized to midnight)
  3. Origin and destination cities have route codes
  4. Shift is morning/afternoon
  5. Seat is 1..5

  The first failing check is the one reported.

TIME ZONE:
  "Today" is the calendar day of Clock.Now() in Location. Timestamps are
  converted to Location before their time of day is discarded.
*/
package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO date format used as route document keys.
const DateLayout = "2006-01-02"

// BookingInput is a booking request as received on the wire.
type BookingInput struct {
	From           string
	To             string
	Date           string
	Shift          string
	Seat           string
	PassengerName  string
	PassengerPhone string
	TotalPayment   decimal.Decimal
}

// Booking is a validated booking request.
type Booking struct {
	RouteKey       string
	From           string
	To             string
	Date           string // canonical YYYY-MM-DD
	Shift          Shift
	Seat           Seat
	PassengerName  string
	PassengerPhone string
	TotalPayment   decimal.Decimal
}

// Validator performs the pre-flight booking checks.
type Validator struct {
	Clock    Clock
	Location *time.Location
}

func (v Validator) location() *time.Location {
	if v.Location == nil {
		return time.UTC
	}
	return v.Location
}

// Today returns midnight of the current day in the validator's location.
func (v Validator) Today() time.Time {
	clock := v.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return midnight(clock.Now().In(v.location()))
}

// ParseDate parses a booking date and normalizes it to midnight in the
// validator's location.
func (v Validator) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateLayout, s, v.location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return midnight(t.In(v.location())), nil
	}
	return time.Time{}, &ValidationError{Field: "bookDate", Value: s, Err: ErrInvalidDate}
}

// CheckDate fails with ErrPastDate when date is strictly before today.
func (v Validator) CheckDate(s string) (time.Time, error) {
	date, err := v.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if date.Before(v.Today()) {
		return time.Time{}, &ValidationError{Field: "bookDate", Value: s, Err: ErrPastDate}
	}
	return date, nil
}

// Validate runs every check in order and returns the normalized booking.
func (v Validator) Validate(in BookingInput) (Booking, error) {
	date, err := v.CheckDate(in.Date)
	if err != nil {
		return Booking{}, err
	}

	if _, err := CityCode(in.From); err != nil {
		return Booking{}, &ValidationError{Field: "bookFrom", Value: in.From, Err: ErrUnknownCity}
	}
	if _, err := CityCode(in.To); err != nil {
		return Booking{}, &ValidationError{Field: "bookTo", Value: in.To, Err: ErrUnknownCity}
	}
	routeKey, err := RouteKey(in.From, in.To)
	if err != nil {
		return Booking{}, fmt.Errorf("route key: %w", err)
	}

	shift, err := ParseShift(in.Shift)
	if err != nil {
		return Booking{}, &ValidationError{Field: "bookShift", Value: in.Shift, Err: ErrInvalidShift}
	}
	seat, err := ParseSeat(in.Seat)
	if err != nil {
		return Booking{}, &ValidationError{Field: "bookSitPos", Value: in.Seat, Err: ErrInvalidSeat}
	}

	return Booking{
		RouteKey:       routeKey,
		From:           strings.ToLower(strings.TrimSpace(in.From)),
		To:             strings.ToLower(strings.TrimSpace(in.To)),
		Date:           date.Format(DateLayout),
		Shift:          shift,
		Seat:           seat,
		PassengerName:  strings.TrimSpace(in.PassengerName),
		PassengerPhone: strings.TrimSpace(in.PassengerPhone),
		TotalPayment:   in.TotalPayment,
	}, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
