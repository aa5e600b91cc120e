package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AVAILABILITY LISTING
// =============================================================================

// DatedAvailability is one date of a route.
type DatedAvailability struct {
	Date         string
	Availability DateAvailability
}

// RouteAvailability is every known date of one route.
type RouteAvailability struct {
	RouteKey string
	Dates    []DatedAvailability
}

// ListAvailability flattens every route document. Routes are ordered by key,
// dates ascending. An empty store yields an empty list.
func (e *Engine) ListAvailability(ctx context.Context) ([]RouteAvailability, error) {
	docs, err := e.store.List(ctx, RouteCollection)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	out := make([]RouteAvailability, 0, len(docs))
	for _, doc := range docs {
		route := RouteAvailability{RouteKey: doc.Key, Dates: make([]DatedAvailability, 0, len(doc.Fields))}
		for date, raw := range doc.Fields {
			var a DateAvailability
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, fmt.Errorf("decode route %s date %s: %w", doc.Key, date, err)
			}
			route.Dates = append(route.Dates, DatedAvailability{Date: date, Availability: a})
		}
		sort.Slice(route.Dates, func(i, j int) bool { return route.Dates[i].Date < route.Dates[j].Date })
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteKey < out[j].RouteKey })
	return out, nil
}

// =============================================================================
// USER TICKETS
// =============================================================================

// TicketView is a ticket shaped for display.
type TicketView struct {
	TicketID       TicketID
	BookedDate     string
	BookedShift    Shift
	From           string // capitalized
	To             string // capitalized
	Seat           Seat
	PassengerName  string
	PassengerPhone string
	TotalPayment   decimal.Decimal
	PaidOff        bool
}

// ListUserTickets returns the user's tickets ordered by date, then ticket id.
func (e *Engine) ListUserTickets(ctx context.Context, userID UserID) ([]TicketView, error) {
	ledger, err := e.Ledger(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]TicketView, 0, len(ledger))
	for id, t := range ledger {
		out = append(out, TicketView{
			TicketID:       id,
			BookedDate:     t.BookDate,
			BookedShift:    t.BookShift,
			From:           Capitalize(t.BookFrom),
			To:             Capitalize(t.BookTo),
			Seat:           t.BookSeat,
			PassengerName:  t.PassengerName,
			PassengerPhone: t.PassengerPhone,
			TotalPayment:   t.TotalPayment,
			PaidOff:        t.PaidOff,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookedDate != out[j].BookedDate {
			return out[i].BookedDate < out[j].BookedDate
		}
		return out[i].TicketID < out[j].TicketID
	})
	return out, nil
}

// Capitalize upper-cases the first letter and lower-cases the rest:
// "JAKARTA" -> "Jakarta".
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
