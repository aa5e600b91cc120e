/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures exchanged with the web client. Field names
  (including the "Sit" and "Passanger" spellings) are the ones the deployed
  client already sends and reads, so they must not be "fixed" here.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response payload types returned to clients
  - Response: The envelope every endpoint answers with

ENVELOPE:
  {"status": "success"|"failed", "message"?, "errorCaused"?, "data"?}

SEE ALSO:
  - handlers.go: Uses these types
  - errors.go: Fills message/errorCaused for failures
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/ticket-engine/booking"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Response is the envelope of every endpoint.
type Response struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	ErrorCaused string `json:"errorCaused,omitempty"`
	Data        any    `json:"data,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// BookTicketRequest is the body of POST /bookTicket.
type BookTicketRequest struct {
	UIDToken           string          `json:"uidToken"`
	BookFrom           string          `json:"bookFrom"`
	BookTo             string          `json:"bookTo"`
	BookDate           string          `json:"bookDate"`
	BookShift          string          `json:"bookShift"`
	BookSitPos         looseString     `json:"bookSitPos"`
	BookPassangerName  string          `json:"bookPassangerName"`
	BookPassangerPhone string          `json:"bookPassangerPhone"`
	BookTotalPayment   decimal.Decimal `json:"bookTotalPayment"`
}

func (r BookTicketRequest) input() booking.BookingInput {
	return booking.BookingInput{
		From:           r.BookFrom,
		To:             r.BookTo,
		Date:           r.BookDate,
		Shift:          r.BookShift,
		Seat:           string(r.BookSitPos),
		PassengerName:  r.BookPassangerName,
		PassengerPhone: r.BookPassangerPhone,
		TotalPayment:   r.BookTotalPayment,
	}
}

// PayTicketRequest is the body of PATCH /bookTicket.
type PayTicketRequest struct {
	UIDToken string `json:"uidToken"`
	TicketID string `json:"ticketId"`
}

// looseString accepts a JSON string or number. The client sends seat
// positions as "3", older builds sent 3.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = looseString(n.String())
	return nil
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// BookedTicketIDDTO is the data of a successful booking.
type BookedTicketIDDTO struct {
	TicketID booking.TicketID `json:"ticketId"`
}

// RouteAvailabilityDTO is one route in GET /bookTicket.
type RouteAvailabilityDTO struct {
	CodeDestination string          `json:"codeDestination"`
	TicketDates     []TicketDateDTO `json:"ticketDates"`
}

// TicketDateDTO is one date of a route.
type TicketDateDTO struct {
	TicketDate         string                   `json:"ticketDate"`
	TicketAvailability booking.DateAvailability `json:"ticketAvailability"`
}

// BookedTicketDTO is one ticket in GET /bookedTickets.
type BookedTicketDTO struct {
	TicketID       booking.TicketID `json:"ticketId"`
	BookedDate     string           `json:"bookedDate"`
	BookedShift    booking.Shift    `json:"bookedShift"`
	Destination    DestinationDTO   `json:"destination"`
	SitPos         booking.Seat     `json:"sitPos"`
	PassangerName  string           `json:"passangerName"`
	PassangerPhone string           `json:"passangerPhone"`
	TotalPayment   float64          `json:"totalPayment"`
	PaidOff        bool             `json:"paidOff"`
}

// DestinationDTO holds the capitalized city names of a ticket.
type DestinationDTO struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// ScenarioDTO describes a development data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /dev/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRouteAvailabilityDTOs(routes []booking.RouteAvailability) []RouteAvailabilityDTO {
	out := make([]RouteAvailabilityDTO, len(routes))
	for i, r := range routes {
		dates := make([]TicketDateDTO, len(r.Dates))
		for j, d := range r.Dates {
			dates[j] = TicketDateDTO{TicketDate: d.Date, TicketAvailability: d.Availability}
		}
		out[i] = RouteAvailabilityDTO{CodeDestination: r.RouteKey, TicketDates: dates}
	}
	return out
}

func toBookedTicketDTOs(tickets []booking.TicketView) []BookedTicketDTO {
	out := make([]BookedTicketDTO, len(tickets))
	for i, t := range tickets {
		out[i] = BookedTicketDTO{
			TicketID:       t.TicketID,
			BookedDate:     t.BookedDate,
			BookedShift:    t.BookedShift,
			Destination:    DestinationDTO{To: t.To, From: t.From},
			SitPos:         t.Seat,
			PassangerName:  t.PassengerName,
			PassangerPhone: t.PassengerPhone,
			TotalPayment:   t.TotalPayment.InexactFloat64(),
			PaidOff:        t.PaidOff,
		}
	}
	return out
}
