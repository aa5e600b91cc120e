/*
errors.go - Domain error to HTTP response mapping

Every request gets exactly one response body. Errors are classified in
priority order; the first match wins:

  auth.ErrInvalidToken              401  "Invalid User Id Token"
  booking.ErrPastDate               400  errorCaused "previous-date"
  malformed date/city/shift/seat    400  errorCaused "invalid-*"
  date / shift / seat conflict      409  errorCaused "date" | "shift" | "sit"
  booking.ErrTicketNotFound         404  errorCaused "ticket"
  booking.ErrConcurrentModification 409  errorCaused "concurrent"
  anything else                     500  {"status":"failed"}
*/
package api

import (
	"errors"
	"net/http"

	"github.com/warp/ticket-engine/auth"
	"github.com/warp/ticket-engine/booking"
)

// errorCaused values.
const (
	causePreviousDate = "previous-date"
	causeInvalidDate  = "invalid-date"
	causeInvalidCity  = "invalid-city"
	causeInvalidShift = "invalid-shift"
	causeInvalidSit   = "invalid-sit"
	causeInvalidBody  = "invalid-body"
	causeTicket       = "ticket"
	causeConcurrent   = "concurrent"
)

const (
	msgInvalidToken  = "Invalid User Id Token"
	msgInvalidMethod = "Invalid HTTP method"
	msgPreviousDate  = "Cannot booking ticket with previous date with start from current date"
	msgDateBooked    = "Booking date is full"
	msgShiftBooked   = "Booking shift is full"
	msgSitBooked     = "Sit position is already booked"
	msgNotFound      = "Ticket not found"
	msgConcurrent    = "Booking is busy, please try again"
	msgRateLimited   = "Rate limit exceeded"
)

type errorResponse struct {
	status int
	body   Response
}

func classify(err error) (errorResponse, bool) {
	failed := func(status int, message, cause string) (errorResponse, bool) {
		return errorResponse{status: status, body: Response{Status: statusFailed, Message: message, ErrorCaused: cause}}, true
	}

	var conflict *booking.ConflictError
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return failed(http.StatusUnauthorized, msgInvalidToken, "")
	case errors.Is(err, booking.ErrPastDate):
		return failed(http.StatusBadRequest, msgPreviousDate, causePreviousDate)
	case errors.Is(err, booking.ErrInvalidDate):
		return failed(http.StatusBadRequest, err.Error(), causeInvalidDate)
	case errors.Is(err, booking.ErrUnknownCity):
		return failed(http.StatusBadRequest, err.Error(), causeInvalidCity)
	case errors.Is(err, booking.ErrInvalidShift):
		return failed(http.StatusBadRequest, err.Error(), causeInvalidShift)
	case errors.Is(err, booking.ErrInvalidSeat):
		return failed(http.StatusBadRequest, err.Error(), causeInvalidSit)
	case errors.As(err, &conflict):
		switch conflict.Kind {
		case booking.ConflictDate:
			return failed(http.StatusConflict, msgDateBooked, string(booking.ConflictDate))
		case booking.ConflictShift:
			return failed(http.StatusConflict, msgShiftBooked, string(booking.ConflictShift))
		default:
			return failed(http.StatusConflict, msgSitBooked, string(booking.ConflictSeat))
		}
	case errors.Is(err, booking.ErrTicketNotFound):
		return failed(http.StatusNotFound, msgNotFound, causeTicket)
	case errors.Is(err, booking.ErrConcurrentModification):
		return failed(http.StatusConflict, msgConcurrent, causeConcurrent)
	}
	return errorResponse{}, false
}

// writeError answers with the mapped response for err, or the 500 fallback.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if resp, ok := classify(err); ok {
		h.logger().Debug("request rejected", "path", r.URL.Path, "status", resp.status, "error", err)
		writeJSON(w, resp.status, resp.body)
		return
	}
	h.logger().Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeFailed(w, http.StatusInternalServerError, "")
}

func writeFailed(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Status: statusFailed, Message: message})
}
