/*
handlers.go - HTTP API handlers for the ticket booking service

PURPOSE:
  Exposes the booking engine via the JSON API the web client uses. Handles
  HTTP request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Booking:
    POST   /bookTicket     Book a seat             201 {data:{ticketId}}
    GET    /bookTicket     Availability of routes  200 {data:[route...]}
    PATCH  /bookTicket     Confirm payment         200

  Tickets:
    GET    /bookedTickets  Tickets of the caller   200 {data:[ticket...]}

  Health:
    GET    /helloWorld     200 {status:"success"}

  Any other method on these paths: 400 "Invalid HTTP method".

IDENTITY:
  Callers identify themselves with an id token: "uidToken" in the body for
  POST/PATCH, in the query string for GET /bookedTickets.

REQUEST FLOW (POST):
  1. Decode body
  2. Validate booking (date, cities, shift, seat)
  3. Verify id token
  4. Book through the engine
  5. Map errors (errors.go)

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error to status mapping
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/warp/ticket-engine/auth"
	"github.com/warp/ticket-engine/booking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *booking.Engine
	Verifier auth.Verifier
	Logger   *slog.Logger

	// Store is reset before a development scenario is loaded. Optional.
	Store Resetter

	mu              sync.Mutex
	currentScenario string
}

// Resetter drops every stored document.
type Resetter interface {
	Reset(ctx context.Context) error
}

// NewHandler creates a handler.
func NewHandler(engine *booking.Engine, verifier auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{Engine: engine, Verifier: verifier, Logger: logger}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// BookTicket books one seat for the caller.
// POST /bookTicket
func (h *Handler) BookTicket(w http.ResponseWriter, r *http.Request) {
	var req BookTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Status:      statusFailed,
			Message:     fmt.Sprintf("Invalid request body: %v", err),
			ErrorCaused: causeInvalidBody,
		})
		return
	}

	b, err := h.Engine.Validate(req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	uid, err := h.Verifier.Verify(r.Context(), req.UIDToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.Engine.Book(r.Context(), uid, b)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{Status: statusSuccess, Data: BookedTicketIDDTO{TicketID: id}})
}

// ListAvailability returns the seat availability of every route.
// GET /bookTicket
func (h *Handler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Engine.ListAvailability(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Data: toRouteAvailabilityDTOs(routes)})
}

// PayTicket marks one of the caller's tickets as paid.
// PATCH /bookTicket
func (h *Handler) PayTicket(w http.ResponseWriter, r *http.Request) {
	var req PayTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Status:      statusFailed,
			Message:     fmt.Sprintf("Invalid request body: %v", err),
			ErrorCaused: causeInvalidBody,
		})
		return
	}

	uid, err := h.Verifier.Verify(r.Context(), req.UIDToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Engine.MarkPaid(r.Context(), uid, booking.TicketID(req.TicketID)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess})
}

// =============================================================================
// TICKET HANDLERS
// =============================================================================

// ListBookedTickets returns the caller's tickets.
// GET /bookedTickets?uidToken=...
func (h *Handler) ListBookedTickets(w http.ResponseWriter, r *http.Request) {
	uid, err := h.Verifier.Verify(r.Context(), r.URL.Query().Get("uidToken"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tickets, err := h.Engine.ListUserTickets(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Data: toBookedTicketDTOs(tickets)})
}

// HelloWorld is the liveness probe.
// GET /helloWorld
func (h *Handler) HelloWorld(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
