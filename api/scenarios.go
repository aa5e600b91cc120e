/*
scenarios.go - Development data sets for demos and manual testing

PURPOSE:

	Populates the store with availability that exercises each booking
	outcome, so the web client can be driven through every screen without
	clicking through dozens of bookings first.

AVAILABLE SCENARIOS:

	empty:               No bookings at all
	morning-almost-full: jakarta -> bandung tomorrow, morning seats 1-4 taken
	date-full:           jakarta -> bandung tomorrow, every seat taken
	mixed-routes:        A few bookings on several routes, one ticket paid

HOW SCENARIOS WORK:
 1. Reset the store (drop every document)
 2. Book seats through the engine as the demo user, so rollups and ledgers
    are produced exactly as real requests would produce them
 3. Optionally confirm payment of some tickets

	Dates are relative to the engine's "today", so a scenario never goes stale.

USAGE VIA API (development environment only):

	GET  /dev/scenarios
	POST /dev/scenarios/load {"scenario_id": "date-full"}

SEE ALSO:
  - server.go: DevRoutes option
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/ticket-engine/booking"
)

// DemoUser owns every ticket booked by a scenario.
const DemoUser booking.UserID = "demo-user"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, h *Handler) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "empty",
			Name:        "Empty",
			Description: "No bookings on any route",
		},
		load: func(context.Context, *Handler) error { return nil },
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "morning-almost-full",
			Name:        "Morning Almost Full",
			Description: "Jakarta to Bandung tomorrow: one morning seat left",
		},
		load: loadMorningAlmostFullScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "date-full",
			Name:        "Date Full",
			Description: "Jakarta to Bandung tomorrow: both shifts sold out",
		},
		load: loadDateFullScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "mixed-routes",
			Name:        "Mixed Routes",
			Description: "Bookings on several routes and dates, one ticket already paid",
		},
		load: loadMixedRoutesScenario,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Data: out})
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, Response{Status: statusSuccess})
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Data: s.ScenarioDTO})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: statusFailed, Message: "Invalid request body", ErrorCaused: causeInvalidBody})
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeFailed(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ScenarioID))
		return
	}

	if err := h.loadScenario(r.Context(), s); err != nil {
		h.writeError(w, r, fmt.Errorf("load scenario %s: %w", s.ID, err))
		return
	}

	h.logger().Info("scenario loaded", "scenario", s.ID)
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Data: s.ScenarioDTO})
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) error {
	if h.Store == nil {
		return errors.New("store cannot be reset")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	h.currentScenario = ""

	if err := s.load(ctx, h); err != nil {
		return err
	}
	h.currentScenario = s.ID
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seed books seats for DemoUser on from -> to, daysAhead days after today.
func (h *Handler) seed(ctx context.Context, from, to string, daysAhead int, shift booking.Shift, seats ...booking.Seat) ([]booking.TicketID, error) {
	date := h.Engine.Validator().Today().AddDate(0, 0, daysAhead).Format(booking.DateLayout)

	ids := make([]booking.TicketID, 0, len(seats))
	for _, seat := range seats {
		id, err := h.Engine.BookInput(ctx, DemoUser, booking.BookingInput{
			From:           from,
			To:             to,
			Date:           date,
			Shift:          string(shift),
			Seat:           seat.String(),
			PassengerName:  "Demo Passenger",
			PassengerPhone: "081200000000",
		})
		if err != nil {
			return nil, fmt.Errorf("seed %s->%s %s %s seat %d: %w", from, to, date, shift, seat, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func loadMorningAlmostFullScenario(ctx context.Context, h *Handler) error {
	_, err := h.seed(ctx, "jakarta", "bandung", 1, booking.ShiftMorning, 1, 2, 3, 4)
	return err
}

func loadDateFullScenario(ctx context.Context, h *Handler) error {
	for _, shift := range booking.Shifts {
		if _, err := h.seed(ctx, "jakarta", "bandung", 1, shift, 1, 2, 3, 4, 5); err != nil {
			return err
		}
	}
	return nil
}

func loadMixedRoutesScenario(ctx context.Context, h *Handler) error {
	paid, err := h.seed(ctx, "jakarta", "bandung", 0, booking.ShiftAfternoon, 2)
	if err != nil {
		return err
	}
	if _, err := h.seed(ctx, "bandung", "garut", 3, booking.ShiftMorning, 1, 5); err != nil {
		return err
	}
	if _, err := h.seed(ctx, "bogor", "bekasi", 7, booking.ShiftAfternoon, 3); err != nil {
		return err
	}
	return h.Engine.MarkPaid(ctx, DemoUser, paid[0])
}
