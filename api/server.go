/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery, answers 500 {"status":"failed"}
  5. CORS:       Single web client origin
  6. RateLimit:  Token bucket shared by all clients, 429 when empty

ROUTES:
  /bookTicket           POST book, GET availability, PATCH pay
  /bookedTickets        GET tickets of the caller
  /helloWorld           GET liveness
  /dev/scenarios/*      Development data sets (development only)

  A known path with any other method answers 400 "Invalid HTTP method".

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AllowedOrigin is the only origin CORS admits.
	AllowedOrigin string

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	// DevRoutes mounts /dev/scenarios.
	DevRoutes bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(h.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{opts.AllowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if opts.RateLimit > 0 {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.RateBurst, 1))))
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailed(w, http.StatusBadRequest, msgInvalidMethod)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailed(w, http.StatusNotFound, "Not found")
	})

	r.Post("/bookTicket", h.BookTicket)
	r.Get("/bookTicket", h.ListAvailability)
	r.Patch("/bookTicket", h.PayTicket)
	r.Get("/bookedTickets", h.ListBookedTickets)
	r.Get("/helloWorld", h.HelloWorld)

	if opts.DevRoutes {
		r.Route("/dev/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	}

	return r
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// recoverer turns a panic into the 500 fallback body.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger().Error("panic serving request",
				"method", r.Method, "path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"panic", rec, "stack", string(debug.Stack()))
			writeFailed(w, http.StatusInternalServerError, "")
		}()
		next.ServeHTTP(w, r)
	})
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeFailed(w, http.StatusTooManyRequests, msgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
