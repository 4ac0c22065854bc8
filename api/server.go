/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Metrics:    Prometheus request instrumentation
  6. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/users/*         Calendars, quotas, status, export
  /api/flags           Flag catalogue per actor
  /api/holidays        Company holiday index
  /api/bulk-hours/*    Two-phase bulk scheduler
  /api/notifications   Per-actor message queue
  /metrics             Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. The X-Actor-ID header names the acting
  user; the engine decides what that actor may do.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/calendar-engine/obs"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(obs.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// User calendar routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/days/{date}", h.GetDay)
				r.Get("/days/{date}/history", h.GetDayHistory)
				r.Post("/entries", h.SaveEntry)
				r.Get("/quotas", h.GetQuotas)
				r.Put("/quotas/extra", h.SetExtraDayLimit)
				r.Get("/status", h.GetStatus)
				r.Get("/status/history", h.GetStatusHistory)
				r.Post("/validate", h.ManagerValidate)
				r.Post("/finalize", h.HRFinalize)
				r.Get("/export", h.ExportCalendar)
			})
		})

		// Workflow routes without an owner in the path
		r.Post("/validate/self", h.ValidateSelf)

		// Flag catalogue and holiday index
		r.Get("/flags", h.ListFlags)
		r.Get("/holidays", h.ListHolidays)

		// Bulk hours routes
		r.Route("/bulk-hours", func(r chi.Router) {
			r.Post("/preview", h.PreviewBulkHours)
			r.Post("/apply", h.ApplyBulkHours)
		})

		// Quota routes
		r.Put("/quotas/vacation", h.SetVacationLimit)

		// Import/export routes
		r.Get("/export", h.ExportBulk)
		r.Post("/import", h.ImportCalendar)

		// Notification routes
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Delete("/", h.DismissNotifications)
		})
	})

	// Prometheus scrape endpoint
	r.Method("GET", "/metrics", obs.Handler())

	return r
}
