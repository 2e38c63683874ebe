package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

type RouterConfig struct {
	// AccessLogJSON selects JSON access logs; otherwise a console format.
	AccessLogJSON bool
	// AccessLog disables request logging when false.
	AccessLog bool
}

// NewRouter mounts the API under /api/v1 with root and health probes at /.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.AccessLog {
		accessLog := httplog.NewLogger(h.service, httplog.Options{
			JSON:    cfg.AccessLogJSON,
			Concise: true,
		})
		r.Use(httplog.RequestLogger(accessLog))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", h.root)
	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Post("/form/submit-form", h.submitForm)

		r.Route("/tracker", func(r chi.Router) {
			r.Post("/start-tracking", h.startTracking)
			r.Get("/status/{requestID}", h.trackingStatus)
			r.Get("/active-tasks", h.activeTasks)
			r.Post("/cancel/{requestID}", h.cancelTracking)
		})

		r.Get("/requests/{requestID}/ledger", h.requestLedger)
	})

	return r
}
