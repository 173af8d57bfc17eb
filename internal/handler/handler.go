// Package handler exposes the booking service over HTTP and streams
// appointment events to websocket subscribers.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"appointment-booking-api/internal/booking"
	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/middleware"
	"appointment-booking-api/internal/notify"
)

const maxRequestBodySize = 1 << 20

// Options carries the optional knobs of a Handler.
type Options struct {
	WebSocket  config.WebSocketConfig
	SendBuffer int
	// Limiter throttles user registration when set.
	Limiter *middleware.RateLimiter
}

type Handler struct {
	svc     *booking.Service
	hub     *notify.Hub
	keys    middleware.Verifier
	limiter *middleware.RateLimiter
	ws      config.WebSocketConfig
	buffer  int
	logger  *logging.Logger
}

func New(svc *booking.Service, hub *notify.Hub, keys middleware.Verifier, logger *logging.Logger, opts Options) *Handler {
	defaults := config.Default()
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaults.Notify.BufferSize
	}
	if opts.WebSocket.PingInterval <= 0 || opts.WebSocket.PongTimeout <= 0 {
		opts.WebSocket = defaults.WebSocket
	}
	return &Handler{
		svc:     svc,
		hub:     hub,
		keys:    keys,
		limiter: opts.Limiter,
		ws:      opts.WebSocket,
		buffer:  opts.SendBuffer,
		logger:  logger.With("component", "http"),
	}
}

// Router builds the HTTP routes. Mutating appointment and user-removal routes
// require the X-API-KEY header.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(h.logRequests)
	r.Use(h.recoverPanics)
	r.Use(chimw.StripSlashes)
	r.Use(limitBody)

	key := middleware.APIKey(h.keys)

	r.Get("/health", h.health)
	r.Get("/ws", h.subscribe)

	r.Route("/users", func(r chi.Router) {
		if h.limiter != nil {
			r.With(middleware.Limit(h.limiter)).Post("/", h.createUser)
		} else {
			r.Post("/", h.createUser)
		}
		r.With(key).Delete("/{id}", h.deleteUser)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.With(key).Post("/", h.createAppointment)
		r.Get("/filter/date", h.listByDate)
		r.Get("/{id}", h.getAppointment)
		r.With(key).Patch("/{id}/cancel", h.cancelAppointment)
	})

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered in http handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", chimw.GetReqID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, errCodeInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}
