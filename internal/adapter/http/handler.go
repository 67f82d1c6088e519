package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atlas-ads/internal/core/port"
)

// Handler contains dependencies and routes. It is the inbound HTTP
// adapter: it decodes requests, invokes the usecase and maps typed
// outcomes to status codes.
type Handler struct {
	svc     port.AdUseCase
	logger  *slog.Logger
	metrics http.Handler
	router  chi.Router
}

// NewHandler creates a handler with all routes configured. metricsHandler
// serves the Prometheus registry and may be nil.
func NewHandler(svc port.AdUseCase, logger *slog.Logger, metricsHandler http.Handler) *Handler {
	h := &Handler{svc: svc, logger: logger, metrics: metricsHandler}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ads/request", h.handleAdRequest)
		r.Post("/ads/{ad_id}/click", h.handleAdClick)
		r.Get("/analytics/overview", h.handleAnalytics)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

func (h *Handler) writeDetail(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}
