package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/shutdown"
)

// HealthChecker defines the interface for checking storage health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	healthChecker HealthChecker
	readiness     *shutdown.ReadinessProbe
	logger        *zap.Logger
}

// HealthHandlerConfig holds configuration for HealthHandler.
type HealthHandlerConfig struct {
	HealthChecker HealthChecker
	Readiness     *shutdown.ReadinessProbe
	Logger        *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg HealthHandlerConfig) *HealthHandler {
	if cfg.Logger == nil {
		panic("logger is required")
	}
	return &HealthHandler{
		healthChecker: cfg.HealthChecker,
		readiness:     cfg.Readiness,
		logger:        cfg.Logger,
	}
}

// RegisterRoutes registers health routes on the router.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReadiness)
	r.Get("/live", h.HandleLiveness)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}
	status := http.StatusOK

	if h.healthChecker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.healthChecker.Ping(ctx); err != nil {
			h.logger.Warn("storage health check failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Checks["storage"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["storage"] = ComponentHealth{Status: "healthy"}
		}
	}

	JSON(w, status, resp)
}

// HandleReadiness handles GET /ready
// Readiness flips to draining once shutdown begins, so load balancers stop
// routing new traffic while in-flight requests finish.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil && !h.readiness.IsReady() {
		JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: h.readiness.State().String()})
		return
	}
	JSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

// HandleLiveness handles GET /live
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{Status: "alive"})
}
