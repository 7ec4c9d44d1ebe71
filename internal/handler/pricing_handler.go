package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/domain"
	"github.com/arosling/stageside/internal/metrics"
)

// PricingHandler exposes the pricing estimation state machine.
type PricingHandler struct {
	sessions *SessionRegistry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(sessions *SessionRegistry, m *metrics.Metrics, logger *zap.Logger) *PricingHandler {
	return &PricingHandler{
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}
}

// RegisterRoutes registers pricing routes.
func (h *PricingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/pricing", func(r chi.Router) {
		r.Post("/performance", h.EstimatePerformance)
		r.Post("/collaboration", h.EstimateCollaboration)
		r.Get("/state", h.GetState)
		r.Post("/consultation", h.ScheduleConsultation)
		r.Post("/followup", h.ScheduleFollowUp)
		r.Delete("/estimate", h.ClearEstimate)
		r.Post("/error/dismiss", h.DismissError)
	})
}

// EstimateResponse pairs a computed estimate with the machine state after
// the transition, so the frontend renders from one payload.
type EstimateResponse struct {
	Estimate  *domain.PriceEstimate    `json:"estimate"`
	Formatted domain.FormattedEstimate `json:"formatted"`
	State     interface{}              `json:"state"`
}

// EstimatePerformance handles POST /api/v1/pricing/performance
func (h *PricingHandler) EstimatePerformance(w http.ResponseWriter, r *http.Request) {
	var data domain.PerformancePricingData
	if err := decodeJSON(r, &data); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := sessionID(w, r)
	sess := h.sessions.GetOrCreate(id, domain.ReferralUnknown, nil)

	estimate, err := sess.Engine.EstimatePerformancePrice(&data, sess.Tracker.Snapshot())
	h.recordEstimate(domain.ServicePerformance, estimate, err)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, EstimateResponse{
		Estimate:  estimate,
		Formatted: estimate.Format(),
		State:     sess.Engine.State(),
	})
}

// EstimateCollaboration handles POST /api/v1/pricing/collaboration
func (h *PricingHandler) EstimateCollaboration(w http.ResponseWriter, r *http.Request) {
	var data domain.CollaborationPricingData
	if err := decodeJSON(r, &data); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := sessionID(w, r)
	sess := h.sessions.GetOrCreate(id, domain.ReferralUnknown, nil)

	estimate, err := sess.Engine.EstimateCollaborationPrice(&data, sess.Tracker.Snapshot())
	h.recordEstimate(domain.ServiceCollaboration, estimate, err)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, EstimateResponse{
		Estimate:  estimate,
		Formatted: estimate.Format(),
		State:     sess.Engine.State(),
	})
}

// GetState handles GET /api/v1/pricing/state
func (h *PricingHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	sess := h.sessions.Get(id)
	if sess == nil {
		APIError(w, http.StatusNotFound, "unknown session")
		return
	}

	JSON(w, http.StatusOK, sess.Engine.State())
}

// ScheduleConsultation handles POST /api/v1/pricing/consultation
func (h *PricingHandler) ScheduleConsultation(w http.ResponseWriter, r *http.Request) {
	var req domain.ConsultationRequest
	if err := decodeJSON(r, &req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := sessionID(w, r)
	sess := h.sessions.GetOrCreate(id, domain.ReferralUnknown, nil)

	booking, err := sess.Engine.ScheduleConsultation(&req)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ConsultationBookings.WithLabelValues(string(req.ServiceType)).Inc()
	}

	JSON(w, http.StatusAccepted, booking)
}

// FollowUpRequest is the request body for follow-up scheduling.
type FollowUpRequest struct {
	Days int `json:"days"`
}

// ScheduleFollowUp handles POST /api/v1/pricing/followup
func (h *PricingHandler) ScheduleFollowUp(w http.ResponseWriter, r *http.Request) {
	var req FollowUpRequest
	if err := decodeJSON(r, &req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := sessionID(w, r)
	sess := h.sessions.GetOrCreate(id, domain.ReferralUnknown, nil)

	if err := sess.Engine.ScheduleFollowUp(req.Days); err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusAccepted, sess.Engine.State())
}

// ClearEstimate handles DELETE /api/v1/pricing/estimate
// It resets the machine to Idle and invalidates any in-flight consultation
// promotion for the session.
func (h *PricingHandler) ClearEstimate(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	sess := h.sessions.Get(id)
	if sess == nil {
		APIError(w, http.StatusNotFound, "unknown session")
		return
	}

	sess.Engine.ClearEstimate()
	JSON(w, http.StatusOK, sess.Engine.State())
}

// DismissError handles POST /api/v1/pricing/error/dismiss
func (h *PricingHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	sess := h.sessions.Get(id)
	if sess == nil {
		APIError(w, http.StatusNotFound, "unknown session")
		return
	}

	sess.Engine.ClearError()
	JSON(w, http.StatusOK, sess.Engine.State())
}

func (h *PricingHandler) recordEstimate(service domain.ServiceType, estimate *domain.PriceEstimate, err error) {
	if h.metrics == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	h.metrics.EstimatesTotal.WithLabelValues(string(service), outcome).Inc()
	if err == nil && estimate != nil && estimate.ConsultationRecommended {
		h.metrics.ConsultationsRecommended.Inc()
	}
}
