package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/domain"
	"github.com/arosling/stageside/internal/metrics"
	"github.com/arosling/stageside/internal/sequencer"
)

// SequenceHandler exposes follow-up sequence management and the template
// catalog read surface.
type SequenceHandler struct {
	sequencer *sequencer.Sequencer
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewSequenceHandler creates a new SequenceHandler.
func NewSequenceHandler(seq *sequencer.Sequencer, m *metrics.Metrics, logger *zap.Logger) *SequenceHandler {
	return &SequenceHandler{
		sequencer: seq,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterRoutes registers sequence routes.
func (h *SequenceHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sequences", func(r chi.Router) {
		r.Get("/", h.ListSequences)
		r.Get("/{sequenceID}", h.GetSequence)
		r.Post("/{sequenceID}/cancel", h.CancelSequence)
	})
	r.Route("/templates", func(r chi.Router) {
		r.Get("/{service}", h.GetTemplates)
		r.Get("/{service}/{stage}/preview", h.PreviewEmail)
	})
}

// ListSequences handles GET /api/v1/sequences
func (h *SequenceHandler) ListSequences(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	sequences, err := h.sequencer.ListSequences(r.Context(), limit, offset)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"sequences": sequences,
		"count":     len(sequences),
	})
}

// GetSequence handles GET /api/v1/sequences/{sequenceID}
// It returns the sequence metadata summary including per-status email counts.
func (h *SequenceHandler) GetSequence(w http.ResponseWriter, r *http.Request) {
	sequenceID := chi.URLParam(r, "sequenceID")
	if sequenceID == "" {
		APIError(w, http.StatusBadRequest, "sequence_id is required")
		return
	}

	meta, err := h.sequencer.GetSequenceMetadata(r.Context(), sequenceID)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, meta)
}

// CancelRequest is the optional request body for a cancellation.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelSequence handles POST /api/v1/sequences/{sequenceID}/cancel
func (h *SequenceHandler) CancelSequence(w http.ResponseWriter, r *http.Request) {
	sequenceID := chi.URLParam(r, "sequenceID")
	if sequenceID == "" {
		APIError(w, http.StatusBadRequest, "sequence_id is required")
		return
	}

	var req CancelRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			APIError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result := h.sequencer.CancelSequence(r.Context(), sequenceID, req.Reason)
	if !result.Success {
		status := http.StatusInternalServerError
		if result.Error == "sequence not found" {
			status = http.StatusNotFound
		}
		JSON(w, status, ContactResponse{Success: false, Error: result.Error})
		return
	}

	if h.metrics != nil {
		h.metrics.SequencesCancelledTotal.Inc()
	}

	JSON(w, http.StatusOK, ContactResponse{
		Success:    true,
		SequenceID: result.SequenceID,
	})
}

// GetTemplates handles GET /api/v1/templates/{service}
func (h *SequenceHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	service := domain.ServiceType(chi.URLParam(r, "service"))

	templates := h.sequencer.GetSequenceTemplates(service)
	if templates == nil {
		APIError(w, http.StatusNotFound, "unknown service type")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"service_type": service,
		"stages":       templates,
	})
}

// PreviewEmail handles GET /api/v1/templates/{service}/{stage}/preview
// It renders the stage template with sample data, without persisting
// anything.
func (h *SequenceHandler) PreviewEmail(w http.ResponseWriter, r *http.Request) {
	service := domain.ServiceType(chi.URLParam(r, "service"))
	stage := domain.EmailTemplateType(chi.URLParam(r, "stage"))

	email, err := h.sequencer.PreviewEmail(service, stage, nil)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, email)
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
