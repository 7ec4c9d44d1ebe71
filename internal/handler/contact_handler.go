package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/domain"
	"github.com/arosling/stageside/internal/metrics"
	"github.com/arosling/stageside/internal/sequencer"
)

// ContactHandler handles contact form submissions. A successful submission
// kicks off the follow-up sequence for the inquiry.
type ContactHandler struct {
	sequencer *sequencer.Sequencer
	sessions  *SessionRegistry
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(seq *sequencer.Sequencer, sessions *SessionRegistry, m *metrics.Metrics, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		sequencer: seq,
		sessions:  sessions,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterRoutes registers contact routes.
func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.Submit)
}

// ContactResponse is the API response for a contact submission. Success
// means the message was received; Warning reports a follow-up scheduling
// problem that did not affect the submission itself.
type ContactResponse struct {
	Success         bool   `json:"success"`
	SequenceID      string `json:"sequence_id,omitempty"`
	ScheduledEmails int    `json:"scheduled_emails"`
	Warning         string `json:"warning,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Submit handles POST /api/v1/contact
// The submission is enriched with the session's journey context when one
// exists, so follow-up emails carry attribution tags.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form domain.ContactFormData
	if err := decodeJSON(r, &form); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Attach journey context from the live session unless the client sent
	// its own snapshot.
	id := sessionID(w, r)
	if form.Context == nil {
		if sess := h.sessions.Get(id); sess != nil {
			form.Context = sess.Tracker.Snapshot()
		}
	}

	result := h.sequencer.InitializeFollowUpSequence(r.Context(), &form)
	if !result.Success {
		// Follow-up scheduling is best-effort: the lead's message is
		// received either way, so automation problems are reported as a
		// warning on an accepted submission. Only an invalid submission
		// itself is rejected.
		switch result.Error {
		case "email automation is disabled", "failed to schedule follow-up sequence":
			h.logger.Warn("follow-up scheduling unavailable for accepted submission",
				zap.String("service", string(form.ServiceType)),
				zap.String("reason", result.Error),
			)
			JSON(w, http.StatusCreated, ContactResponse{Success: true, Warning: result.Error})
		default:
			h.logger.Warn("contact submission rejected",
				zap.String("service", string(form.ServiceType)),
				zap.String("reason", result.Error),
			)
			JSON(w, http.StatusBadRequest, ContactResponse{Success: false, Error: result.Error})
		}
		return
	}

	if h.metrics != nil {
		h.metrics.SequencesScheduledTotal.WithLabelValues(string(form.ServiceType)).Inc()
		h.metrics.EmailsScheduledTotal.WithLabelValues(string(form.ServiceType)).Add(float64(result.ScheduledEmails))
	}

	JSON(w, http.StatusCreated, ContactResponse{
		Success:         true,
		SequenceID:      result.SequenceID,
		ScheduledEmails: result.ScheduledEmails,
	})
}
