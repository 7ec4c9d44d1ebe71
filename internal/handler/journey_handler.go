package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/domain"
)

// JourneyHandler exposes visitor journey tracking.
type JourneyHandler struct {
	sessions *SessionRegistry
	logger   *zap.Logger
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(sessions *SessionRegistry, logger *zap.Logger) *JourneyHandler {
	return &JourneyHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers journey routes.
func (h *JourneyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/journey", func(r chi.Router) {
		r.Post("/pageview", h.RecordPageView)
		r.Post("/time", h.RecordTimeSpent)
		r.Get("/context", h.GetContext)
	})
}

// PageViewRequest is the request body for recording a page view.
type PageViewRequest struct {
	Path string `json:"path"`

	// Attribution is only honored on the first call of a session.
	ReferralSource string            `json:"referral_source,omitempty"`
	CampaignData   map[string]string `json:"campaign_data,omitempty"`
}

// RecordPageView handles POST /api/v1/journey/pageview
func (h *JourneyHandler) RecordPageView(w http.ResponseWriter, r *http.Request) {
	var req PageViewRequest
	if err := decodeJSON(r, &req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		APIError(w, http.StatusBadRequest, "path is required")
		return
	}

	id := sessionID(w, r)
	sess := h.sessions.GetOrCreate(id, domain.ParseReferralSource(req.ReferralSource), req.CampaignData)
	sess.Tracker.RecordPageView(req.Path)

	JSON(w, http.StatusAccepted, sess.Tracker.Session())
}

// TimeSpentRequest is the request body for recording time on page.
type TimeSpentRequest struct {
	Seconds int `json:"seconds"`
}

// RecordTimeSpent handles POST /api/v1/journey/time
func (h *JourneyHandler) RecordTimeSpent(w http.ResponseWriter, r *http.Request) {
	var req TimeSpentRequest
	if err := decodeJSON(r, &req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Seconds <= 0 {
		APIError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}

	id := sessionID(w, r)
	sess := h.sessions.GetOrCreate(id, domain.ReferralUnknown, nil)
	sess.Tracker.RecordTimeSpent(time.Duration(req.Seconds) * time.Second)

	JSON(w, http.StatusAccepted, sess.Tracker.Session())
}

// GetContext handles GET /api/v1/journey/context
// It returns the full contact context snapshot for the session, the payload
// a contact form submission attaches.
func (h *JourneyHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	sess := h.sessions.Get(id)
	if sess == nil {
		APIError(w, http.StatusNotFound, "unknown session")
		return
	}

	JSON(w, http.StatusOK, sess.Tracker.Snapshot())
}
