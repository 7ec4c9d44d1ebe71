package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/transport"
)

// DebugHandler exposes development-only introspection: emails captured by
// the recording transport and live session counts. It is only mounted when
// the server runs in development mode.
type DebugHandler struct {
	recorder *transport.Recorder
	sessions *SessionRegistry
	logger   *zap.Logger
}

// NewDebugHandler creates a new DebugHandler. The recorder may be nil when
// the log transport is configured.
func NewDebugHandler(recorder *transport.Recorder, sessions *SessionRegistry, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{
		recorder: recorder,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers debug routes.
func (h *DebugHandler) RegisterRoutes(r chi.Router) {
	r.Get("/emails", h.RecordedEmails)
	r.Delete("/emails", h.ResetRecorder)
	r.Get("/sessions", h.SessionStats)
}

// RecordedEmails handles GET /debug/emails
func (h *DebugHandler) RecordedEmails(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		APIError(w, http.StatusNotFound, "recording transport not enabled")
		return
	}
	emails := h.recorder.Recorded()
	JSON(w, http.StatusOK, map[string]interface{}{
		"emails": emails,
		"count":  len(emails),
	})
}

// ResetRecorder handles DELETE /debug/emails
func (h *DebugHandler) ResetRecorder(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		APIError(w, http.StatusNotFound, "recording transport not enabled")
		return
	}
	h.recorder.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// SessionStats handles GET /debug/sessions
func (h *DebugHandler) SessionStats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"live_sessions": h.sessions.Len(),
	})
}
