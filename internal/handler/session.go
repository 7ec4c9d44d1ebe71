package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
	"github.com/arosling/stageside/internal/inquiry"
	"github.com/arosling/stageside/internal/journey"
)

// SessionIDHeader carries the visitor session identifier. The frontend
// generates one per browser session and echoes it on every call.
const SessionIDHeader = "X-Session-ID"

// defaultSessionTTL is how long an idle session is kept before pruning.
const defaultSessionTTL = 2 * time.Hour

// Session bundles the per-visitor state: the journey tracker feeding
// pricing context and the inquiry pricing state machine.
type Session struct {
	ID       string
	Tracker  *journey.Tracker
	Engine   *inquiry.Engine
	lastSeen time.Time
}

// SessionRegistry hands out per-visitor sessions and prunes idle ones.
type SessionRegistry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	engineCfg inquiry.Config
	ttl       time.Duration
	clk       clock.Clock
	logger    *zap.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewSessionRegistry creates a registry and starts its prune loop.
func NewSessionRegistry(engineCfg inquiry.Config, clk clock.Clock, logger *zap.Logger) *SessionRegistry {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &SessionRegistry{
		sessions:  make(map[string]*Session),
		engineCfg: engineCfg,
		ttl:       defaultSessionTTL,
		clk:       clk,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
	go r.pruneLoop()
	return r
}

// GetOrCreate returns the session for the given ID, creating it if needed.
// Referral attribution is fixed at session creation.
func (r *SessionRegistry) GetOrCreate(id string, referral domain.ReferralSourceType, campaign map[string]string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.clk.Now()
		return s
	}

	s := &Session{
		ID:       id,
		Tracker:  journey.New(referral, campaign, r.clk),
		Engine:   inquiry.New(r.engineCfg, r.clk, r.logger.Named("inquiry")),
		lastSeen: r.clk.Now(),
	}
	r.sessions[id] = s
	r.logger.Debug("session created",
		zap.String("session_id", id),
		zap.String("referral", string(referral)),
	)
	return s
}

// Get returns an existing session or nil.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	s.lastSeen = r.clk.Now()
	return s
}

// Remove closes and drops a session.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Engine.Close()
	}
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the prune loop and closes every session engine.
func (r *SessionRegistry) Close() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Engine.Close()
	}
}

func (r *SessionRegistry) pruneLoop() {
	ticker := r.clk.NewTicker(r.ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C():
			r.prune()
		}
	}
}

func (r *SessionRegistry) prune() {
	now := r.clk.Now()

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Engine.Close()
	}
	if len(stale) > 0 {
		r.logger.Debug("pruned idle sessions", zap.Int("count", len(stale)))
	}
}

// sessionID extracts the session ID from a request, generating one when the
// client has not sent any. The ID is echoed back so the client can adopt it.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(SessionIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	w.Header().Set(SessionIDHeader, id)
	return id
}
