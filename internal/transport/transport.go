// Package transport defines the mail transport boundary. The engine resolves
// and times every message; a Transport only carries the handoff. Actual
// SMTP/provider delivery lives behind this interface and is out of scope
// for the engine itself.
package transport

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/domain"
)

// Transport accepts a fully-resolved, addressed, timed message for delivery.
type Transport interface {
	// Send hands one scheduled email to the delivery channel. An error means
	// the handoff failed and the dispatcher may retry; it says nothing about
	// eventual delivery.
	Send(ctx context.Context, email *domain.ScheduledEmail) error

	// Name identifies the transport in logs and metrics.
	Name() string
}

// LogTransport writes messages to the log instead of delivering them. It is
// the default in development and a safe fallback when no provider adapter
// is configured.
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport creates a log-only transport.
func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(ctx context.Context, email *domain.ScheduledEmail) error {
	t.logger.Info("email handed to log transport",
		zap.String("sequence_id", email.SequenceID),
		zap.String("template", string(email.TemplateType)),
		zap.String("recipient", email.Recipient),
		zap.String("subject", email.Subject),
	)
	return nil
}

// Recorder keeps every handed-off message in memory for the debug surface
// and for tests. Bounded to avoid unbounded growth in long dev sessions.
type Recorder struct {
	mu       sync.Mutex
	recorded []*domain.ScheduledEmail
	limit    int
}

// NewRecorder creates a recording transport keeping at most limit messages.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 200
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Send(ctx context.Context, email *domain.ScheduledEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *email
	r.recorded = append(r.recorded, &cp)
	if len(r.recorded) > r.limit {
		r.recorded = r.recorded[len(r.recorded)-r.limit:]
	}
	return nil
}

// Recorded returns a copy of all recorded messages, oldest first.
func (r *Recorder) Recorded() []*domain.ScheduledEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.ScheduledEmail, len(r.recorded))
	copy(out, r.recorded)
	return out
}

// Reset discards all recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = nil
}
