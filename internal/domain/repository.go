package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SequenceRepository defines persistence for sequences and their scheduled
// emails. The sequencer is the only writer for a given sequence; the
// dispatcher and the debug surface are read-mostly consumers.
type SequenceRepository interface {
	// CreateSequence atomically records a sequence together with all of its
	// scheduled emails. Either everything is persisted or nothing is.
	CreateSequence(ctx context.Context, seq *EmailSequence, emails []*ScheduledEmail) error

	// GetSequence retrieves a sequence by its identifier.
	GetSequence(ctx context.Context, sequenceID string) (*EmailSequence, error)

	// UpdateSequence updates an existing sequence record.
	UpdateSequence(ctx context.Context, seq *EmailSequence) error

	// ListSequences retrieves sequences newest-first with pagination.
	ListSequences(ctx context.Context, limit, offset int) ([]*EmailSequence, error)

	// GetEmails retrieves a sequence's emails in catalog delay order.
	GetEmails(ctx context.Context, sequenceID string) ([]*ScheduledEmail, error)

	// UpdateEmail updates an existing scheduled email.
	UpdateEmail(ctx context.Context, email *ScheduledEmail) error

	// CancelPending marks every not-yet-sent email of a sequence cancelled
	// and returns how many were affected. Sent emails are untouched.
	CancelPending(ctx context.Context, sequenceID string, now time.Time) (int, error)

	// GetDueEmails retrieves emails with status=scheduled and
	// send_time <= now, oldest first.
	GetDueEmails(ctx context.Context, now time.Time, limit int) ([]*ScheduledEmail, error)

	// GetStuckEmails retrieves emails stuck in status=sending longer than
	// the given duration. Used for crash recovery on dispatcher start.
	GetStuckEmails(ctx context.Context, olderThan time.Duration, now time.Time) ([]*ScheduledEmail, error)

	// GetEmail retrieves a single scheduled email.
	GetEmail(ctx context.Context, id uuid.UUID) (*ScheduledEmail, error)

	// CountEmailsByStatus returns email counts per status for a sequence.
	CountEmailsByStatus(ctx context.Context, sequenceID string) (map[EmailStatus]int, error)
}
