package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailTemplateType identifies one stage of a follow-up sequence.
type EmailTemplateType string

const (
	StageImmediateConfirmation EmailTemplateType = "immediate_confirmation"
	StageFollowUp24h           EmailTemplateType = "follow_up_24h"
	StageFollowUp3Days         EmailTemplateType = "follow_up_3days"
	StageFollowUp1Week         EmailTemplateType = "follow_up_1week"
	StageFinalFollowUp         EmailTemplateType = "final_follow_up"
)

// StageOrder lists every stage in catalog delay order. A sequence always
// contains exactly one scheduled email per stage.
var StageOrder = []EmailTemplateType{
	StageImmediateConfirmation,
	StageFollowUp24h,
	StageFollowUp3Days,
	StageFollowUp1Week,
	StageFinalFollowUp,
}

// SequenceStatus is the lifecycle status of a whole sequence, independent of
// the status of its individual emails.
type SequenceStatus string

const (
	SequenceActive    SequenceStatus = "active"
	SequenceCancelled SequenceStatus = "cancelled"
	SequenceCompleted SequenceStatus = "completed"
)

// EmailStatus tracks one scheduled email from creation to the send boundary.
type EmailStatus string

const (
	EmailScheduled EmailStatus = "scheduled"
	EmailSending   EmailStatus = "sending"
	EmailSent      EmailStatus = "sent"
	EmailCancelled EmailStatus = "cancelled"
	EmailFailed    EmailStatus = "failed"
)

// EmailSequence owns the fixed, ordered set of follow-up emails scheduled
// for one inquiry submission.
type EmailSequence struct {
	SequenceID   string         `json:"sequence_id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	ServiceType  ServiceType    `json:"service_type"`
	Status       SequenceStatus `json:"status"`
	TotalEmails  int            `json:"total_emails"`
	Tags         []string       `json:"tags,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	CancelReason *string        `json:"cancel_reason,omitempty"`
}

// ScheduledEmail is one fully-resolved, addressed, timed message awaiting
// dispatch. Content is already personalized; the dispatcher only moves it
// across the transport boundary.
type ScheduledEmail struct {
	ID           uuid.UUID         `json:"id"`
	SequenceID   string            `json:"sequence_id"`
	TemplateType EmailTemplateType `json:"template_type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	HTMLContent  string            `json:"html_content"`
	TextContent  string            `json:"text_content"`
	Tags         []string          `json:"tags,omitempty"`
	SendTime     time.Time         `json:"send_time"`
	Status       EmailStatus       `json:"status"`

	// Dispatch bookkeeping
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   *string    `json:"last_error,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CanRetry returns true if a failed dispatch attempt may be retried.
func (e *ScheduledEmail) CanRetry() bool {
	return e.Attempts < e.MaxAttempts && e.Status != EmailSent && e.Status != EmailCancelled
}

// Terminal returns true if the email has reached a final state.
func (e *ScheduledEmail) Terminal() bool {
	return e.Status == EmailSent || e.Status == EmailCancelled || e.Status == EmailFailed
}

// MarkSending marks the email as handed to a dispatch worker.
func (e *ScheduledEmail) MarkSending(now time.Time) {
	e.Status = EmailSending
	e.Attempts++
	e.UpdatedAt = now
}

// MarkSent records a successful handoff to the transport.
func (e *ScheduledEmail) MarkSent(now time.Time) {
	e.Status = EmailSent
	e.SentAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a dispatch failure. If retries remain the email is
// pushed back to scheduled with a backoff on its send time; otherwise it is
// failed permanently.
func (e *ScheduledEmail) MarkFailed(err error, now time.Time) {
	msg := err.Error()
	e.LastError = &msg
	e.UpdatedAt = now
	if e.CanRetry() {
		e.SendTime = now.Add(dispatchBackoff(e.Attempts))
		e.Status = EmailScheduled
	} else {
		e.Status = EmailFailed
	}
}

// dispatchBackoff returns the retry delay after the given attempt count.
func dispatchBackoff(attempts int) time.Duration {
	switch attempts {
	case 1:
		return 1 * time.Minute
	case 2:
		return 5 * time.Minute
	default:
		return 30 * time.Minute
	}
}

// ContactFormData is a raw form submission from the site: the moment a
// visitor becomes a lead.
type ContactFormData struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	ServiceType ServiceType     `json:"service_type"`
	Message     string          `json:"message,omitempty"`
	Context     *ContactContext `json:"context,omitempty"`
}

// EmailAutomationResult reports the outcome of a sequence operation. The
// sequencer communicates expected failures through this result, never by
// panicking across its boundary.
type EmailAutomationResult struct {
	Success         bool   `json:"success"`
	SequenceID      string `json:"sequence_id,omitempty"`
	ScheduledEmails int    `json:"scheduled_emails,omitempty"`
	Error           string `json:"error,omitempty"`
}

// SequenceMetadata summarizes a sequence and its email statuses for the
// analytics/debug surface.
type SequenceMetadata struct {
	SequenceID  string              `json:"sequence_id"`
	ServiceType ServiceType         `json:"service_type"`
	Status      SequenceStatus      `json:"status"`
	TotalEmails int                 `json:"total_emails"`
	ByStatus    map[EmailStatus]int `json:"by_status"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewSequenceID builds a collision-resistant sequence identifier. The prefix
// is derivable from the submission (email, service type, timestamp); the
// uuid suffix keeps repeat submissions in the same second distinct.
func NewSequenceID(email string, service ServiceType, submittedAt time.Time) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("seq_%s_%s_%d_%s",
		hex.EncodeToString(sum[:4]),
		service,
		submittedAt.Unix(),
		uuid.New().String()[:8],
	)
}
