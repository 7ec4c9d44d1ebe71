package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConsultationStatus tracks a booking through its lifecycle. Transitions are
// one-directional: pending -> scheduled -> completed, with cancellation
// allowed from pending or scheduled.
type ConsultationStatus string

const (
	ConsultationPending   ConsultationStatus = "pending"
	ConsultationScheduled ConsultationStatus = "scheduled"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationCancelled ConsultationStatus = "cancelled"
)

// PreferredTimeSlot is the visitor's preferred time of day.
type PreferredTimeSlot string

const (
	SlotMorning   PreferredTimeSlot = "morning"
	SlotAfternoon PreferredTimeSlot = "afternoon"
	SlotEvening   PreferredTimeSlot = "evening"
)

// ConsultationType is the medium for a consultation conversation.
type ConsultationType string

const (
	ConsultationPhone    ConsultationType = "phone"
	ConsultationVideo    ConsultationType = "video"
	ConsultationInPerson ConsultationType = "in_person"
)

// ConsultationBooking is a requested human conversation, offered alongside
// or instead of an automated price estimate.
type ConsultationBooking struct {
	ID               uuid.UUID          `json:"id"`
	ServiceType      ServiceType        `json:"service_type"`
	PreferredDates   []time.Time        `json:"preferred_dates"`
	PreferredTime    PreferredTimeSlot  `json:"preferred_time"`
	DurationMinutes  int                `json:"duration_minutes"`
	ConsultationType ConsultationType   `json:"consultation_type"`
	Status           ConsultationStatus `json:"status"`
	ScheduledFor     *time.Time         `json:"scheduled_for,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ConsultationRequest carries the fields a visitor supplies when asking for
// a consultation; the engine fills in identity and status.
type ConsultationRequest struct {
	ServiceType      ServiceType       `json:"service_type"`
	PreferredDates   []time.Time       `json:"preferred_dates"`
	PreferredTime    PreferredTimeSlot `json:"preferred_time"`
	DurationMinutes  int               `json:"duration_minutes"`
	ConsultationType ConsultationType  `json:"consultation_type"`
}

// Validate checks a consultation request for well-formed fields.
func (r *ConsultationRequest) Validate() error {
	if !r.ServiceType.Valid() {
		return fmt.Errorf("invalid service type: %q", r.ServiceType)
	}
	if len(r.PreferredDates) == 0 {
		return fmt.Errorf("at least one preferred date is required")
	}
	switch r.DurationMinutes {
	case 30, 45, 60:
	default:
		return fmt.Errorf("duration must be 30, 45 or 60 minutes, got %d", r.DurationMinutes)
	}
	switch r.PreferredTime {
	case SlotMorning, SlotAfternoon, SlotEvening:
	default:
		return fmt.Errorf("invalid preferred time slot: %q", r.PreferredTime)
	}
	switch r.ConsultationType {
	case ConsultationPhone, ConsultationVideo, ConsultationInPerson:
	default:
		return fmt.Errorf("invalid consultation type: %q", r.ConsultationType)
	}
	return nil
}

// NewConsultationBooking creates a pending booking from a validated request.
func NewConsultationBooking(req *ConsultationRequest, now time.Time) *ConsultationBooking {
	dates := make([]time.Time, len(req.PreferredDates))
	copy(dates, req.PreferredDates)
	return &ConsultationBooking{
		ID:               uuid.New(),
		ServiceType:      req.ServiceType,
		PreferredDates:   dates,
		PreferredTime:    req.PreferredTime,
		DurationMinutes:  req.DurationMinutes,
		ConsultationType: req.ConsultationType,
		Status:           ConsultationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// MarkScheduled promotes a pending booking to scheduled with a concrete time.
func (b *ConsultationBooking) MarkScheduled(at time.Time, now time.Time) error {
	if b.Status != ConsultationPending {
		return fmt.Errorf("cannot schedule booking in status %q", b.Status)
	}
	b.Status = ConsultationScheduled
	b.ScheduledFor = &at
	b.UpdatedAt = now
	return nil
}

// MarkCompleted closes out a scheduled booking.
func (b *ConsultationBooking) MarkCompleted(now time.Time) error {
	if b.Status != ConsultationScheduled {
		return fmt.Errorf("cannot complete booking in status %q", b.Status)
	}
	b.Status = ConsultationCompleted
	b.UpdatedAt = now
	return nil
}

// MarkCancelled cancels a pending or scheduled booking.
func (b *ConsultationBooking) MarkCancelled(now time.Time) error {
	switch b.Status {
	case ConsultationPending, ConsultationScheduled:
		b.Status = ConsultationCancelled
		b.UpdatedAt = now
		return nil
	default:
		return fmt.Errorf("cannot cancel booking in status %q", b.Status)
	}
}

// Active reports whether the booking still occupies the engine's single
// booking slot.
func (b *ConsultationBooking) Active() bool {
	return b.Status == ConsultationPending || b.Status == ConsultationScheduled
}
