// Package inquiry implements the pricing state machine used while a visitor
// is still anonymous: it orchestrates the pricing engine, keeps estimate
// history, and manages the consultation-booking side workflow.
//
// The state lives in an explicit State value mutated only through engine
// methods; there is no hidden framework primitive behind it. Expected
// failures are captured in State.Error and returned to the caller, never
// panicked across the boundary.
package inquiry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
	apperrors "github.com/arosling/stageside/internal/errors"
	"github.com/arosling/stageside/internal/pricing"
)

// Phase is the top-level state of the machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseEstimating Phase = "estimating"
	PhaseEstimated  Phase = "estimated"
	PhaseError      Phase = "error"
)

// maxEstimateHistory bounds the FIFO estimate history.
const maxEstimateHistory = 5

// Config controls engine features. It is passed explicitly into New so
// tests can run differently configured engines side by side.
type Config struct {
	// HistoryEnabled turns estimate history tracking on.
	HistoryEnabled bool
	// ConsultationEnabled gates the consultation booking workflow.
	ConsultationEnabled bool
	// ConsultationSettleDelay stands in for a real availability backend:
	// a pending booking is promoted to scheduled after this delay.
	ConsultationSettleDelay time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HistoryEnabled:          true,
		ConsultationEnabled:     true,
		ConsultationSettleDelay: 2 * time.Second,
	}
}

// State is the observable state of the machine. Engine.State returns a
// deep copy; callers never hold a reference into live state.
type State struct {
	Phase             Phase                       `json:"phase"`
	ServiceType       domain.ServiceType          `json:"service_type,omitempty"`
	CurrentEstimate   *domain.PriceEstimate       `json:"current_estimate,omitempty"`
	IsEstimating      bool                        `json:"is_estimating"`
	EstimateHistory   []*domain.PriceEstimate     `json:"estimate_history,omitempty"`
	Consultation      *domain.ConsultationBooking `json:"consultation,omitempty"`
	FollowUpScheduled bool                        `json:"follow_up_scheduled"`
	FollowUpDays      int                         `json:"follow_up_days,omitempty"`
	Error             *apperrors.Error            `json:"error,omitempty"`
}

// HasEstimate reports whether a current estimate is held.
func (s *State) HasEstimate() bool {
	return s.CurrentEstimate != nil
}

// Bookable reports whether a consultation can be requested from this state.
func (s *State) Bookable() bool {
	return s.Consultation == nil || !s.Consultation.Active()
}

// Engine is the inquiry pricing state machine.
type Engine struct {
	cfg    Config
	clk    clock.Clock
	logger *zap.Logger

	mu    sync.Mutex
	state State

	// bookingGen invalidates in-flight consultation promotions. A promotion
	// captured under an older generation must not mutate state; a plain
	// boolean cannot handle rapid clear-and-rebook cycles.
	bookingGen uint64
	closed     bool
}

// New creates an engine in the Idle state.
func New(cfg Config, clk clock.Clock, logger *zap.Logger) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		clk:    clk,
		logger: logger,
		state:  State{Phase: PhaseIdle},
	}
}

// State returns a snapshot of the current state. Expiry is evaluated lazily
// here: an estimate past its validity window is cleared before the snapshot
// is taken, so an expired estimate is never presented as current.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expireLocked()
	return e.snapshotLocked()
}

// EstimateExpired reports whether the current estimate has passed its
// validity window. Like State, it clears an expired estimate on read.
func (e *Engine) EstimateExpired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	expired := e.state.CurrentEstimate != nil && e.state.CurrentEstimate.Expired(e.clk.Now())
	e.expireLocked()
	return expired
}

// EstimatePerformancePrice runs a performance pricing estimation. On failure
// the machine transitions to Error and any prior estimate is left in place.
func (e *Engine) EstimatePerformancePrice(data *domain.PerformancePricingData, visitor *domain.ContactContext) (*domain.PriceEstimate, error) {
	return e.estimate(domain.ServicePerformance, func(now time.Time) (*domain.PriceEstimate, error) {
		return pricing.EstimatePerformance(data, visitor, now)
	})
}

// EstimateCollaborationPrice runs a collaboration pricing estimation.
func (e *Engine) EstimateCollaborationPrice(data *domain.CollaborationPricingData, visitor *domain.ContactContext) (*domain.PriceEstimate, error) {
	return e.estimate(domain.ServiceCollaboration, func(now time.Time) (*domain.PriceEstimate, error) {
		return pricing.EstimateCollaboration(data, visitor, now)
	})
}

func (e *Engine) estimate(service domain.ServiceType, run func(now time.Time) (*domain.PriceEstimate, error)) (*domain.PriceEstimate, error) {
	e.mu.Lock()
	e.state.Phase = PhaseEstimating
	e.state.IsEstimating = true
	now := e.clk.Now()
	e.mu.Unlock()

	est, err := run(now)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.IsEstimating = false

	if err != nil {
		appErr := apperrors.WrapWithOp(err, "inquiry.estimate")
		e.state.Phase = PhaseError
		e.state.Error = appErr
		e.logger.Warn("estimate failed",
			zap.String("service", string(service)),
			zap.Error(appErr),
		)
		return nil, appErr
	}

	e.state.Phase = PhaseEstimated
	e.state.ServiceType = service
	e.state.CurrentEstimate = est
	e.state.Error = nil
	if e.cfg.HistoryEnabled {
		e.state.EstimateHistory = append(e.state.EstimateHistory, est)
		if len(e.state.EstimateHistory) > maxEstimateHistory {
			e.state.EstimateHistory = e.state.EstimateHistory[len(e.state.EstimateHistory)-maxEstimateHistory:]
		}
	}

	e.logger.Info("estimate computed",
		zap.String("service", string(service)),
		zap.Int("range_low", est.RangeLow),
		zap.Int("range_high", est.RangeHigh),
		zap.Bool("consultation_recommended", est.ConsultationRecommended),
	)
	return est, nil
}

// ScheduleConsultation requests a consultation booking. At most one booking
// may be active per engine; a second request while one is pending or
// scheduled is rejected without touching the first.
func (e *Engine) ScheduleConsultation(req *domain.ConsultationRequest) (*domain.ConsultationBooking, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.ConsultationEnabled {
		err := apperrors.FeatureDisabled("consultation booking")
		e.state.Error = err
		return nil, err
	}
	if e.state.Consultation != nil && e.state.Consultation.Active() {
		err := apperrors.BookingInProgress()
		e.state.Error = err
		return nil, err
	}
	if err := req.Validate(); err != nil {
		appErr := apperrors.Wrap(err, "inquiry.ScheduleConsultation", apperrors.CodeValidation, err.Error())
		e.state.Error = appErr
		return nil, appErr
	}

	now := e.clk.Now()
	booking := domain.NewConsultationBooking(req, now)
	e.state.Consultation = booking
	e.state.Error = nil

	gen := e.bookingGen
	go e.settleBooking(gen, booking.ID.String())

	e.logger.Info("consultation requested",
		zap.String("booking_id", booking.ID.String()),
		zap.String("service", string(req.ServiceType)),
	)
	return e.cloneBookingLocked(), nil
}

// settleBooking promotes a pending booking to scheduled after the settle
// delay. The generation captured at request time guards against promotions
// landing after ClearEstimate or Close.
func (e *Engine) settleBooking(gen uint64, bookingID string) {
	<-e.clk.After(e.cfg.ConsultationSettleDelay)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.bookingGen {
		return
	}
	booking := e.state.Consultation
	if booking == nil || booking.ID.String() != bookingID || booking.Status != domain.ConsultationPending {
		return
	}

	now := e.clk.Now()
	at := concreteSlot(booking, now)
	if err := booking.MarkScheduled(at, now); err != nil {
		e.logger.Warn("booking promotion failed", zap.Error(err))
		return
	}
	e.logger.Info("consultation scheduled",
		zap.String("booking_id", bookingID),
		zap.Time("scheduled_for", at),
	)
}

// concreteSlot derives the scheduled time from the booking's first
// preferred date and time slot.
func concreteSlot(b *domain.ConsultationBooking, now time.Time) time.Time {
	day := now.AddDate(0, 0, 3)
	if len(b.PreferredDates) > 0 {
		day = b.PreferredDates[0]
	}
	hour := 14
	switch b.PreferredTime {
	case domain.SlotMorning:
		hour = 10
	case domain.SlotEvening:
		hour = 18
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

// ScheduleFollowUp records that a follow-up reminder was requested. This is
// advisory bookkeeping only; actual follow-up execution belongs to the email
// sequencer. Repeated calls are a no-op.
func (e *Engine) ScheduleFollowUp(days int) error {
	if days <= 0 {
		return apperrors.ValidationFailed("follow-up days must be positive")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.FollowUpScheduled {
		return nil
	}
	e.state.FollowUpScheduled = true
	e.state.FollowUpDays = days
	return nil
}

// ClearEstimate resets the machine to its defaults and invalidates any
// in-flight consultation promotion.
func (e *Engine) ClearEstimate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bookingGen++
	e.state = State{Phase: PhaseIdle}
}

// ClearError clears a stored error, returning to Idle or Estimated
// depending on whether an estimate is held.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Error = nil
	if e.state.Phase == PhaseError {
		if e.state.CurrentEstimate != nil {
			e.state.Phase = PhaseEstimated
		} else {
			e.state.Phase = PhaseIdle
		}
	}
}

// Close tears the engine down. Any pending booking promotion becomes a
// no-op.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.bookingGen++
}

// expireLocked clears an estimate past its validity window. Self-transition
// to Idle; history and consultation state are kept.
func (e *Engine) expireLocked() {
	est := e.state.CurrentEstimate
	if est == nil || !est.Expired(e.clk.Now()) {
		return
	}
	e.logger.Info("estimate expired",
		zap.String("service", string(est.ServiceType)),
		zap.Time("created_at", est.CreatedAt),
	)
	e.state.CurrentEstimate = nil
	if e.state.Phase == PhaseEstimated {
		e.state.Phase = PhaseIdle
	}
}

func (e *Engine) snapshotLocked() State {
	s := e.state
	if len(e.state.EstimateHistory) > 0 {
		s.EstimateHistory = make([]*domain.PriceEstimate, len(e.state.EstimateHistory))
		copy(s.EstimateHistory, e.state.EstimateHistory)
	}
	if e.state.Consultation != nil {
		s.Consultation = e.cloneBookingLocked()
	}
	return s
}

func (e *Engine) cloneBookingLocked() *domain.ConsultationBooking {
	b := *e.state.Consultation
	b.PreferredDates = make([]time.Time, len(e.state.Consultation.PreferredDates))
	copy(b.PreferredDates, e.state.Consultation.PreferredDates)
	return &b
}
