package inquiry

import (
	"sync"
	"testing"
	"time"

	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
	apperrors "github.com/arosling/stageside/internal/errors"
)

var testBase = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock(testBase)
	e := New(cfg, mock, nil)
	t.Cleanup(e.Close)
	return e, mock
}

func weddingData() *domain.PerformancePricingData {
	return &domain.PerformancePricingData{
		EventType:         domain.EventWedding,
		PerformanceFormat: domain.FormatBand,
		PerformanceStyle:  domain.StyleJazz,
		Duration:          "4 hours",
	}
}

func consultationReq() *domain.ConsultationRequest {
	return &domain.ConsultationRequest{
		ServiceType:      domain.ServicePerformance,
		PreferredDates:   []time.Time{testBase.AddDate(0, 0, 7)},
		PreferredTime:    domain.SlotMorning,
		DurationMinutes:  30,
		ConsultationType: domain.ConsultationVideo,
	}
}

func TestEstimatePerformancePrice(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	est, err := e.EstimatePerformancePrice(weddingData(), nil)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if est.RangeLow != 3700 || est.RangeHigh != 10780 {
		t.Errorf("range = %d-%d, expected 3700-10780", est.RangeLow, est.RangeHigh)
	}

	state := e.State()
	if state.Phase != PhaseEstimated {
		t.Errorf("phase = %s, expected estimated", state.Phase)
	}
	if state.IsEstimating {
		t.Error("IsEstimating should be false after completion")
	}
	if !state.HasEstimate() {
		t.Error("state should hold an estimate")
	}
	if len(state.EstimateHistory) != 1 {
		t.Errorf("history length = %d, expected 1", len(state.EstimateHistory))
	}
}

func TestEstimateFailureKeepsPriorEstimate(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	first, err := e.EstimatePerformancePrice(weddingData(), nil)
	if err != nil {
		t.Fatalf("first estimate failed: %v", err)
	}

	bad := weddingData()
	bad.PerformanceFormat = "orchestra"
	if _, err := e.EstimatePerformancePrice(bad, nil); err == nil {
		t.Fatal("expected error for invalid format")
	}

	state := e.State()
	if state.Phase != PhaseError {
		t.Errorf("phase = %s, expected error", state.Phase)
	}
	if state.Error == nil || state.Error.Code != apperrors.CodeValidation {
		t.Errorf("state error = %v, expected validation code", state.Error)
	}
	if state.CurrentEstimate == nil || state.CurrentEstimate.RangeLow != first.RangeLow {
		t.Error("failed estimation must leave the prior estimate in place")
	}

	e.ClearError()
	if got := e.State(); got.Error != nil || got.Phase != PhaseEstimated {
		t.Errorf("after ClearError phase = %s, error = %v", got.Phase, got.Error)
	}
}

func TestEstimateHistoryBounded(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	for i := 0; i < maxEstimateHistory+3; i++ {
		if _, err := e.EstimatePerformancePrice(weddingData(), nil); err != nil {
			t.Fatalf("estimate %d failed: %v", i, err)
		}
	}

	state := e.State()
	if len(state.EstimateHistory) != maxEstimateHistory {
		t.Errorf("history length = %d, expected %d", len(state.EstimateHistory), maxEstimateHistory)
	}
	// Oldest entries are evicted first.
	last := state.EstimateHistory[len(state.EstimateHistory)-1]
	if last != state.CurrentEstimate {
		t.Error("most recent history entry should be the current estimate")
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryEnabled = false
	e, _ := newTestEngine(t, cfg)

	if _, err := e.EstimatePerformancePrice(weddingData(), nil); err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if got := e.State().EstimateHistory; got != nil {
		t.Errorf("history = %v, expected none", got)
	}
}

func TestEstimateExpiry(t *testing.T) {
	e, mock := newTestEngine(t, DefaultConfig())

	est, err := e.EstimatePerformancePrice(weddingData(), nil)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	mock.Advance(time.Duration(est.EstimateValidDays) * 24 * time.Hour)
	if e.EstimateExpired() {
		t.Error("estimate should be valid exactly at the boundary")
	}

	mock.Advance(time.Hour)
	state := e.State()
	if state.CurrentEstimate != nil {
		t.Error("expired estimate must not be presented as current")
	}
	if state.Phase != PhaseIdle {
		t.Errorf("phase = %s, expected idle after expiry", state.Phase)
	}
	if len(state.EstimateHistory) != 1 {
		t.Error("expiry must not erase history")
	}
}

func TestScheduleConsultation(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	booking, err := e.ScheduleConsultation(consultationReq())
	if err != nil {
		t.Fatalf("ScheduleConsultation failed: %v", err)
	}
	if booking.Status != domain.ConsultationPending {
		t.Errorf("status = %s, expected pending", booking.Status)
	}

	// A second request while the first is active is rejected.
	if _, err := e.ScheduleConsultation(consultationReq()); err == nil {
		t.Fatal("expected rejection of overlapping booking")
	} else if apperrors.CodeOf(err) != apperrors.CodeBookingInProgress {
		t.Errorf("code = %s, expected booking in progress", apperrors.CodeOf(err))
	}

	// The first booking is untouched by the rejected request.
	state := e.State()
	if state.Consultation == nil || state.Consultation.ID != booking.ID {
		t.Error("original booking was disturbed")
	}
}

func TestScheduleConsultation_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConsultationEnabled = false
	e, _ := newTestEngine(t, cfg)

	_, err := e.ScheduleConsultation(consultationReq())
	if apperrors.CodeOf(err) != apperrors.CodeFeatureDisabled {
		t.Errorf("code = %s, expected feature disabled", apperrors.CodeOf(err))
	}
}

func TestScheduleConsultation_Invalid(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	req := consultationReq()
	req.DurationMinutes = 15
	if _, err := e.ScheduleConsultation(req); apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Errorf("code = %s, expected validation", apperrors.CodeOf(err))
	}
}

func TestScheduleFollowUp(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	if err := e.ScheduleFollowUp(0); err == nil {
		t.Error("expected error for non-positive days")
	}
	if err := e.ScheduleFollowUp(3); err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}
	// Repeat calls do not overwrite the first schedule.
	if err := e.ScheduleFollowUp(7); err != nil {
		t.Fatalf("repeat ScheduleFollowUp failed: %v", err)
	}

	state := e.State()
	if !state.FollowUpScheduled || state.FollowUpDays != 3 {
		t.Errorf("follow-up = (%v, %d), expected (true, 3)", state.FollowUpScheduled, state.FollowUpDays)
	}
}

func TestClearEstimateResetsState(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	if _, err := e.EstimatePerformancePrice(weddingData(), nil); err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	e.ClearEstimate()

	state := e.State()
	if state.Phase != PhaseIdle || state.CurrentEstimate != nil || len(state.EstimateHistory) != 0 {
		t.Errorf("state after clear = %+v", state)
	}
}

// gateClock holds After callers until released, so a test can decide whether
// a pending booking promotion lands before or after a state reset.
type gateClock struct {
	*clock.Mock
	mu       sync.Mutex
	released bool
	gates    []chan time.Time
}

func (g *gateClock) After(d time.Duration) <-chan time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan time.Time, 1)
	if g.released {
		// A caller arriving after release (the goroutine had not been
		// scheduled yet) gets an already-fired gate so it is not held
		// forever on a single-CPU machine.
		ch <- g.Now()
		return ch
	}
	g.gates = append(g.gates, ch)
	return ch
}

func (g *gateClock) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = true
	for _, ch := range g.gates {
		ch <- g.Now()
	}
	g.gates = nil
}

func TestClearEstimateInvalidatesPendingPromotion(t *testing.T) {
	gate := &gateClock{Mock: clock.NewMock(testBase)}
	e := New(DefaultConfig(), gate, nil)
	defer e.Close()

	if _, err := e.ScheduleConsultation(consultationReq()); err != nil {
		t.Fatalf("ScheduleConsultation failed: %v", err)
	}

	// Reset while the promotion is still waiting, then book again.
	e.ClearEstimate()
	second, err := e.ScheduleConsultation(consultationReq())
	if err != nil {
		t.Fatalf("rebooking failed: %v", err)
	}

	gate.release()

	// The stale promotion must not touch the new booking; only the second
	// goroutine, released at the same time, may promote it. Poll briefly to
	// let the goroutines drain.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := e.State()
		if state.Consultation == nil || state.Consultation.ID != second.ID {
			t.Fatalf("booking replaced by a stale promotion: %+v", state.Consultation)
		}
		if state.Consultation.Status == domain.ConsultationScheduled {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("second booking was never promoted")
}

func TestCloseStopsPromotions(t *testing.T) {
	gate := &gateClock{Mock: clock.NewMock(testBase)}
	e := New(DefaultConfig(), gate, nil)

	if _, err := e.ScheduleConsultation(consultationReq()); err != nil {
		t.Fatalf("ScheduleConsultation failed: %v", err)
	}

	e.Close()
	gate.release()

	time.Sleep(50 * time.Millisecond)
	if got := e.State().Consultation.Status; got != domain.ConsultationPending {
		t.Errorf("status = %s, promotion should be a no-op after Close", got)
	}
}
