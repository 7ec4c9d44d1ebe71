package sequencer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arosling/stageside/internal/catalog"
	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
	"github.com/arosling/stageside/internal/repository"
)

var testBase = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestSequencer(t *testing.T, enabled bool) (*Sequencer, *repository.MemorySequenceRepository, *clock.Mock) {
	t.Helper()
	cat, err := catalog.New()
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	repo := repository.NewMemorySequenceRepository()
	mock := clock.NewMock(testBase)
	return New(Config{Enabled: enabled}, cat, repo, mock, nil), repo, mock
}

func emmaForm() *domain.ContactFormData {
	return &domain.ContactFormData{
		Name:        "Emma",
		Email:       "emma@example.com",
		ServiceType: domain.ServiceTeaching,
		Message:     "Interested in jazz piano lessons for my daughter.",
	}
}

func TestInitializeFollowUpSequence(t *testing.T) {
	s, repo, _ := newTestSequencer(t, true)
	ctx := context.Background()

	result := s.InitializeFollowUpSequence(ctx, emmaForm())
	if !result.Success {
		t.Fatalf("initialization failed: %s", result.Error)
	}
	if result.ScheduledEmails != len(domain.StageOrder) {
		t.Errorf("scheduled %d emails, expected %d", result.ScheduledEmails, len(domain.StageOrder))
	}

	seq, err := repo.GetSequence(ctx, result.SequenceID)
	if err != nil {
		t.Fatalf("sequence not persisted: %v", err)
	}
	if seq.Status != domain.SequenceActive {
		t.Errorf("status = %s, expected active", seq.Status)
	}

	emails, err := repo.GetEmails(ctx, result.SequenceID)
	if err != nil {
		t.Fatalf("GetEmails failed: %v", err)
	}
	if len(emails) != len(domain.StageOrder) {
		t.Fatalf("persisted %d emails, expected %d", len(emails), len(domain.StageOrder))
	}

	// One email per stage, in catalog order, with strictly increasing send
	// times anchored at submission time.
	if !emails[0].SendTime.Equal(testBase) {
		t.Errorf("first email send time = %v, expected %v", emails[0].SendTime, testBase)
	}
	for i, e := range emails {
		if e.TemplateType != domain.StageOrder[i] {
			t.Errorf("email %d stage = %s, expected %s", i, e.TemplateType, domain.StageOrder[i])
		}
		if e.Status != domain.EmailScheduled {
			t.Errorf("email %d status = %s, expected scheduled", i, e.Status)
		}
		if e.Recipient != "emma@example.com" {
			t.Errorf("email %d recipient = %s", i, e.Recipient)
		}
		if i > 0 && !e.SendTime.After(emails[i-1].SendTime) {
			t.Errorf("email %d send time %v does not follow %v", i, e.SendTime, emails[i-1].SendTime)
		}
	}

	// Personalization ran at schedule time.
	if !strings.Contains(emails[0].TextContent, "Emma") {
		t.Error("first email body was not personalized")
	}
	if strings.Contains(emails[0].Subject+emails[0].TextContent, "{{") {
		t.Error("unresolved placeholder leaked into scheduled content")
	}
}

func TestInitializeDisabledTouchesNothing(t *testing.T) {
	s, repo, _ := newTestSequencer(t, false)

	result := s.InitializeFollowUpSequence(context.Background(), emmaForm())
	if result.Success {
		t.Fatal("expected failure while disabled")
	}
	if result.Error != "email automation is disabled" {
		t.Errorf("error = %q", result.Error)
	}

	seqs, err := repo.ListSequences(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListSequences failed: %v", err)
	}
	if len(seqs) != 0 {
		t.Errorf("disabled initialization persisted %d sequences", len(seqs))
	}
}

func TestInitializeValidation(t *testing.T) {
	s, _, _ := newTestSequencer(t, true)

	tests := []struct {
		name   string
		mutate func(*domain.ContactFormData)
	}{
		{"missing name", func(f *domain.ContactFormData) { f.Name = "" }},
		{"missing email", func(f *domain.ContactFormData) { f.Email = "" }},
		{"malformed email", func(f *domain.ContactFormData) { f.Email = "not-an-address" }},
		{"unknown service", func(f *domain.ContactFormData) { f.ServiceType = "catering" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := emmaForm()
			tt.mutate(form)
			if result := s.InitializeFollowUpSequence(context.Background(), form); result.Success {
				t.Error("expected failure")
			}
		})
	}
}

func TestInitializeAnalyticsTags(t *testing.T) {
	s, repo, _ := newTestSequencer(t, true)

	form := emmaForm()
	form.Context = &domain.ContactContext{
		Session: domain.SessionContext{
			PrimaryServiceInterest: domain.ServiceTeaching,
		},
		ReferralSource: domain.ReferralSearch,
		CampaignData:   map[string]string{"utm_campaign": "june-lessons"},
	}

	result := s.InitializeFollowUpSequence(context.Background(), form)
	if !result.Success {
		t.Fatalf("initialization failed: %s", result.Error)
	}

	seq, err := repo.GetSequence(context.Background(), result.SequenceID)
	if err != nil {
		t.Fatalf("GetSequence failed: %v", err)
	}
	want := map[string]bool{
		"ref:search":            true,
		"campaign:june-lessons": true,
		"interest:teaching":     true,
	}
	for _, tag := range seq.Tags {
		delete(want, tag)
	}
	if len(want) > 0 {
		t.Errorf("missing tags %v in %v", want, seq.Tags)
	}
}

func TestCancelSequence(t *testing.T) {
	s, repo, mock := newTestSequencer(t, true)
	ctx := context.Background()

	result := s.InitializeFollowUpSequence(ctx, emmaForm())
	if !result.Success {
		t.Fatalf("initialization failed: %s", result.Error)
	}

	// Simulate the confirmation email having already gone out.
	emails, _ := repo.GetEmails(ctx, result.SequenceID)
	sent := emails[0]
	sent.MarkSent(mock.NowUTC())
	if err := repo.UpdateEmail(ctx, sent); err != nil {
		t.Fatalf("UpdateEmail failed: %v", err)
	}

	cancel := s.CancelSequence(ctx, result.SequenceID, "client booked")
	if !cancel.Success {
		t.Fatalf("cancel failed: %s", cancel.Error)
	}

	seq, _ := repo.GetSequence(ctx, result.SequenceID)
	if seq.Status != domain.SequenceCancelled {
		t.Errorf("status = %s, expected cancelled", seq.Status)
	}
	if seq.CancelReason == nil || *seq.CancelReason != "client booked" {
		t.Errorf("cancel reason = %v", seq.CancelReason)
	}

	counts, _ := repo.CountEmailsByStatus(ctx, result.SequenceID)
	if counts[domain.EmailSent] != 1 {
		t.Errorf("sent count = %d, already delivered emails must stay sent", counts[domain.EmailSent])
	}
	if counts[domain.EmailCancelled] != len(domain.StageOrder)-1 {
		t.Errorf("cancelled count = %d, expected %d", counts[domain.EmailCancelled], len(domain.StageOrder)-1)
	}

	// Cancelling again is a clean no-op.
	if again := s.CancelSequence(ctx, result.SequenceID, "repeat"); !again.Success {
		t.Errorf("repeat cancel failed: %s", again.Error)
	}
	seq, _ = repo.GetSequence(ctx, result.SequenceID)
	if *seq.CancelReason != "client booked" {
		t.Error("repeat cancel must not overwrite the original reason")
	}
}

func TestCancelSequence_NotFound(t *testing.T) {
	s, _, _ := newTestSequencer(t, true)

	result := s.CancelSequence(context.Background(), "seq_missing", "")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "sequence not found" {
		t.Errorf("error = %q", result.Error)
	}
}

func TestPreviewEmail(t *testing.T) {
	s, repo, _ := newTestSequencer(t, true)
	ctx := context.Background()

	preview, err := s.PreviewEmail(domain.ServicePerformance, domain.StageFollowUp24h, nil)
	if err != nil {
		t.Fatalf("PreviewEmail failed: %v", err)
	}
	if preview.Recipient != "sam@example.com" {
		t.Errorf("canned sample recipient = %s", preview.Recipient)
	}
	if strings.Contains(preview.Subject+preview.TextContent, "{{") {
		t.Error("unresolved placeholder in preview")
	}
	if got := preview.SendTime.Sub(testBase); got != 24*time.Hour {
		t.Errorf("preview send offset = %v, expected 24h", got)
	}

	// Preview never persists anything.
	seqs, _ := repo.ListSequences(ctx, 10, 0)
	if len(seqs) != 0 {
		t.Errorf("preview persisted %d sequences", len(seqs))
	}

	if _, err := s.PreviewEmail(domain.ServiceType("catering"), domain.StageFollowUp24h, nil); err == nil {
		t.Error("expected error for unknown service")
	}
}

func TestGetSequenceMetadata(t *testing.T) {
	s, _, _ := newTestSequencer(t, true)
	ctx := context.Background()

	result := s.InitializeFollowUpSequence(ctx, emmaForm())
	if !result.Success {
		t.Fatalf("initialization failed: %s", result.Error)
	}

	meta, err := s.GetSequenceMetadata(ctx, result.SequenceID)
	if err != nil {
		t.Fatalf("GetSequenceMetadata failed: %v", err)
	}
	if meta.TotalEmails != len(domain.StageOrder) {
		t.Errorf("total emails = %d", meta.TotalEmails)
	}
	if meta.ByStatus[domain.EmailScheduled] != len(domain.StageOrder) {
		t.Errorf("scheduled count = %d", meta.ByStatus[domain.EmailScheduled])
	}
}
