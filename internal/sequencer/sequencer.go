// Package sequencer implements the email automation engine: it turns a
// contact form submission into a persisted, personalized, absolutely-timed
// follow-up sequence, and exposes cancel and preview operations.
//
// The sequencer decides when; it never sends. Dispatching due emails to the
// transport is the dispatcher's job, so scheduling success is independent of
// delivery success. Expected failures are reported through
// domain.EmailAutomationResult, never by panicking across the boundary.
package sequencer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/catalog"
	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
	apperrors "github.com/arosling/stageside/internal/errors"
	"github.com/arosling/stageside/internal/validation"
)

// emailMaxAttempts bounds dispatch retries per email.
const emailMaxAttempts = 3

// Config controls the sequencer. Passed explicitly so tests can run enabled
// and disabled instances side by side.
type Config struct {
	// Enabled gates InitializeFollowUpSequence. When off, initialization
	// fails fast without touching storage.
	Enabled bool
}

// Sequencer coordinates catalog, clock and storage.
type Sequencer struct {
	cfg     Config
	catalog *catalog.Catalog
	repo    domain.SequenceRepository
	clk     clock.Clock
	logger  *zap.Logger
}

// New creates a sequencer.
func New(cfg Config, cat *catalog.Catalog, repo domain.SequenceRepository, clk clock.Clock, logger *zap.Logger) *Sequencer {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		cfg:     cfg,
		catalog: cat,
		repo:    repo,
		clk:     clk,
		logger:  logger,
	}
}

// InitializeFollowUpSequence schedules the full follow-up sequence for a
// submission. On success exactly one email per catalog stage is persisted,
// with strictly increasing send times. On any failure nothing is persisted.
func (s *Sequencer) InitializeFollowUpSequence(ctx context.Context, form *domain.ContactFormData) domain.EmailAutomationResult {
	if !s.cfg.Enabled {
		return domain.EmailAutomationResult{Success: false, Error: "email automation is disabled"}
	}

	v := validation.New()
	v.Required("name", form.Name)
	if v.Required("email", form.Email) {
		v.Email("email", form.Email)
	}
	if !v.IsValid() {
		return domain.EmailAutomationResult{Success: false, Error: v.Errors().Error()}
	}

	stages := s.catalog.Templates(form.ServiceType)
	if stages == nil {
		return domain.EmailAutomationResult{
			Success: false,
			Error:   fmt.Sprintf("no follow-up sequence for service type %q", form.ServiceType),
		}
	}

	now := s.clk.NowUTC()
	seqID := domain.NewSequenceID(form.Email, form.ServiceType, now)
	tags := analyticsTags(form)

	seq := &domain.EmailSequence{
		SequenceID:  seqID,
		Email:       strings.TrimSpace(form.Email),
		Name:        strings.TrimSpace(form.Name),
		ServiceType: form.ServiceType,
		Status:      domain.SequenceActive,
		TotalEmails: len(stages),
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	vars := personalizationVars(form)
	emails := make([]*domain.ScheduledEmail, 0, len(stages))
	for _, stage := range stages {
		emails = append(emails, s.buildEmail(seq, &stage, vars, tags))
	}

	if err := s.repo.CreateSequence(ctx, seq, emails); err != nil {
		s.logger.Error("failed to persist follow-up sequence",
			zap.String("sequence_id", seqID),
			zap.String("service", string(form.ServiceType)),
			zap.Error(err),
		)
		return domain.EmailAutomationResult{Success: false, Error: "failed to schedule follow-up sequence"}
	}

	s.logger.Info("follow-up sequence scheduled",
		zap.String("sequence_id", seqID),
		zap.String("service", string(form.ServiceType)),
		zap.Int("emails", len(emails)),
	)
	return domain.EmailAutomationResult{
		Success:         true,
		SequenceID:      seqID,
		ScheduledEmails: len(emails),
	}
}

// CancelSequence marks a sequence cancelled and every not-yet-sent email
// with it. Sent emails are untouched. Idempotent: cancelling an already
// cancelled sequence succeeds without side effects.
func (s *Sequencer) CancelSequence(ctx context.Context, sequenceID, reason string) domain.EmailAutomationResult {
	seq, err := s.repo.GetSequence(ctx, sequenceID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return domain.EmailAutomationResult{Success: false, Error: "sequence not found"}
		}
		s.logger.Error("cancel: storage unreachable", zap.String("sequence_id", sequenceID), zap.Error(err))
		return domain.EmailAutomationResult{Success: false, Error: "storage unavailable"}
	}

	if seq.Status == domain.SequenceCancelled {
		return domain.EmailAutomationResult{Success: true, SequenceID: sequenceID}
	}

	now := s.clk.NowUTC()
	cancelled, err := s.repo.CancelPending(ctx, sequenceID, now)
	if err != nil {
		s.logger.Error("cancel: failed to cancel pending emails", zap.String("sequence_id", sequenceID), zap.Error(err))
		return domain.EmailAutomationResult{Success: false, Error: "storage unavailable"}
	}

	seq.Status = domain.SequenceCancelled
	seq.UpdatedAt = now
	seq.CancelledAt = &now
	if reason != "" {
		seq.CancelReason = &reason
	}
	if err := s.repo.UpdateSequence(ctx, seq); err != nil {
		s.logger.Error("cancel: failed to update sequence", zap.String("sequence_id", sequenceID), zap.Error(err))
		return domain.EmailAutomationResult{Success: false, Error: "storage unavailable"}
	}

	s.logger.Info("sequence cancelled",
		zap.String("sequence_id", sequenceID),
		zap.String("reason", reason),
		zap.Int("emails_cancelled", cancelled),
	)
	return domain.EmailAutomationResult{Success: true, SequenceID: sequenceID}
}

// PreviewEmail renders one stage against supplied or canned sample data.
// Read-only: it never touches catalog or scheduling state.
func (s *Sequencer) PreviewEmail(service domain.ServiceType, stage domain.EmailTemplateType, sample *domain.ContactFormData) (*domain.ScheduledEmail, error) {
	tmpl, ok := s.catalog.Stage(service, stage)
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("template %s/%s", service, stage))
	}
	if sample == nil {
		sample = &domain.ContactFormData{
			Name:        "Sam Rivera",
			Email:       "sam@example.com",
			ServiceType: service,
		}
	}
	vars := personalizationVars(sample)
	now := s.clk.NowUTC()
	return &domain.ScheduledEmail{
		TemplateType: stage,
		Recipient:    sample.Email,
		Subject:      catalog.Render(tmpl.Subject, vars),
		HTMLContent:  catalog.Render(tmpl.HTMLContent, vars),
		TextContent:  catalog.Render(tmpl.TextContent, vars),
		Tags:         tmpl.Tags,
		SendTime:     now.Add(delayDuration(tmpl.DelayHours)),
		Status:       domain.EmailScheduled,
	}, nil
}

// GetSequenceTemplates returns the catalog stages for a service, or nil for
// an unknown service type.
func (s *Sequencer) GetSequenceTemplates(service domain.ServiceType) []catalog.StageTemplate {
	return s.catalog.Templates(service)
}

// GetSequenceMetadata summarizes a sequence for the debug surface.
func (s *Sequencer) GetSequenceMetadata(ctx context.Context, sequenceID string) (*domain.SequenceMetadata, error) {
	seq, err := s.repo.GetSequence(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.CountEmailsByStatus(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	return &domain.SequenceMetadata{
		SequenceID:  seq.SequenceID,
		ServiceType: seq.ServiceType,
		Status:      seq.Status,
		TotalEmails: seq.TotalEmails,
		ByStatus:    byStatus,
		CreatedAt:   seq.CreatedAt,
	}, nil
}

// ListSequences pages through sequences newest-first for the debug surface.
func (s *Sequencer) ListSequences(ctx context.Context, limit, offset int) ([]*domain.EmailSequence, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListSequences(ctx, limit, offset)
}

func (s *Sequencer) buildEmail(seq *domain.EmailSequence, stage *catalog.StageTemplate, vars map[string]string, extraTags []string) *domain.ScheduledEmail {
	tags := make([]string, 0, len(stage.Tags)+len(extraTags))
	tags = append(tags, stage.Tags...)
	tags = append(tags, extraTags...)
	return &domain.ScheduledEmail{
		ID:           newEmailID(),
		SequenceID:   seq.SequenceID,
		TemplateType: stage.Type,
		Recipient:    seq.Email,
		Subject:      catalog.Render(stage.Subject, vars),
		HTMLContent:  catalog.Render(stage.HTMLContent, vars),
		TextContent:  catalog.Render(stage.TextContent, vars),
		Tags:         tags,
		SendTime:     seq.CreatedAt.Add(delayDuration(stage.DelayHours)),
		Status:       domain.EmailScheduled,
		MaxAttempts:  emailMaxAttempts,
		CreatedAt:    seq.CreatedAt,
		UpdatedAt:    seq.CreatedAt,
	}
}

func newEmailID() uuid.UUID {
	return uuid.New()
}

func delayDuration(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

// personalizationVars maps the closed placeholder set to submission values.
func personalizationVars(form *domain.ContactFormData) map[string]string {
	return map[string]string{
		"name":    strings.TrimSpace(form.Name),
		"email":   strings.TrimSpace(form.Email),
		"service": serviceLabel(form.ServiceType),
	}
}

// serviceLabel renders a service type for email copy.
func serviceLabel(s domain.ServiceType) string {
	switch s {
	case domain.ServicePerformance:
		return "live performance"
	case domain.ServiceTeaching:
		return "music lessons"
	case domain.ServiceCollaboration:
		return "collaboration"
	default:
		return "general"
	}
}

// analyticsTags derives tracking tags from the visitor context. The
// sequencer never blocks on journey data; missing context just means fewer
// tags.
func analyticsTags(form *domain.ContactFormData) []string {
	if form.Context == nil {
		return nil
	}
	var tags []string
	if form.Context.ReferralSource != "" {
		tags = append(tags, "ref:"+string(form.Context.ReferralSource))
	}
	if c, ok := form.Context.CampaignData["utm_campaign"]; ok && c != "" {
		tags = append(tags, "campaign:"+c)
	}
	if interest := form.Context.Session.PrimaryServiceInterest; interest != "" {
		tags = append(tags, "interest:"+string(interest))
	}
	return tags
}
