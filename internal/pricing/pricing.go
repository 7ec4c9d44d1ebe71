// Package pricing implements the estimation engine: deterministic,
// side-effect-free mapping from a structured inquiry to a price estimate.
//
// Given identical input the output is byte-identical. There is no clock,
// no network and no hidden state in here; callers supply the reference
// time used for the estimate's validity window.
package pricing

import (
	"fmt"
	"time"

	"github.com/arosling/stageside/internal/domain"
	apperrors "github.com/arosling/stageside/internal/errors"
	"github.com/arosling/stageside/internal/validation"
)

// Per-service validity windows, in days.
const (
	PerformanceValidDays   = 14
	CollaborationValidDays = 21
)

// spreadRatioThreshold is the policy bound on range width. When the high end
// exceeds the low end by more than this factor the quote is too uncertain to
// stand on its own and a consultation is recommended instead.
const spreadRatioThreshold = 3.0

// Confidence bounds for any estimate.
const (
	minConfidence = 0.1
	maxConfidence = 0.95
)

// performanceBase maps an event type to its base range in whole dollars,
// assuming a solo act for up to two hours.
var performanceBase = map[domain.EventType][2]int{
	domain.EventWedding:   {1200, 3500},
	domain.EventCorporate: {1000, 3000},
	domain.EventPrivate:   {600, 1800},
	domain.EventConcert:   {1500, 4000},
	domain.EventOther:     {500, 2000},
}

// formatMultiplier scales the base range by lineup size.
var formatMultiplier = map[domain.PerformanceFormat]float64{
	domain.FormatSolo:   1.0,
	domain.FormatDuo:    1.4,
	domain.FormatTrio:   1.8,
	domain.FormatBand:   2.2,
	domain.FormatUnsure: 1.0,
}

// durationMultiplier scales the base range by requested set length.
var durationMultiplier = map[string]float64{
	"1 hour":   0.8,
	"2 hours":  1.0,
	"3 hours":  1.2,
	"4 hours":  1.4,
	"full day": 1.8,
}

// guestCountAdjustment adds a flat amount for larger audiences, which mean
// more sound reinforcement and setup.
var guestCountAdjustment = map[string][2]int{
	"under-50": {0, 0},
	"50-100":   {100, 200},
	"100-200":  {200, 400},
	"over-200": {400, 800},
}

// collaborationBase maps a project type to its per-track base range.
var collaborationBase = map[domain.ProjectType][2]int{
	domain.ProjectRecording:   {300, 900},
	domain.ProjectSongwriting: {400, 1200},
	domain.ProjectArranging:   {350, 1000},
	domain.ProjectProduction:  {800, 2500},
	domain.ProjectLiveSession: {250, 700},
}

// scopeMultiplier scales the per-track base by project size. Ongoing work is
// priced as a monthly retainer on the single-track base.
var scopeMultiplier = map[domain.ProjectScope]float64{
	domain.ScopeSingleTrack: 1.0,
	domain.ScopeEP:          3.5,
	domain.ScopeAlbum:       8.0,
	domain.ScopeOngoing:     2.0,
}

// experienceMultiplier adjusts for how established the collaborator is.
var experienceMultiplier = map[string]float64{
	"first_project": 0.9,
	"experienced":   1.0,
	"professional":  1.2,
}

// timelineMultiplier adjusts for urgency.
var timelineMultiplier = map[string]float64{
	"asap":     1.25,
	"1_month":  1.1,
	"3_months": 1.0,
	"flexible": 0.95,
}

// EstimatePerformance maps a live-performance inquiry to a price estimate.
// The visitor context, when present, only biases the reported confidence;
// it never changes the numeric range. Free-text fields (venue address,
// event date) are informational and ignored by the arithmetic.
func EstimatePerformance(data *domain.PerformancePricingData, visitor *domain.ContactContext, now time.Time) (*domain.PriceEstimate, error) {
	if err := validatePerformance(data); err != nil {
		return nil, err
	}

	base := performanceBase[data.EventType]
	low, high := float64(base[0]), float64(base[1])
	rationale := []string{fmt.Sprintf("base range for %s events", data.EventType)}

	if m := formatMultiplier[data.PerformanceFormat]; m != 1.0 {
		low *= m
		high *= m
		rationale = append(rationale, fmt.Sprintf("%s lineup (x%.1f)", data.PerformanceFormat, m))
	}

	if m, ok := durationMultiplier[data.Duration]; ok && m != 1.0 {
		low *= m
		high *= m
		rationale = append(rationale, fmt.Sprintf("%s set (x%.1f)", data.Duration, m))
	}

	if adj, ok := guestCountAdjustment[data.GuestCount]; ok && adj[1] > 0 {
		low += float64(adj[0])
		high += float64(adj[1])
		rationale = append(rationale, fmt.Sprintf("%s guests (+$%d-$%d)", data.GuestCount, adj[0], adj[1]))
	}

	unsure := data.PerformanceFormat == domain.FormatUnsure || data.PerformanceStyle == domain.StyleUnsure
	wide := high > low*spreadRatioThreshold
	if unsure {
		rationale = append(rationale, "lineup or style still open")
	}
	if wide {
		rationale = append(rationale, "range too wide to quote without a conversation")
	}

	confidence := 0.7
	if data.BudgetRange != "" {
		confidence += 0.1
	}
	if data.GuestCount != "" {
		confidence += 0.05
	}
	if unsure {
		confidence -= 0.3
	}
	confidence = biasConfidence(confidence, visitor)

	return &domain.PriceEstimate{
		ServiceType:             domain.ServicePerformance,
		RangeLow:                roundToTen(low),
		RangeHigh:               roundToTen(high),
		Currency:                "USD",
		Confidence:              clampConfidence(confidence),
		ConsultationRecommended: unsure || wide,
		EstimateValidDays:       PerformanceValidDays,
		Rationale:               rationale,
		CreatedAt:               now,
	}, nil
}

// EstimateCollaboration maps a collaboration inquiry to a price estimate.
func EstimateCollaboration(data *domain.CollaborationPricingData, visitor *domain.ContactContext, now time.Time) (*domain.PriceEstimate, error) {
	if err := validateCollaboration(data); err != nil {
		return nil, err
	}

	base := collaborationBase[data.ProjectType]
	low, high := float64(base[0]), float64(base[1])
	rationale := []string{fmt.Sprintf("base range for %s work", data.ProjectType)}

	if m := scopeMultiplier[data.ProjectScope]; m != 1.0 {
		low *= m
		high *= m
		rationale = append(rationale, fmt.Sprintf("%s scope (x%.1f)", data.ProjectScope, m))
	}
	if data.ProjectScope == domain.ScopeOngoing {
		rationale = append(rationale, "ongoing work is quoted as a monthly retainer")
	}

	if m, ok := experienceMultiplier[data.Experience]; ok && m != 1.0 {
		low *= m
		high *= m
		rationale = append(rationale, fmt.Sprintf("%s collaborator (x%.2f)", data.Experience, m))
	}

	if m, ok := timelineMultiplier[data.Timeline]; ok && m != 1.0 {
		low *= m
		high *= m
		rationale = append(rationale, fmt.Sprintf("%s timeline (x%.2f)", data.Timeline, m))
	}

	openEnded := data.ProjectScope == domain.ScopeOngoing
	wide := high > low*spreadRatioThreshold
	if wide {
		rationale = append(rationale, "range too wide to quote without a conversation")
	}

	confidence := 0.65
	if data.BudgetRange != "" {
		confidence += 0.1
	}
	if data.Timeline != "" {
		confidence += 0.05
	}
	if openEnded {
		confidence -= 0.2
	}
	confidence = biasConfidence(confidence, visitor)

	return &domain.PriceEstimate{
		ServiceType:             domain.ServiceCollaboration,
		RangeLow:                roundToTen(low),
		RangeHigh:               roundToTen(high),
		Currency:                "USD",
		Confidence:              clampConfidence(confidence),
		ConsultationRecommended: openEnded || wide,
		EstimateValidDays:       CollaborationValidDays,
		Rationale:               rationale,
		CreatedAt:               now,
	}, nil
}

func validatePerformance(data *domain.PerformancePricingData) error {
	v := validation.New()
	v.Required("event_type", string(data.EventType))
	v.Required("performance_format", string(data.PerformanceFormat))
	v.Required("performance_style", string(data.PerformanceStyle))
	v.Required("duration", data.Duration)
	if data.EventType != "" {
		if _, ok := performanceBase[data.EventType]; !ok {
			v.AddError("event_type", fmt.Sprintf("unknown event type %q", data.EventType), validation.CodeInvalidValue)
		}
	}
	if data.PerformanceFormat != "" {
		if _, ok := formatMultiplier[data.PerformanceFormat]; !ok {
			v.AddError("performance_format", fmt.Sprintf("unknown format %q", data.PerformanceFormat), validation.CodeInvalidValue)
		}
	}
	if data.Duration != "" {
		if _, ok := durationMultiplier[data.Duration]; !ok {
			v.AddError("duration", fmt.Sprintf("unknown duration %q", data.Duration), validation.CodeInvalidValue)
		}
	}
	return validationError(v)
}

func validateCollaboration(data *domain.CollaborationPricingData) error {
	v := validation.New()
	v.Required("project_type", string(data.ProjectType))
	v.Required("project_scope", string(data.ProjectScope))
	if data.ProjectType != "" {
		if _, ok := collaborationBase[data.ProjectType]; !ok {
			v.AddError("project_type", fmt.Sprintf("unknown project type %q", data.ProjectType), validation.CodeInvalidValue)
		}
	}
	if data.ProjectScope != "" {
		if _, ok := scopeMultiplier[data.ProjectScope]; !ok {
			v.AddError("project_scope", fmt.Sprintf("unknown project scope %q", data.ProjectScope), validation.CodeInvalidValue)
		}
	}
	return validationError(v)
}

// validationError converts accumulated validator errors into an application
// error, or nil when the input is clean.
func validationError(v *validation.Validator) error {
	if v.IsValid() {
		return nil
	}
	return apperrors.Wrap(v.Errors(), "pricing.validate", apperrors.CodeValidation, v.Errors().Error())
}

// biasConfidence nudges the engine's own confidence using the visitor's
// journey signal. A high-confidence journey toward the same outcome raises
// trust in the inputs slightly; it never moves the number more than 0.1.
func biasConfidence(confidence float64, visitor *domain.ContactContext) float64 {
	if visitor == nil {
		return confidence
	}
	return confidence + 0.1*(visitor.Session.ConfidenceScore-0.5)
}

func clampConfidence(c float64) float64 {
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

// roundToTen rounds a dollar amount to the nearest ten, which keeps quoted
// ranges from looking spuriously precise.
func roundToTen(v float64) int {
	return int((v+5)/10) * 10
}
