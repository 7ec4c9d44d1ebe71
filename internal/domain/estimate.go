package domain

import (
	"fmt"
	"time"
)

// PriceEstimate is the immutable result of a pricing estimation. Amounts are
// whole US dollars; the FormattedEstimate projection is derived on demand and
// never stored.
type PriceEstimate struct {
	ServiceType             ServiceType `json:"service_type"`
	RangeLow                int         `json:"range_low"`
	RangeHigh               int         `json:"range_high"`
	Currency                string      `json:"currency"`
	Confidence              float64     `json:"confidence"`
	ConsultationRecommended bool        `json:"consultation_recommended"`
	EstimateValidDays       int         `json:"estimate_valid_days"`
	Rationale               []string    `json:"rationale,omitempty"`
	CreatedAt               time.Time   `json:"created_at"`
}

// ExpiresAt returns the instant the estimate stops being presentable.
func (e *PriceEstimate) ExpiresAt() time.Time {
	return e.CreatedAt.AddDate(0, 0, e.EstimateValidDays)
}

// Expired reports whether the estimate has passed its validity window at
// the given instant. Expiry is always compared against the estimate's own
// creation time, never against a freshly computed reference.
func (e *PriceEstimate) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}

// FormattedEstimate is the human-readable projection of a PriceEstimate.
type FormattedEstimate struct {
	Range        string `json:"range"`
	ValidThrough string `json:"valid_through"`
	Consultation string `json:"consultation,omitempty"`
}

// Format renders the estimate for on-screen display.
func (e *PriceEstimate) Format() FormattedEstimate {
	f := FormattedEstimate{
		Range:        fmt.Sprintf("$%s - $%s", groupThousands(e.RangeLow), groupThousands(e.RangeHigh)),
		ValidThrough: e.ExpiresAt().Format("January 2, 2006"),
	}
	if e.ConsultationRecommended {
		f.Consultation = "We recommend a quick consultation to firm up this range."
	}
	return f
}

// groupThousands formats a non-negative dollar amount with comma separators.
func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// PerformanceFormat is the lineup requested for a live performance.
type PerformanceFormat string

const (
	FormatSolo   PerformanceFormat = "solo"
	FormatDuo    PerformanceFormat = "duo"
	FormatTrio   PerformanceFormat = "trio"
	FormatBand   PerformanceFormat = "band"
	FormatUnsure PerformanceFormat = "unsure"
)

// PerformanceStyle is the musical style requested for a live performance.
type PerformanceStyle string

const (
	StyleAcoustic     PerformanceStyle = "acoustic"
	StyleJazz         PerformanceStyle = "jazz"
	StyleClassical    PerformanceStyle = "classical"
	StyleContemporary PerformanceStyle = "contemporary"
	StyleUnsure       PerformanceStyle = "unsure"
)

// EventType is the occasion a performance is booked for.
type EventType string

const (
	EventWedding   EventType = "wedding"
	EventCorporate EventType = "corporate"
	EventPrivate   EventType = "private_party"
	EventConcert   EventType = "concert"
	EventOther     EventType = "other"
)

// BudgetRange is the visitor's self-reported budget band.
type BudgetRange string

const (
	BudgetUnder1000  BudgetRange = "under-1000"
	Budget1000to2000 BudgetRange = "1000-2000"
	Budget2000to4000 BudgetRange = "2000-4000"
	Budget4000to8000 BudgetRange = "4000-8000"
	BudgetOver8000   BudgetRange = "over-8000"
	BudgetFlexible   BudgetRange = "flexible"
)

// PerformancePricingData is the structured inquiry for a live performance
// estimate. VenueAddress and EventDate are informational only and never
// affect the numeric range.
type PerformancePricingData struct {
	EventType         EventType         `json:"event_type"`
	PerformanceFormat PerformanceFormat `json:"performance_format"`
	PerformanceStyle  PerformanceStyle  `json:"performance_style"`
	Duration          string            `json:"duration"`
	GuestCount        string            `json:"guest_count,omitempty"`
	BudgetRange       BudgetRange       `json:"budget_range,omitempty"`
	VenueAddress      string            `json:"venue_address,omitempty"`
	EventDate         string            `json:"event_date,omitempty"`
}

// ProjectType is the kind of collaboration being inquired about.
type ProjectType string

const (
	ProjectRecording   ProjectType = "studio_recording"
	ProjectSongwriting ProjectType = "songwriting"
	ProjectArranging   ProjectType = "arranging"
	ProjectProduction  ProjectType = "production"
	ProjectLiveSession ProjectType = "live_session"
)

// ProjectScope sizes a collaboration project.
type ProjectScope string

const (
	ScopeSingleTrack ProjectScope = "single_track"
	ScopeEP          ProjectScope = "ep"
	ScopeAlbum       ProjectScope = "album"
	ScopeOngoing     ProjectScope = "ongoing"
)

// CollaborationPricingData is the structured inquiry for a collaboration
// estimate.
type CollaborationPricingData struct {
	ProjectType  ProjectType  `json:"project_type"`
	ProjectScope ProjectScope `json:"project_scope"`
	Experience   string       `json:"experience,omitempty"`
	Timeline     string       `json:"timeline,omitempty"`
	BudgetRange  BudgetRange  `json:"budget_range,omitempty"`
	Description  string       `json:"description,omitempty"`
}
