package domain

import "time"

// SessionContext accumulates a single visitor's navigation signal. It is
// process-local and ephemeral: created on the first page view, discarded
// when the visitor leaves. Only the journey tracker mutates it; every other
// component reads snapshots.
type SessionContext struct {
	PagesVisited           []string      `json:"pages_visited"`
	TotalTimeSpent         time.Duration `json:"total_time_spent"`
	PrimaryServiceInterest ServiceType   `json:"primary_service_interest,omitempty"`
	ConfidenceScore        float64       `json:"confidence_score"`
}

// Clone returns a deep copy of the session context.
func (s SessionContext) Clone() SessionContext {
	pages := make([]string, len(s.PagesVisited))
	copy(pages, s.PagesVisited)
	return SessionContext{
		PagesVisited:           pages,
		TotalTimeSpent:         s.TotalTimeSpent,
		PrimaryServiceInterest: s.PrimaryServiceInterest,
		ConfidenceScore:        s.ConfidenceScore,
	}
}

// ContactContext is an immutable snapshot of a visitor's session taken at
// the moment a pricing estimate or form submission happens. It is never
// mutated after creation; downstream components use it for analytics tags
// and confidence biasing only.
type ContactContext struct {
	Session        SessionContext     `json:"session"`
	ReferralSource ReferralSourceType `json:"referral_source"`
	CampaignData   map[string]string  `json:"campaign_data,omitempty"`
	UserJourney    []string           `json:"user_journey,omitempty"`
	CapturedAt     time.Time          `json:"captured_at"`
}
