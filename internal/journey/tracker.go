// Package journey tracks a visitor's navigation through the site and
// derives how confident we are about which service they are interested in.
package journey

import (
	"strings"
	"sync"
	"time"

	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
)

// servicePathPrefixes maps site sections to the service they signal.
var servicePathPrefixes = map[string]domain.ServiceType{
	"/performances": domain.ServicePerformance,
	"/booking":      domain.ServicePerformance,
	"/shows":        domain.ServicePerformance,
	"/lessons":      domain.ServiceTeaching,
	"/teaching":     domain.ServiceTeaching,
	"/collaborate":  domain.ServiceCollaboration,
	"/studio":       domain.ServiceCollaboration,
	"/contact":      domain.ServiceGeneral,
}

// referralQuality is the base confidence contributed by how the visitor
// arrived. Paid and deliberate channels signal more intent than a stray
// direct hit.
var referralQuality = map[domain.ReferralSourceType]float64{
	domain.ReferralCampaign: 0.20,
	domain.ReferralSearch:   0.15,
	domain.ReferralReferral: 0.15,
	domain.ReferralSocial:   0.10,
	domain.ReferralDirect:   0.10,
	domain.ReferralUnknown:  0.05,
}

// Confidence contribution caps. Every contribution is non-negative, so the
// score is monotonic non-decreasing as signal accumulates.
const (
	perVisitWeight  = 0.08
	visitCap        = 0.40
	perMinuteWeight = 0.05
	dwellCap        = 0.30
)

// Tracker accumulates one visitor's session signal. It owns the only
// mutable SessionContext; everything downstream reads snapshots.
type Tracker struct {
	mu       sync.Mutex
	session  domain.SessionContext
	referral domain.ReferralSourceType
	campaign map[string]string
	journey  []string
	clk      clock.Clock
}

// New creates a tracker for a fresh visitor session. The referral source and
// campaign parameters are read once at page load by the navigation layer and
// handed in here.
func New(referral domain.ReferralSourceType, campaign map[string]string, clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	if referral == "" {
		referral = domain.ReferralUnknown
	}
	return &Tracker{
		referral: referral,
		campaign: campaign,
		clk:      clk,
	}
}

// RecordPageView appends a navigation event and recomputes the derived
// interest and confidence signals.
func (t *Tracker) RecordPageView(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.session.PagesVisited = append(t.session.PagesVisited, path)
	if svc, ok := serviceForPath(path); ok && svc != domain.ServiceGeneral {
		t.journey = append(t.journey, string(svc))
	}
	t.session.PrimaryServiceInterest = t.primaryInterest()
	t.session.ConfidenceScore = t.confidence()
}

// RecordTimeSpent adds dwell time observed on the current page.
func (t *Tracker) RecordTimeSpent(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.TotalTimeSpent += d
	t.session.ConfidenceScore = t.confidence()
}

// Session returns a copy of the current session context.
func (t *Tracker) Session() domain.SessionContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Clone()
}

// Snapshot captures an immutable ContactContext from the current session.
func (t *Tracker) Snapshot() *domain.ContactContext {
	t.mu.Lock()
	defer t.mu.Unlock()

	journey := make([]string, len(t.journey))
	copy(journey, t.journey)

	var campaign map[string]string
	if len(t.campaign) > 0 {
		campaign = make(map[string]string, len(t.campaign))
		for k, v := range t.campaign {
			campaign[k] = v
		}
	}

	return &domain.ContactContext{
		Session:        t.session.Clone(),
		ReferralSource: t.referral,
		CampaignData:   campaign,
		UserJourney:    journey,
		CapturedAt:     t.clk.NowUTC(),
	}
}

// primaryInterest picks the service with the most visits; ties go to the
// service visited most recently.
func (t *Tracker) primaryInterest() domain.ServiceType {
	counts := make(map[domain.ServiceType]int)
	lastSeen := make(map[domain.ServiceType]int)
	for i, path := range t.session.PagesVisited {
		svc, ok := serviceForPath(path)
		if !ok || svc == domain.ServiceGeneral {
			continue
		}
		counts[svc]++
		lastSeen[svc] = i
	}
	var best domain.ServiceType
	for _, svc := range domain.AllServiceTypes {
		n, ok := counts[svc]
		if !ok {
			continue
		}
		if best == "" || n > counts[best] || (n == counts[best] && lastSeen[svc] > lastSeen[best]) {
			best = svc
		}
	}
	return best
}

// confidence derives the [0,1] score from visit count, dwell time and
// referral quality.
func (t *Tracker) confidence() float64 {
	score := referralQuality[t.referral]

	visits := 0
	for _, path := range t.session.PagesVisited {
		if svc, ok := serviceForPath(path); ok && svc != domain.ServiceGeneral {
			visits++
		}
	}
	score += min(float64(visits)*perVisitWeight, visitCap)
	score += min(t.session.TotalTimeSpent.Minutes()*perMinuteWeight, dwellCap)

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// serviceForPath maps a visited path to the service it signals.
func serviceForPath(path string) (domain.ServiceType, bool) {
	for prefix, svc := range servicePathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return svc, true
		}
	}
	return "", false
}
