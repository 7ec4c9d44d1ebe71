package journey

import (
	"math"
	"testing"
	"time"

	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
)

var testBase = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestServiceForPath(t *testing.T) {
	tests := []struct {
		path string
		want domain.ServiceType
		ok   bool
	}{
		{"/performances", domain.ServicePerformance, true},
		{"/performances/weddings", domain.ServicePerformance, true},
		{"/booking", domain.ServicePerformance, true},
		{"/lessons/jazz-piano", domain.ServiceTeaching, true},
		{"/studio", domain.ServiceCollaboration, true},
		{"/contact", domain.ServiceGeneral, true},
		{"/about", "", false},
		{"/", "", false},
	}

	for _, tt := range tests {
		svc, ok := serviceForPath(tt.path)
		if svc != tt.want || ok != tt.ok {
			t.Errorf("serviceForPath(%q) = (%s, %v), expected (%s, %v)", tt.path, svc, ok, tt.want, tt.ok)
		}
	}
}

func TestPrimaryInterest_Majority(t *testing.T) {
	tr := New(domain.ReferralDirect, nil, clock.NewMock(testBase))
	tr.RecordPageView("/performances")
	tr.RecordPageView("/lessons")
	tr.RecordPageView("/performances/weddings")

	if got := tr.Session().PrimaryServiceInterest; got != domain.ServicePerformance {
		t.Errorf("primary interest = %s, expected performance", got)
	}
}

func TestPrimaryInterest_TieGoesToMostRecent(t *testing.T) {
	tr := New(domain.ReferralDirect, nil, clock.NewMock(testBase))
	tr.RecordPageView("/performances")
	tr.RecordPageView("/lessons")

	if got := tr.Session().PrimaryServiceInterest; got != domain.ServiceTeaching {
		t.Errorf("primary interest = %s, expected teaching on tie", got)
	}

	// Revisiting the older section breaks the tie the other way.
	tr.RecordPageView("/booking")
	if got := tr.Session().PrimaryServiceInterest; got != domain.ServicePerformance {
		t.Errorf("primary interest = %s, expected performance after revisit", got)
	}
}

func TestPrimaryInterest_GeneralPagesDoNotCount(t *testing.T) {
	tr := New(domain.ReferralDirect, nil, clock.NewMock(testBase))
	tr.RecordPageView("/contact")
	tr.RecordPageView("/about")

	if got := tr.Session().PrimaryServiceInterest; got != "" {
		t.Errorf("primary interest = %q, expected none", got)
	}
}

func TestConfidence_ReferralQualityBase(t *testing.T) {
	tests := []struct {
		referral domain.ReferralSourceType
		want     float64
	}{
		{domain.ReferralCampaign, 0.20},
		{domain.ReferralSearch, 0.15},
		{domain.ReferralDirect, 0.10},
		{domain.ReferralUnknown, 0.05},
	}

	for _, tt := range tests {
		tr := New(tt.referral, nil, clock.NewMock(testBase))
		tr.RecordPageView("/about")
		if got := tr.Session().ConfidenceScore; !almostEqual(got, tt.want) {
			t.Errorf("%s base confidence = %v, expected %v", tt.referral, got, tt.want)
		}
	}
}

func TestConfidence_VisitContributionCaps(t *testing.T) {
	tr := New(domain.ReferralDirect, nil, clock.NewMock(testBase))
	for i := 0; i < 10; i++ {
		tr.RecordPageView("/performances")
	}

	// 10 service visits would be 0.80 uncapped; the cap keeps it at 0.40.
	if got := tr.Session().ConfidenceScore; !almostEqual(got, 0.10+0.40) {
		t.Errorf("confidence = %v, expected 0.50", got)
	}
}

func TestConfidence_DwellContributionCaps(t *testing.T) {
	tr := New(domain.ReferralDirect, nil, clock.NewMock(testBase))
	tr.RecordTimeSpent(2 * time.Minute)
	if got := tr.Session().ConfidenceScore; !almostEqual(got, 0.10+0.10) {
		t.Errorf("confidence after 2m = %v, expected 0.20", got)
	}

	tr.RecordTimeSpent(time.Hour)
	if got := tr.Session().ConfidenceScore; !almostEqual(got, 0.10+0.30) {
		t.Errorf("confidence after an hour = %v, expected 0.40", got)
	}
}

func TestRecordTimeSpent_IgnoresNonPositive(t *testing.T) {
	tr := New(domain.ReferralDirect, nil, clock.NewMock(testBase))
	tr.RecordTimeSpent(-time.Minute)
	tr.RecordTimeSpent(0)

	if got := tr.Session().TotalTimeSpent; got != 0 {
		t.Errorf("TotalTimeSpent = %v, expected 0", got)
	}
}

func TestConfidence_MonotonicNonDecreasing(t *testing.T) {
	tr := New(domain.ReferralUnknown, nil, clock.NewMock(testBase))
	prev := tr.Session().ConfidenceScore
	steps := []func(){
		func() { tr.RecordPageView("/performances") },
		func() { tr.RecordTimeSpent(30 * time.Second) },
		func() { tr.RecordPageView("/lessons") },
		func() { tr.RecordTimeSpent(5 * time.Minute) },
		func() { tr.RecordPageView("/studio") },
	}
	for i, step := range steps {
		step()
		got := tr.Session().ConfidenceScore
		if got < prev {
			t.Errorf("step %d: confidence dropped from %v to %v", i, prev, got)
		}
		prev = got
	}
}

func TestSnapshot(t *testing.T) {
	mock := clock.NewMock(testBase)
	campaign := map[string]string{"utm_campaign": "june-weddings"}
	tr := New(domain.ReferralCampaign, campaign, mock)
	tr.RecordPageView("/performances")
	tr.RecordPageView("/contact")

	snap := tr.Snapshot()
	if snap.ReferralSource != domain.ReferralCampaign {
		t.Errorf("referral = %s", snap.ReferralSource)
	}
	if len(snap.UserJourney) != 1 || snap.UserJourney[0] != "performance" {
		t.Errorf("journey = %v, expected [performance]", snap.UserJourney)
	}
	if !snap.CapturedAt.Equal(mock.NowUTC()) {
		t.Errorf("CapturedAt = %v", snap.CapturedAt)
	}

	// Snapshots do not alias the tracker's campaign map.
	snap.CampaignData["utm_campaign"] = "clobbered"
	if got := tr.Snapshot().CampaignData["utm_campaign"]; got != "june-weddings" {
		t.Errorf("campaign data aliased: %q", got)
	}
}
