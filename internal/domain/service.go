package domain

import "fmt"

// ServiceType identifies which of the site's offerings an inquiry is about.
// It is a closed enumeration: it selects both the pricing rules and the
// follow-up catalog that apply to an inquiry.
type ServiceType string

const (
	ServicePerformance   ServiceType = "performance"
	ServiceTeaching      ServiceType = "teaching"
	ServiceCollaboration ServiceType = "collaboration"
	ServiceGeneral       ServiceType = "general"
)

// AllServiceTypes lists every valid service type in a stable order.
var AllServiceTypes = []ServiceType{
	ServicePerformance,
	ServiceTeaching,
	ServiceCollaboration,
	ServiceGeneral,
}

// ParseServiceType validates and converts a raw string into a ServiceType.
func ParseServiceType(s string) (ServiceType, error) {
	switch ServiceType(s) {
	case ServicePerformance, ServiceTeaching, ServiceCollaboration, ServiceGeneral:
		return ServiceType(s), nil
	default:
		return "", fmt.Errorf("unknown service type: %q", s)
	}
}

// Valid reports whether the service type is one of the known values.
func (s ServiceType) Valid() bool {
	_, err := ParseServiceType(string(s))
	return err == nil
}

// ReferralSourceType classifies how a visitor arrived at the site.
type ReferralSourceType string

const (
	ReferralDirect   ReferralSourceType = "direct"
	ReferralSearch   ReferralSourceType = "search"
	ReferralSocial   ReferralSourceType = "social"
	ReferralCampaign ReferralSourceType = "campaign"
	ReferralReferral ReferralSourceType = "referral"
	ReferralUnknown  ReferralSourceType = "unknown"
)

// ParseReferralSource maps a raw string onto a known referral source.
// Unrecognized values fold into ReferralUnknown rather than erroring, since
// attribution data arrives from untrusted clients.
func ParseReferralSource(s string) ReferralSourceType {
	switch ReferralSourceType(s) {
	case ReferralDirect, ReferralSearch, ReferralSocial, ReferralCampaign, ReferralReferral:
		return ReferralSourceType(s)
	default:
		return ReferralUnknown
	}
}
