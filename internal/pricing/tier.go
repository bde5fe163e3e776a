package pricing

import "strings"

// ServiceTier is the coarse bucket a specific carrier service string maps to.
type ServiceTier string

const (
	TierStandard ServiceTier = "standard"
	TierExpress  ServiceTier = "express"
	TierPriority ServiceTier = "priority"
)

// standardKeywords are checked before the express keywords, so a composite
// name like "GLS Express" still lands in the economy bucket the carrier
// actually bills it under.
var standardKeywords = []string{"eco", "gls", "widect"}
var expressKeywords = []string{"express", "ups"}

// TierForService maps a carrier service string to its pricing tier by
// case-insensitive keyword matching. Unknown strings default to standard.
func TierForService(service string) ServiceTier {
	s := strings.ToLower(service)
	for _, kw := range standardKeywords {
		if strings.Contains(s, kw) {
			return TierStandard
		}
	}
	for _, kw := range expressKeywords {
		if strings.Contains(s, kw) {
			return TierExpress
		}
	}
	if strings.Contains(s, "priority") {
		return TierPriority
	}
	return TierStandard
}

// ParseTier validates a tier string sent by a client, defaulting to standard.
func ParseTier(s string) ServiceTier {
	switch ServiceTier(strings.ToLower(s)) {
	case TierExpress:
		return TierExpress
	case TierPriority:
		return TierPriority
	default:
		return TierStandard
	}
}
