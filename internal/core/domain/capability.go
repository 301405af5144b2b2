package domain

// Capability names.
const (
	CapCreateWebsite    = "create_website"
	CapManageComponents = "manage_components"
	CapSendEmails       = "send_emails"
	CapAccessAnalytics  = "access_analytics"
	CapAPIAccess        = "api_access"
	CapPrioritySupport  = "priority_support"
)

// tierCapabilities is maintained by hand per tier. Enterprise happens to
// contain Premium but nothing here relies on that.
var tierCapabilities = map[Tier][]string{
	TierFree: {
		CapCreateWebsite,
	},
	TierPremium: {
		CapCreateWebsite,
		CapManageComponents,
		CapSendEmails,
		CapAccessAnalytics,
	},
	TierEnterprise: {
		CapCreateWebsite,
		CapManageComponents,
		CapSendEmails,
		CapAccessAnalytics,
		CapAPIAccess,
		CapPrioritySupport,
	},
}

// DefaultCapabilities returns a copy of the default capability list of a tier.
// Unknown tiers have no capabilities.
func DefaultCapabilities(t Tier) []string {
	defaults := tierCapabilities[t]
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// EffectiveCapabilities returns the union of the tier defaults and the
// account's custom capabilities, without duplicates. Tier defaults come first.
func EffectiveCapabilities(a *Account) []string {
	if a == nil {
		return []string{}
	}
	caps := DefaultCapabilities(a.Tier)
	seen := make(map[string]struct{}, len(caps)+len(a.Capabilities))
	for _, c := range caps {
		seen[c] = struct{}{}
	}
	for _, c := range a.Capabilities {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		caps = append(caps, c)
	}
	return caps
}

// HasCapability reports whether name is in the account's effective set.
func HasCapability(a *Account, name string) bool {
	if a == nil {
		return false
	}
	for _, c := range a.Capabilities {
		if c == name {
			return true
		}
	}
	for _, c := range tierCapabilities[a.Tier] {
		if c == name {
			return true
		}
	}
	return false
}
