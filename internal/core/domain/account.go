package domain

import (
	"math"
	"time"
)

// Tier is the subscription level of an account.
type Tier string

const (
	TierFree       Tier = "Free"
	TierPremium    Tier = "Premium"
	TierEnterprise Tier = "Enterprise"
)

// UnlimitedSites is the MaxSites value of tiers without a site ceiling.
const UnlimitedSites = math.MaxInt

// tierQuota holds the ceilings of a tier.
type tierQuota struct {
	maxSites     int
	maxStorageMB int
}

var tierQuotas = map[Tier]tierQuota{
	TierFree:       {maxSites: 1, maxStorageMB: 100},
	TierPremium:    {maxSites: 5, maxStorageMB: 1000},
	TierEnterprise: {maxSites: UnlimitedSites, maxStorageMB: 10000},
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierQuotas[t]
	return ok
}

// DisplayName returns the human readable tier name.
func (t Tier) DisplayName() string {
	return string(t)
}

// MaxSites returns the number of sites an account of this tier may own.
func (t Tier) MaxSites() int {
	return tierQuotas[t].maxSites
}

// MaxStorageMB returns the storage ceiling of this tier in megabytes.
func (t Tier) MaxStorageMB() int {
	return tierQuotas[t].maxStorageMB
}

// AccountStatus is the lifecycle status of an account. Transitions between
// statuses are governed outside this service.
type AccountStatus string

const (
	StatusActive      AccountStatus = "Active"
	StatusPending     AccountStatus = "Pending"
	StatusSuspended   AccountStatus = "Suspended"
	StatusBanned      AccountStatus = "Banned"
	StatusDeactivated AccountStatus = "Deactivated"
)

// Account is the subscription record of a user (one per user).
type Account struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Tier            Tier          `json:"account_level"`
	Status          AccountStatus `json:"account_status"`
	Capabilities    []string      `json:"capabilities"`
	StatusReason    string        `json:"status_reason,omitempty"`
	StatusChangedAt *time.Time    `json:"status_changed_at,omitempty"`
	StatusChangedBy string        `json:"status_changed_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsActive reports whether the account may be issued tokens.
func (a *Account) IsActive() bool {
	return a != nil && a.Status == StatusActive
}

// AccountInfo is the account summary returned alongside a login.
type AccountInfo struct {
	Tier         Tier          `json:"level"`
	Status       AccountStatus `json:"status"`
	Capabilities []string      `json:"capabilities"`
}

// Info summarises the account with its effective capabilities.
func (a *Account) Info() AccountInfo {
	return AccountInfo{
		Tier:         a.Tier,
		Status:       a.Status,
		Capabilities: EffectiveCapabilities(a),
	}
}
