package domain

import "time"

// KeyPurpose tags what a validation key may be redeemed for.
type KeyPurpose string

const (
	KeyEmailVerification KeyPurpose = "email_verification"
	KeyPasswordReset     KeyPurpose = "password_reset"
	KeyTwoFactorAuth     KeyPurpose = "two_factor_auth"
	KeyAdminInvite       KeyPurpose = "admin_invite"
	KeyAccountActivation KeyPurpose = "account_activation"
)

// ValidationKey is a one-time secret for out-of-band flows.
type ValidationKey struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Purpose   KeyPurpose     `json:"key_type"`
	Value     string         `json:"key_value"`
	ExpiresAt time.Time      `json:"expires_at"`
	Used      bool           `json:"used"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Redeemable reports whether the key is unused and unexpired at now.
func (k *ValidationKey) Redeemable(now time.Time) bool {
	return !k.Used && now.Before(k.ExpiresAt)
}
