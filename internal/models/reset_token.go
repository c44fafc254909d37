package models

import (
	"time"
)

// ResetToken represents a single-use password reset credential. Only the
// SHA-256 digest of the token is ever stored; the raw value lives exactly
// long enough to be embedded in the reset email.
type ResetToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"` // snapshot at issuance, kept for the audit trail
	TokenHash  string     `json:"-"`     // never expose the digest
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	IPAddress  *string    `json:"ip_address,omitempty"`
	UserAgent  *string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsConsumed reports whether the token has been tombstoned, either by a
// successful reset or by expiry discovery. Consumption is terminal.
func (t *ResetToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// IsExpiredAt reports whether the token is past its validity window at the
// given instant.
func (t *ResetToken) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsUsableAt reports whether the token can still authorize a credential
// change at the given instant.
func (t *ResetToken) IsUsableAt(now time.Time) bool {
	return !t.IsConsumed() && !t.IsExpiredAt(now)
}
