package models

import (
	"time"
)

// Audit actions for the reset protocol
const (
	AuditActionRequest = "request"       // issuance attempt, success or failure
	AuditActionConsume = "reset_success" // credential changed via a valid token
)

// Audit statuses
const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
)

// ResetAuditEntry is an append-only record of a reset protocol event.
// Entries are never mutated or deleted by the protocol itself; the count of
// "request" entries per email within a trailing window drives issuance rate
// limiting.
type ResetAuditEntry struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"user_id,omitempty"` // nil when the email resolved to no identity
	Email        string    `json:"email"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
