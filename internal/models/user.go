package models

import (
	"time"
)

// User mirrors the identity rows owned by the admin dashboard. This service
// only reads users and updates password_hash during a reset consume; all
// other lifecycle management happens elsewhere.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         string // e.g., "admin", "operator"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
