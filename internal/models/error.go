package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Reset protocol errors. ErrInvalidToken deliberately covers "never
	// existed", "expired" and "already used" - callers must not be able
	// to tell them apart.
	ErrInvalidToken     = errors.New("reset token is invalid, expired, or already used")
	ErrRateLimited      = errors.New("too many reset requests")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	ErrPasswordPolicy   = errors.New("password does not meet length policy")
)
