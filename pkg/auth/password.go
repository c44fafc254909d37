package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost = 12

	DefaultMinPasswordLen = 8
	DefaultMaxPasswordLen = 128
)

// prehash compresses the password to a fixed-size digest before bcrypt.
// bcrypt only reads the first 72 bytes of its input, so without this step
// everything past byte 72 of a long passphrase would be ignored.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword(prehash(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword checks a plaintext password against its bcrypt hash.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), prehash(password))
}

// ValidatePasswordLength enforces inclusive length bounds on a new password.
func ValidatePasswordLength(password string, min, max int) error {
	if len(password) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	if len(password) > max {
		return fmt.Errorf("password must be at most %d characters", max)
	}
	return nil
}
