package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the bcrypt work factor for stored password hashes.
	DefaultBcryptCost = 10

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// PasswordHasher hashes account passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using DefaultBcryptCost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: DefaultBcryptCost}
}

// Hash returns the salted bcrypt hash of password. Passwords longer than
// MaxPasswordBytes are rejected rather than silently truncated.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("password exceeds %d bytes", MaxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
