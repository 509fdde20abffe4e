package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"todo-api/internal/apperror"
)

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are rejected
// instead of truncated.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost    int
	dummy   []byte
	compare func(digest, plaintext []byte) error
}

// NewPasswordHasher builds the dummy digest up front so the first
// unknown-email login costs the same single comparison as every later one.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	cost = min(cost, bcrypt.MaxCost)
	dummy, err := bcrypt.GenerateFromPassword([]byte("unmatchable-dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("auth: building dummy digest: %v", err))
	}
	return &PasswordHasher{cost: cost, dummy: dummy, compare: bcrypt.CompareHashAndPassword}
}

// Hash returns a salted bcrypt digest. Every call uses a fresh salt.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", apperror.Validation("password", fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches digest. Malformed digests and
// over-long inputs are a mismatch, never an error. An over-long input still
// pays for one comparison.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	if len(plaintext) > MaxPasswordBytes {
		h.VerifyDummy(plaintext)
		return false
	}
	return h.compare([]byte(digest), []byte(plaintext)) == nil
}

// VerifyDummy spends one bcrypt comparison at the configured cost against a
// digest no password matches. Login calls it for unknown emails so both
// failure paths take the same time.
func (h *PasswordHasher) VerifyDummy(plaintext string) {
	if len(plaintext) > MaxPasswordBytes {
		plaintext = plaintext[:MaxPasswordBytes]
	}
	_ = h.compare(h.dummy, []byte(plaintext))
}
