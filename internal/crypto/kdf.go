package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	MinIterations     = 50000
	MaxIterations     = 600000
	DefaultIterations = 210000 // OWASP minimum for PBKDF2-HMAC-SHA256
)

// ClampIterations bounds an iteration count to [MinIterations, MaxIterations].
// Zero or negative selects DefaultIterations.
func ClampIterations(iterations int) int {
	switch {
	case iterations <= 0:
		return DefaultIterations
	case iterations < MinIterations:
		return MinIterations
	case iterations > MaxIterations:
		return MaxIterations
	}
	return iterations
}

// ValidIterations reports whether n lies inside the accepted range.
func ValidIterations(n int) bool {
	return n >= MinIterations && n <= MaxIterations
}

// DeriveKey derives a 256-bit key from a password with PBKDF2-SHA256.
// The caller owns the returned key and should ClearBytes it after use.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("invalid salt size: got %d, want %d", len(salt), SaltSize)
	}
	return pbkdf2.Key(password, salt, ClampIterations(iterations), KeySize, sha256.New), nil
}
