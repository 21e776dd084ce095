package crypto

import (
	"crypto/subtle"
	"errors"

	"github.com/awnumar/memguard"
)

const (
	SaltSize = 16 // Salt size in bytes
	KeySize  = 32 // AES-256 key size
	IVSize   = 12 // GCM nonce size
	TagSize  = 16 // GCM authentication tag size
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrInvalidIVSize  = errors.New("invalid iv size")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrUnavailable    = errors.New("cryptographic primitive unavailable")
)

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	memguard.WipeBytes(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
