package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FingerprintSize is the length of a fingerprint in hex characters.
const FingerprintSize = sha256.Size * 2

// Fingerprint returns the hex SHA-256 digest of ciphertext bytes.
func Fingerprint(ciphertext []byte) string {
	sum := sha256.Sum256(ciphertext)
	return hex.EncodeToString(sum[:])
}

// ValidFingerprint reports whether s looks like a fingerprint.
func ValidFingerprint(s string) bool {
	if len(s) != FingerprintSize || s != strings.ToLower(s) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
