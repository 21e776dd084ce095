// Package crypto provides the cryptographic primitives for pasco tokens.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the password via PBKDF2
//   - 12-byte random IV per encryption operation
//   - 16-byte authentication tag appended to the ciphertext
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt per token (stored in the token header)
//   - 210,000 iterations by default, clamped to [50,000, 600,000]
//
// A fingerprint is the hex SHA-256 digest of the ciphertext bytes. It
// identifies one encrypted artifact independently of the password.
//
// Memory safety:
//   - Use ClearBytes() to zero derived keys and passwords after use
package crypto
