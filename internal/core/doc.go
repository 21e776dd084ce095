// Package core provides the pasco token engine.
//
// Core operations include:
//   - EncryptText/EncryptFile: seal a payload into a PASCO1 token
//   - DecryptToken: open a token with a password under the attempt limit
//   - FingerprintFromToken: identify a token without a password
//   - Attempts/ResetAttempts/ListAttempts: inspect the per-device counters
//
// Decrypt runs in a fixed order: decode (FormatError), attempt check
// (LockedError), key derivation, AEAD open (AuthenticationError), counter
// update. Garbage input is rejected before any attempt is charged and a
// locked fingerprint is refused before any key is derived.
//
// The encoded header segment is authenticated as AEAD associated data, so
// editing the note, filename or any other header field invalidates the
// token.
package core
