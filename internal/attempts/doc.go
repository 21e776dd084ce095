// Package attempts enforces the per-device decrypt attempt limit.
//
// Each fingerprint moves between two states:
//   - Open: fewer than MaxAttempts consecutive failures
//   - Locked: MaxAttempts failures reached; decrypts are refused up front
//
// An attempt is charged before any cryptographic work runs and the charge
// is cleared by a successful decrypt. Charging and checking happen in one
// Store.Update call, so concurrent attempts cannot exceed the limit.
//
// Counters live in a Store. MemoryStore serves tests and single-process
// callers; storage.Storage persists them on the device.
package attempts
