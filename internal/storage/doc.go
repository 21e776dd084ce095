// Package storage provides the BBolt database that holds per-device state.
//
// Database structure uses two buckets:
//   - config: schema version, creation time, device id
//   - attempts: failed decrypt counters keyed by token fingerprint (JSON)
//
// Nothing secret is stored here: no passwords, keys, plaintext or tokens.
//
// BBolt provides ACID transactions and an exclusive file lock. Every
// counter update runs in a single read-write transaction, so updates from
// concurrent goroutines and processes on one device are serialized.
package storage
