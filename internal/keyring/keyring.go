// Package keyring remembers token passwords in the OS keyring, keyed by
// token fingerprint.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "pasco"

// ErrNotFound is returned when no password is stored for a fingerprint.
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a password in the OS keyring
func SavePassword(fingerprint string, password string) error {
	return keyring.Set(serviceName, fingerprint, password)
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(fingerprint string) (string, error) {
	return keyring.Get(serviceName, fingerprint)
}

// DeletePassword removes a password from the OS keyring
func DeletePassword(fingerprint string) error {
	err := keyring.Delete(serviceName, fingerprint)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(fingerprint string) bool {
	_, err := keyring.Get(serviceName, fingerprint)
	return err == nil
}
