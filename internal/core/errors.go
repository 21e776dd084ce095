package core

import (
	"errors"
	"fmt"

	"github.com/illarion/pasco/internal/attempts"
	"github.com/illarion/pasco/internal/token"
)

var (
	ErrFormat         = token.ErrFormat
	ErrLocked         = attempts.ErrLocked
	ErrAuthentication = errors.New("wrong key or corrupted token")
	ErrEnvironment    = errors.New("environment unavailable")
	ErrNoStore        = errors.New("no attempt store configured")
	ErrInvalidInput   = errors.New("invalid input")
)

// FormatError reports a token that failed structural validation.
type FormatError = token.FormatError

// LockedError reports a fingerprint that reached the attempt limit.
type LockedError = attempts.LockedError

// AuthenticationError reports a failed tag check. A wrong password and a
// corrupted ciphertext look the same.
type AuthenticationError struct {
	Fingerprint string
	Remaining   int
}

func (e *AuthenticationError) Error() string {
	if e.Remaining == 1 {
		return fmt.Sprintf("%s (1 attempt remaining)", ErrAuthentication)
	}
	return fmt.Sprintf("%s (%d attempts remaining)", ErrAuthentication, e.Remaining)
}

// Is implements errors.Is for sentinel matching.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// EnvironmentError reports missing or failing host primitives
// (random source, cipher construction, attempt storage). Not retryable.
type EnvironmentError struct {
	Op  string
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrEnvironment, e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel matching.
func (e *EnvironmentError) Is(target error) bool {
	return target == ErrEnvironment
}
