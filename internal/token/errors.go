package token

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("not a valid token")

// FormatError reports a token that failed structural validation.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
}

// Is implements errors.Is for sentinel matching.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErr(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}
