package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// RandomSource supplies cryptographically secure random bytes.
type RandomSource interface {
	Read(p []byte) (int, error)
}

// SystemRandom is the operating system CSPRNG.
var SystemRandom RandomSource = rand.Reader

// GenerateRandom reads n bytes from src.
func GenerateRandom(src RandomSource, n int) ([]byte, error) {
	if src == nil {
		src = SystemRandom
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(src, b); err != nil {
		return nil, fmt.Errorf("%w: failed to generate random bytes: %v", ErrUnavailable, err)
	}
	return b, nil
}
