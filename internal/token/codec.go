package token

import (
	"strings"

	"github.com/illarion/pasco/internal/crypto"
)

const (
	Prefix    = "PASCO1"
	Separator = "."
)

// Token is a decoded PASCO1 token.
type Token struct {
	Header Header

	// HeaderSegment is the encoded header exactly as it appeared on the
	// wire. It is the associated data authenticated by the AEAD tag.
	HeaderSegment string

	Ciphertext []byte
}

// AssociatedData returns the bytes bound to the AEAD tag.
func (t *Token) AssociatedData() []byte {
	return []byte(t.HeaderSegment)
}

// Fingerprint returns the fingerprint of the token's ciphertext.
func (t *Token) Fingerprint() string {
	return crypto.Fingerprint(t.Ciphertext)
}

// Join assembles a token from an encoded header segment and ciphertext.
func Join(headerSegment string, ciphertext []byte) string {
	return Prefix + Separator + headerSegment + Separator + b64.EncodeToString(ciphertext)
}

// Encode serializes a header and ciphertext into a token string.
func Encode(h Header, ciphertext []byte) (string, error) {
	segment, err := h.MarshalSegment()
	if err != nil {
		return "", err
	}
	return Join(segment, ciphertext), nil
}

// Decode parses and validates a token string.
// Surrounding whitespace is ignored; everything else must be exact.
func Decode(s string) (*Token, error) {
	s = strings.TrimSpace(s)

	parts := strings.Split(s, Separator)
	if parts[0] != Prefix {
		return nil, formatErr("missing %s prefix", Prefix)
	}
	if len(parts) != 3 {
		return nil, formatErr("expected 3 segments, got %d", len(parts))
	}
	if parts[1] == "" || parts[2] == "" {
		return nil, formatErr("empty segment")
	}

	header, err := parseHeader(parts[1])
	if err != nil {
		return nil, err
	}

	ciphertext, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, formatErr("ciphertext is not base64url: %v", err)
	}
	if len(ciphertext) < crypto.TagSize {
		return nil, formatErr("ciphertext shorter than authentication tag")
	}

	return &Token{
		Header:        header,
		HeaderSegment: parts[1],
		Ciphertext:    ciphertext,
	}, nil
}
