package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/illarion/pasco/internal/crypto"
)

const (
	Version   = 1
	Algorithm = "AES-256-GCM"
	KDF       = "PBKDF2-SHA256"

	// createdAt is ISO-8601 in UTC with millisecond precision
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Kind distinguishes text payloads from file payloads.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
)

// suite is one supported (version, algorithm, kdf) combination.
type suite struct {
	version   int
	algorithm string
	kdf       string
}

var supportedSuites = map[suite]bool{
	{Version, Algorithm, KDF}: true,
}

// Header is the cleartext metadata embedded in every token.
type Header struct {
	Version    int
	Algorithm  string
	KDF        string
	Iterations int
	Salt       []byte
	IV         []byte
	CreatedAt  time.Time
	Kind       Kind

	// File metadata, set only when Kind is KindFile
	Filename string
	MIME     string
	Size     int64

	Note string
}

// wireHeader is the JSON shape of Header.
type wireHeader struct {
	V         int    `json:"v"`
	Alg       string `json:"alg"`
	KDF       string `json:"kdf"`
	Iter      int    `json:"iter"`
	Salt      string `json:"salt"`
	IV        string `json:"iv"`
	CreatedAt string `json:"createdAt"`
	Kind      Kind   `json:"kind"`
	Filename  string `json:"filename,omitempty"`
	MIME      string `json:"mime,omitempty"`
	Size      *int64 `json:"size,omitempty"`
	Note      string `json:"note,omitempty"`
}

var b64 = base64.RawURLEncoding.Strict()

// NewHeader returns a current-suite header for the given parameters.
func NewHeader(kind Kind, iterations int, salt, iv []byte, createdAt time.Time) Header {
	return Header{
		Version:    Version,
		Algorithm:  Algorithm,
		KDF:        KDF,
		Iterations: iterations,
		Salt:       salt,
		IV:         iv,
		CreatedAt:  createdAt.UTC().Truncate(time.Millisecond),
		Kind:       kind,
	}
}

// Validate checks the header against the strict schema.
func (h Header) Validate() error {
	if !supportedSuites[suite{h.Version, h.Algorithm, h.KDF}] {
		return formatErr("unsupported suite v=%d alg=%q kdf=%q", h.Version, h.Algorithm, h.KDF)
	}
	if !crypto.ValidIterations(h.Iterations) {
		return formatErr("iteration count %d out of range [%d, %d]", h.Iterations, crypto.MinIterations, crypto.MaxIterations)
	}
	if len(h.Salt) != crypto.SaltSize {
		return formatErr("salt must be %d bytes, got %d", crypto.SaltSize, len(h.Salt))
	}
	if len(h.IV) != crypto.IVSize {
		return formatErr("iv must be %d bytes, got %d", crypto.IVSize, len(h.IV))
	}
	if h.CreatedAt.IsZero() {
		return formatErr("missing createdAt")
	}

	switch h.Kind {
	case KindText:
		if h.Filename != "" || h.MIME != "" || h.Size != 0 {
			return formatErr("text token carries file metadata")
		}
	case KindFile:
		if h.Filename == "" {
			return formatErr("file token without filename")
		}
		if h.Size < 0 {
			return formatErr("negative file size")
		}
	default:
		return formatErr("unknown kind %q", h.Kind)
	}
	return nil
}

// MarshalSegment encodes the header as an unpadded base64url JSON segment.
func (h Header) MarshalSegment() (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}

	w := wireHeader{
		V:         h.Version,
		Alg:       h.Algorithm,
		KDF:       h.KDF,
		Iter:      h.Iterations,
		Salt:      b64.EncodeToString(h.Salt),
		IV:        b64.EncodeToString(h.IV),
		CreatedAt: h.CreatedAt.UTC().Format(timeLayout),
		Kind:      h.Kind,
		Note:      h.Note,
	}
	if h.Kind == KindFile {
		size := h.Size
		w.Filename = h.Filename
		w.MIME = h.MIME
		w.Size = &size
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return b64.EncodeToString(data), nil
}

// parseHeader decodes and validates a header segment.
func parseHeader(segment string) (Header, error) {
	raw, err := b64.DecodeString(segment)
	if err != nil {
		return Header{}, formatErr("header is not base64url: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var w wireHeader
	if err := dec.Decode(&w); err != nil {
		return Header{}, formatErr("header is not valid JSON: %v", err)
	}
	// Anything after the object, including a stray closing brace, is rejected
	if _, err := dec.Token(); err != io.EOF {
		return Header{}, formatErr("trailing data after header")
	}

	salt, err := b64.DecodeString(w.Salt)
	if err != nil {
		return Header{}, formatErr("salt is not base64url")
	}
	iv, err := b64.DecodeString(w.IV)
	if err != nil {
		return Header{}, formatErr("iv is not base64url")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return Header{}, formatErr("createdAt is not ISO-8601")
	}

	h := Header{
		Version:    w.V,
		Algorithm:  w.Alg,
		KDF:        w.KDF,
		Iterations: w.Iter,
		Salt:       salt,
		IV:         iv,
		CreatedAt:  createdAt,
		Kind:       w.Kind,
		Filename:   w.Filename,
		MIME:       w.MIME,
		Note:       w.Note,
	}
	if w.Size != nil {
		h.Size = *w.Size
	}
	if h.Kind == KindFile && w.Size == nil {
		return Header{}, formatErr("file token without size")
	}
	if h.Kind == KindText && w.Size != nil {
		return Header{}, formatErr("text token carries file metadata")
	}

	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}
