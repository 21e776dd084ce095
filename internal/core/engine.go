package core

import (
	"context"
	"time"

	"github.com/illarion/pasco/internal/attempts"
	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/token"
	"github.com/rs/zerolog"
)

const (
	MaxNoteLength = 1024      // bytes
	MaxFileSize   = 128 << 20 // 128 MiB
	DefaultMIME   = "application/octet-stream"
)

// Engine encrypts and decrypts tokens. It is safe for concurrent use.
type Engine struct {
	policy      *attempts.Policy
	random      crypto.RandomSource
	now         func() time.Time
	iterations  int
	maxAttempts int
	log         zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom sets the random source for salts and IVs.
func WithRandom(r crypto.RandomSource) Option {
	return func(e *Engine) {
		e.random = r
	}
}

// WithClock sets the time source for createdAt and attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIterations sets the default PBKDF2 iteration count (clamped).
func WithIterations(n int) Option {
	return func(e *Engine) {
		e.iterations = crypto.ClampIterations(n)
	}
}

// WithMaxAttempts sets the failure limit per fingerprint.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an Engine that keeps attempt counters in store. A nil store
// gives an engine that can only encrypt and read fingerprints; decryption
// and attempt queries then fail with ErrNoStore.
func New(store attempts.Store, opts ...Option) *Engine {
	e := &Engine{
		random:      crypto.SystemRandom,
		now:         time.Now,
		iterations:  crypto.DefaultIterations,
		maxAttempts: attempts.DefaultMaxAttempts,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if store != nil {
		e.policy = attempts.New(store,
			attempts.WithMaxAttempts(e.maxAttempts),
			attempts.WithClock(e.now))
	}
	return e
}

// FingerprintFromToken returns the fingerprint of a token without a
// password. Malformed tokens fail with a FormatError.
func (e *Engine) FingerprintFromToken(s string) (string, error) {
	tok, err := token.Decode(s)
	if err != nil {
		return "", err
	}
	return tok.Fingerprint(), nil
}

// Attempts returns the attempt counter for a token.
func (e *Engine) Attempts(ctx context.Context, s string) (attempts.Status, error) {
	fingerprint, err := e.FingerprintFromToken(s)
	if err != nil {
		return attempts.Status{}, err
	}
	if e.policy == nil {
		return attempts.Status{}, ErrNoStore
	}
	return e.policy.Status(ctx, fingerprint)
}

// ListAttempts returns every fingerprint with failed attempts on this device.
func (e *Engine) ListAttempts(ctx context.Context) ([]attempts.Status, error) {
	if e.policy == nil {
		return nil, ErrNoStore
	}
	return e.policy.List(ctx)
}

// ResetAttempts clears the counter for a fingerprint.
func (e *Engine) ResetAttempts(ctx context.Context, fingerprint string) error {
	if !crypto.ValidFingerprint(fingerprint) {
		return fmtInvalid("malformed fingerprint %q", fingerprint)
	}
	if e.policy == nil {
		return ErrNoStore
	}
	return e.policy.Reset(ctx, fingerprint)
}

// MaxAttempts returns the configured failure limit.
func (e *Engine) MaxAttempts() int {
	if e.policy == nil {
		return attempts.New(nil, attempts.WithMaxAttempts(e.maxAttempts)).MaxAttempts()
	}
	return e.policy.MaxAttempts()
}

func shortFP(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
