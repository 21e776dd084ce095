package core

import (
	"context"
	"errors"
	"time"

	"github.com/illarion/pasco/internal/attempts"
	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/token"
)

// DecryptResult is an opened token.
type DecryptResult struct {
	Kind        token.Kind
	Header      token.Header
	Payload     []byte
	Fingerprint string
}

// Text returns the payload as a string.
func (r *DecryptResult) Text() string {
	return string(r.Payload)
}

// DecryptToken opens a token with password.
//
// Errors: *FormatError for malformed tokens (no attempt charged),
// *LockedError when the attempt limit is reached (no key derived),
// *AuthenticationError for a wrong password or corrupted token (one attempt
// charged), *EnvironmentError when primitives or storage fail.
func (e *Engine) DecryptToken(ctx context.Context, s string, password []byte) (*DecryptResult, error) {
	tok, err := token.Decode(s)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, fmtInvalid("password is required")
	}

	if e.policy == nil {
		return nil, &EnvironmentError{Op: "record attempt", Err: ErrNoStore}
	}

	fingerprint := tok.Fingerprint()
	log := e.log.With().Str("fingerprint", shortFP(fingerprint)).Logger()

	attempt, err := e.policy.Begin(ctx, fingerprint)
	if err != nil {
		var locked *LockedError
		if errors.As(err, &locked) {
			log.Warn().Int("failures", locked.Failures).Msg("decrypt refused, fingerprint locked")
			return nil, err
		}
		return nil, &EnvironmentError{Op: "record attempt", Err: err}
	}

	// Once charged, the reset or refund lands even if ctx is canceled
	settle := context.WithoutCancel(ctx)

	start := time.Now()
	key, err := crypto.DeriveKey(password, tok.Header.Salt, tok.Header.Iterations)
	if err != nil {
		e.abort(settle, attempt)
		return nil, &EnvironmentError{Op: "derive key", Err: err}
	}
	defer crypto.ClearBytes(key)
	kdfTime := time.Since(start)

	plaintext, err := crypto.Open(key, tok.Header.IV, tok.Ciphertext, tok.AssociatedData())
	if errors.Is(err, crypto.ErrAuthFailed) {
		status := attempt.Fail()
		log.Warn().
			Int("failures", status.Failures).
			Int("remaining", status.Remaining()).
			Msg("decrypt failed authentication")
		return nil, &AuthenticationError{Fingerprint: fingerprint, Remaining: status.Remaining()}
	}
	if err != nil {
		e.abort(settle, attempt)
		return nil, &EnvironmentError{Op: "decrypt", Err: err}
	}

	if err := attempt.Succeed(settle); err != nil {
		log.Error().Err(err).Msg("failed to reset attempt counter")
	}

	log.Debug().
		Str("kind", string(tok.Header.Kind)).
		Int("iterations", tok.Header.Iterations).
		Dur("kdf", kdfTime).
		Msg("token decrypted")

	return &DecryptResult{
		Kind:        tok.Header.Kind,
		Header:      tok.Header,
		Payload:     plaintext,
		Fingerprint: fingerprint,
	}, nil
}

func (e *Engine) abort(ctx context.Context, attempt *attempts.Attempt) {
	if err := attempt.Abort(ctx); err != nil {
		e.log.Error().Err(err).Msg("failed to refund attempt")
	}
}
