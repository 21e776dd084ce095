package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/token"
)

// EncryptOptions are the caller-supplied parameters of an encryption.
type EncryptOptions struct {
	Password   []byte
	Note       string
	Iterations int // zero selects the engine default
}

// File is a binary payload with its metadata.
type File struct {
	Name string
	MIME string
	Data []byte
}

// EncryptResult is a freshly created token.
type EncryptResult struct {
	Token       string
	Header      token.Header
	Fingerprint string
}

func fmtInvalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// EncryptText seals a text payload.
func (e *Engine) EncryptText(ctx context.Context, plaintext string, opts EncryptOptions) (*EncryptResult, error) {
	if !utf8.ValidString(plaintext) {
		return nil, fmtInvalid("text is not valid UTF-8")
	}
	return e.encrypt(ctx, token.KindText, []byte(plaintext), File{}, opts)
}

// EncryptFile seals a file payload. The header records the base name,
// MIME type and size of the file.
func (e *Engine) EncryptFile(ctx context.Context, f File, opts EncryptOptions) (*EncryptResult, error) {
	name := filepath.Base(filepath.Clean(f.Name))
	if f.Name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmtInvalid("file name is required")
	}
	if len(f.Data) > MaxFileSize {
		return nil, fmtInvalid("file is %d bytes, limit is %d", len(f.Data), MaxFileSize)
	}
	f.Name = name
	if f.MIME == "" {
		f.MIME = DefaultMIME
	}
	return e.encrypt(ctx, token.KindFile, f.Data, f, opts)
}

func (e *Engine) encrypt(ctx context.Context, kind token.Kind, payload []byte, f File, opts EncryptOptions) (*EncryptResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(opts.Password) == 0 {
		return nil, fmtInvalid("password is required")
	}
	if len(opts.Note) > MaxNoteLength {
		return nil, fmtInvalid("note is %d bytes, limit is %d", len(opts.Note), MaxNoteLength)
	}

	iterations := e.iterations
	if opts.Iterations != 0 {
		iterations = crypto.ClampIterations(opts.Iterations)
	}

	// Fresh salt and IV for every token; the (key, IV) pair never repeats
	salt, err := crypto.GenerateRandom(e.random, crypto.SaltSize)
	if err != nil {
		return nil, &EnvironmentError{Op: "generate salt", Err: err}
	}
	iv, err := crypto.GenerateRandom(e.random, crypto.IVSize)
	if err != nil {
		return nil, &EnvironmentError{Op: "generate iv", Err: err}
	}

	header := token.NewHeader(kind, iterations, salt, iv, e.now())
	header.Note = opts.Note
	if kind == token.KindFile {
		header.Filename = f.Name
		header.MIME = f.MIME
		header.Size = int64(len(payload))
	}

	segment, err := header.MarshalSegment()
	if err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}

	start := time.Now()
	key, err := crypto.DeriveKey(opts.Password, salt, iterations)
	if err != nil {
		return nil, &EnvironmentError{Op: "derive key", Err: err}
	}
	defer crypto.ClearBytes(key)
	kdfTime := time.Since(start)

	ciphertext, err := crypto.Seal(key, iv, payload, []byte(segment))
	if err != nil {
		return nil, &EnvironmentError{Op: "encrypt", Err: err}
	}

	fingerprint := crypto.Fingerprint(ciphertext)
	e.log.Debug().
		Str("fingerprint", shortFP(fingerprint)).
		Str("kind", string(kind)).
		Int("iterations", iterations).
		Int("size", len(payload)).
		Dur("kdf", kdfTime).
		Msg("token encrypted")

	return &EncryptResult{
		Token:       token.Join(segment, ciphertext),
		Header:      header,
		Fingerprint: fingerprint,
	}, nil
}
