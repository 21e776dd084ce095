package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/illarion/pasco/internal/config"
	"github.com/illarion/pasco/internal/core"
	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/keyring"
	"github.com/illarion/pasco/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// maxTokenInput bounds tokens read from files or stdin
const maxTokenInput = 256 << 20

// Session holds the resolved configuration. The attempt database is opened
// only for the operations that need it and closed right after, so a pending
// password prompt never holds its file lock.
type Session struct {
	Config *config.Config
	Log    zerolog.Logger
}

// NewLogger builds the console logger used by every command
func NewLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

// LoadSession resolves configuration and logging
func LoadSession() (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &Session{Config: cfg, Log: NewLogger(cfg.LogLevel)}, nil
}

// LoadSessionOrExit is like LoadSession but exits on error
func LoadSessionOrExit() *Session {
	s, err := LoadSession()
	if err != nil {
		HandleError(err)
	}
	return s
}

func (s *Session) engineOptions() []core.Option {
	return []core.Option{
		core.WithIterations(s.Config.Iterations),
		core.WithMaxAttempts(s.Config.MaxAttempts),
		core.WithLogger(s.Log),
	}
}

// Encrypter returns an engine for encryption. It has no attempt store.
func (s *Session) Encrypter() *core.Engine {
	return core.New(nil, s.engineOptions()...)
}

// WithStore opens the attempt database, runs fn with an engine backed by it
// and closes the database again.
func (s *Session) WithStore(fn func(*storage.Storage, *core.Engine) error) error {
	store, err := storage.Open(s.Config.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open attempt database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			s.Log.Warn().Err(err).Msg("failed to close attempt database")
		}
	}()
	s.Log.Debug().Str("path", store.Path()).Msg("attempt database opened")

	return fn(store, core.New(store, s.engineOptions()...))
}

// Decrypt opens a token with the attempt database held only for the call
func (s *Session) Decrypt(ctx context.Context, raw string, password []byte) (*core.DecryptResult, error) {
	var result *core.DecryptResult
	err := s.WithStore(func(_ *storage.Storage, engine *core.Engine) error {
		var err error
		result, err = engine.DecryptToken(ctx, raw, password)
		return err
	})
	return result, err
}

// PasswordSource indicates where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// GetPassword retrieves password from environment or prompts user
// The caller is responsible for calling crypto.ClearBytes on the returned password
func GetPassword(prompt string) ([]byte, PasswordSource, error) {
	// Try environment variable first
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	// Prompt user
	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// GetPasswordForToken resolves the password used to open the token with the
// given fingerprint: environment, then OS keyring, then prompt.
func GetPasswordForToken(prompt, fingerprint string) ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	if stored, err := keyring.GetPassword(fingerprint); err == nil && stored != "" {
		return []byte(stored), SourceKeyring, nil
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// GetPasswordForEncrypt retrieves the password for a new token
// Checks environment variable first, then prompts with confirmation
func GetPasswordForEncrypt() ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	password, err := core.ReadPasswordConfirm()
	if err != nil {
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// DecryptWithRetry opens a token, falling back to a prompt when a password
// taken from the keyring no longer works. The stale keyring entry is removed.
// The caller is responsible for calling crypto.ClearBytes on the returned password
func DecryptWithRetry(ctx context.Context, s *Session, raw, fingerprint string) (*core.DecryptResult, []byte, PasswordSource, error) {
	password, source, err := GetPasswordForToken("Enter password: ", fingerprint)
	if err != nil {
		return nil, nil, source, err
	}

	result, err := s.Decrypt(ctx, raw, password)
	if err == nil {
		return result, password, source, nil
	}
	crypto.ClearBytes(password)
	if source != SourceKeyring || !errors.Is(err, core.ErrAuthentication) {
		return nil, nil, source, err
	}

	fmt.Fprintln(os.Stderr, "warning: password stored in keyring is no longer valid, removing it")
	if derr := keyring.DeletePassword(fingerprint); derr != nil {
		s.Log.Warn().Err(derr).Msg("failed to remove stale keyring entry")
	}

	password, err = core.ReadPassword("Enter password: ")
	if err != nil {
		return nil, nil, SourcePrompt, err
	}
	result, err = s.Decrypt(ctx, raw, password)
	if err != nil {
		crypto.ClearBytes(password)
		return nil, nil, SourcePrompt, err
	}
	return result, password, SourcePrompt, nil
}

// OfferToSavePassword asks whether to remember a prompted password for the
// token's fingerprint
func OfferToSavePassword(fingerprint string, password []byte) {
	if !Confirm("Save password to OS keyring? [y/N]: ") {
		return
	}
	SavePasswordToKeyring(fingerprint, password)
}

// SavePasswordToKeyring stores password for fingerprint and reports the outcome
func SavePasswordToKeyring(fingerprint string, password []byte) {
	if err := keyring.SavePassword(fingerprint, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "Password saved to keyring")
}

// IsInteractive reports whether stdin is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm asks a yes/no question on stderr and reads the answer from stdin
func Confirm(question string) bool {
	fmt.Fprint(os.Stderr, question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// ReadTokenArg resolves a token argument: a literal token, @path to read it
// from a file, or - to read it from stdin.
func ReadTokenArg(arg string) (string, error) {
	switch {
	case arg == "-":
		return readLimited(os.Stdin, "stdin")
	case strings.HasPrefix(arg, "@"):
		path := strings.TrimPrefix(arg, "@")
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		defer f.Close()
		return readLimited(f, path)
	default:
		return arg, nil
	}
}

func readLimited(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTokenInput+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) > maxTokenInput {
		return "", fmt.Errorf("%s exceeds %s", name, formatSize(maxTokenInput))
	}
	return string(data), nil
}

// HandleError handles common errors consistently
func HandleError(err error) {
	var locked *core.LockedError
	switch {
	case errors.Is(err, storage.ErrBusy):
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		fmt.Fprintln(os.Stderr, "Another pasco command is running, try again when it finishes")
	case errors.As(err, &locked):
		fmt.Fprintf(os.Stderr, "error: too many failed attempts (%d/%d)\n", locked.Failures, locked.MaxAttempts)
		fmt.Fprintf(os.Stderr, "Run 'pasco attempts -reset %s' to unlock this token\n", locked.Fingerprint)
	case errors.Is(err, core.ErrAuthentication):
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		fmt.Fprintln(os.Stderr, "The password is wrong or the token was modified")
	case errors.Is(err, core.ErrFormat):
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		fmt.Fprintln(os.Stderr, "Expected PASCO1.<header>.<ciphertext>")
	default:
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
	}
	os.Exit(1)
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
