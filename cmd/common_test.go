package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/illarion/pasco/internal/core"
	"github.com/illarion/pasco/internal/keyring"
	"github.com/illarion/pasco/internal/storage"
	gokeyring "github.com/zalando/go-keyring"
)

const sampleToken = "PASCO1.eyJ2IjoxfQ.AAAA"

func TestReadTokenArg(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "token.txt")
	if err := os.WriteFile(path, []byte(sampleToken+"\n"), 0600); err != nil {
		t.Fatalf("Failed to write token file: %v", err)
	}

	got, err := ReadTokenArg(sampleToken)
	if err != nil || got != sampleToken {
		t.Errorf("literal: got %q, %v", got, err)
	}

	got, err = ReadTokenArg("@" + path)
	if err != nil {
		t.Fatalf("@file: %v", err)
	}
	if strings.TrimSpace(got) != sampleToken {
		t.Errorf("@file: got %q", got)
	}

	if _, err := ReadTokenArg("@" + filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Expected error for missing token file")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.size); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestGetPasswordForTokenPrefersEnv(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(core.PasswordEnv, "from-env")

	fp := strings.Repeat("a", 64)
	if err := keyring.SavePassword(fp, "from-keyring"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	password, source, err := GetPasswordForToken("", fp)
	if err != nil {
		t.Fatalf("GetPasswordForToken failed: %v", err)
	}
	if source != SourceEnv || string(password) != "from-env" {
		t.Errorf("got %q from %v, want env password", password, source)
	}
}

func TestGetPasswordForTokenFallsBackToKeyring(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(core.PasswordEnv, "")

	fp := strings.Repeat("b", 64)
	if err := keyring.SavePassword(fp, "from-keyring"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	password, source, err := GetPasswordForToken("", fp)
	if err != nil {
		t.Fatalf("GetPasswordForToken failed: %v", err)
	}
	if source != SourceKeyring || string(password) != "from-keyring" {
		t.Errorf("got %q from %v, want keyring password", password, source)
	}
}

func testSession(t *testing.T) (*Session, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PASCO_CONFIG", "")
	t.Setenv("PASCO_HOME", home)
	t.Setenv("PASCO_ITERATIONS", "50000")
	t.Setenv("PASCO_MAX_ATTEMPTS", "3")
	t.Setenv("PASCO_LOG_LEVEL", "")

	s, err := LoadSession()
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	return s, home
}

func TestLoadSessionUsesConfiguredHome(t *testing.T) {
	s, home := testSession(t)

	if s.Config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", s.Config.MaxAttempts)
	}
	if filepath.Dir(s.Config.DatabasePath()) != home {
		t.Errorf("database at %s, want inside %s", s.Config.DatabasePath(), home)
	}
}

func TestEncrypterDoesNotOpenDatabase(t *testing.T) {
	s, _ := testSession(t)

	res, err := s.Encrypter().EncryptText(context.Background(), "secret", core.EncryptOptions{Password: []byte("pw")})
	if err != nil {
		t.Fatalf("EncryptText failed: %v", err)
	}
	if res.Token == "" {
		t.Fatal("Expected a token")
	}
	if _, err := os.Stat(s.Config.DatabasePath()); !os.IsNotExist(err) {
		t.Errorf("Encryption should not create the attempt database, stat err = %v", err)
	}
}

func TestSessionDecryptReleasesDatabase(t *testing.T) {
	ctx := context.Background()
	s, _ := testSession(t)

	res, err := s.Encrypter().EncryptText(ctx, "secret", core.EncryptOptions{Password: []byte("pw")})
	if err != nil {
		t.Fatalf("EncryptText failed: %v", err)
	}

	if _, err := s.Decrypt(ctx, res.Token, []byte("wrong")); !errors.Is(err, core.ErrAuthentication) {
		t.Fatalf("Expected authentication error, got %v", err)
	}

	// The lock is gone once the call returns
	store, err := storage.Open(s.Config.DatabasePath())
	if err != nil {
		t.Fatalf("Database still held after decrypt: %v", err)
	}
	record, err := store.Get(ctx, res.Fingerprint)
	store.Close()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Failures != 1 {
		t.Errorf("Failures = %d, want 1", record.Failures)
	}

	out, err := s.Decrypt(ctx, res.Token, []byte("pw"))
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if out.Text() != "secret" {
		t.Errorf("Unexpected payload: %q", out.Text())
	}

	err = s.WithStore(func(_ *storage.Storage, engine *core.Engine) error {
		if engine.MaxAttempts() != 3 {
			t.Errorf("MaxAttempts = %d, want 3", engine.MaxAttempts())
		}
		st, err := engine.Attempts(ctx, res.Token)
		if err != nil {
			return err
		}
		if st.Failures != 0 {
			t.Errorf("Failures after success = %d, want 0", st.Failures)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithStore failed: %v", err)
	}
}
