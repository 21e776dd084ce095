package keyring

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestPasswordLifecycle(t *testing.T) {
	keyring.MockInit()
	const fp = "0123456789abcdef"

	if HasPassword(fp) {
		t.Fatal("No password should be stored yet")
	}
	if err := SavePassword(fp, "correct-horse"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}
	got, err := GetPassword(fp)
	if err != nil {
		t.Fatalf("GetPassword failed: %v", err)
	}
	if got != "correct-horse" {
		t.Errorf("Password mismatch: got %q", got)
	}
	if err := DeletePassword(fp); err != nil {
		t.Fatalf("DeletePassword failed: %v", err)
	}
	if err := DeletePassword(fp); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := GetPassword(fp); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
