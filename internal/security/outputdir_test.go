package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		errType error
	}{
		// Plain names
		{"simple file", "report.pdf", "report.pdf", nil},
		{"hidden file", ".env", ".env", nil},
		{"spaces trimmed", "  notes.txt ", "notes.txt", nil},
		{"unicode", "résumé.docx", "résumé.docx", nil},

		// Directory components are dropped
		{"subdirectory", "docs/report.pdf", "report.pdf", nil},
		{"traversal prefix", "../../etc/passwd", "passwd", nil},
		{"backslash traversal", "..\\..\\boot.ini", "boot.ini", nil},

		// Rejected
		{"empty", "", "", ErrEmptyPath},
		{"blank", "   ", "", ErrEmptyPath},
		{"absolute unix", "/etc/passwd", "", ErrAbsolutePath},
		{"absolute backslash", "\\Windows\\win.ini", "", ErrAbsolutePath},
		{"parent only", "..", "", ErrPathEscapes},
		{"dot only", ".", "", ErrPathEscapes},
		{"trailing slash", "dir/", "", ErrPathEscapes},
		{"trailing parent", "a/..", "", ErrPathEscapes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeName(tt.input)
			if tt.errType != nil {
				if !errors.Is(err, tt.errType) {
					t.Errorf("SanitizeName(%q) error = %v, want %v", tt.input, err, tt.errType)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizeName(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOutputDir_WriteStaysInside(t *testing.T) {
	parent := t.TempDir()
	outPath := filepath.Join(parent, "out")

	dir, err := New(outPath)
	if err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}
	defer dir.Close()

	if err := dir.WriteFile("../escape.txt", []byte("data"), 0600, false); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(parent, "escape.txt")); !os.IsNotExist(err) {
		t.Error("File escaped the output directory")
	}
	data, err := os.ReadFile(filepath.Join(outPath, "escape.txt"))
	if err != nil {
		t.Fatalf("Expected file inside output dir: %v", err)
	}
	if string(data) != "data" {
		t.Errorf("Content mismatch: %q", data)
	}
}

func TestOutputDir_NoOverwriteWithoutFlag(t *testing.T) {
	dir, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}
	defer dir.Close()

	if err := dir.WriteFile("a.txt", []byte("first"), 0600, false); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := dir.WriteFile("a.txt", []byte("second"), 0600, false); !errors.Is(err, ErrFileExists) {
		t.Errorf("Expected ErrFileExists, got %v", err)
	}

	data, err := dir.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("File was overwritten: %q", data)
	}

	if err := dir.WriteFile("a.txt", []byte("second"), 0600, true); err != nil {
		t.Fatalf("WriteFile with overwrite failed: %v", err)
	}
	data, _ = dir.ReadFile("a.txt")
	if string(data) != "second" {
		t.Errorf("File was not overwritten: %q", data)
	}
}

func TestOutputDir_SymlinkEscape(t *testing.T) {
	parent := t.TempDir()
	outside := filepath.Join(parent, "outside.txt")
	if err := os.WriteFile(outside, []byte("keep"), 0600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	outPath := filepath.Join(parent, "out")
	dir, err := New(outPath)
	if err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}
	defer dir.Close()

	if err := os.Symlink(outside, filepath.Join(outPath, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	// os.Root refuses to follow a link out of the directory
	if err := dir.WriteFile("link.txt", []byte("pwned"), 0600, true); err == nil {
		t.Error("Expected write through an escaping symlink to fail")
	}
	data, _ := os.ReadFile(outside)
	if string(data) != "keep" {
		t.Errorf("File outside the output directory was modified: %q", data)
	}
}

func TestOutputDir_ReadFile(t *testing.T) {
	dir, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}
	defer dir.Close()

	if _, err := dir.ReadFile("missing.txt"); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
	if _, err := dir.ReadFile("/etc/passwd"); !errors.Is(err, ErrAbsolutePath) {
		t.Errorf("Expected ErrAbsolutePath, got %v", err)
	}
	if err := dir.WriteFile("present.txt", []byte("x"), 0600, false); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := dir.ReadFile("present.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "x" {
		t.Errorf("Content mismatch: %q", data)
	}
	if dir.Join("present.txt") != filepath.Join(dir.Path(), "present.txt") {
		t.Errorf("Join mismatch")
	}
}
