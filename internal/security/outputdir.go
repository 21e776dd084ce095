// Package security confines files written from decrypted tokens to one
// output directory.
//
// A token's filename comes from its header, which anyone can edit before
// handing the token over. Names are reduced to a single local path element
// and every file operation goes through os.Root, so a crafted filename can
// never write outside the chosen directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes output directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrFileExists   = errors.New("file already exists")
)

// OutputDir provides confined file operations in one directory using the
// os.Root API.
type OutputDir struct {
	root *os.Root
	path string
}

// New opens dir, creating it if needed.
func New(dir string) (*OutputDir, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}

	return &OutputDir{
		root: root,
		path: absPath,
	}, nil
}

// Close releases the directory handle.
func (d *OutputDir) Close() error {
	if d.root != nil {
		return d.root.Close()
	}
	return nil
}

// Path returns the absolute directory path.
func (d *OutputDir) Path() string {
	return d.path
}

// Join returns the absolute path of a sanitized name inside the directory.
func (d *OutputDir) Join(name string) string {
	return filepath.Join(d.path, name)
}

// SanitizeName turns an untrusted filename into a single local path element.
// Directory components are dropped; names that cannot be made local are
// rejected.
func SanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyPath
	}

	// Treat both separators as separators regardless of platform
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %s", ErrAbsolutePath, name)
	}

	base := slashed
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if base == "" || base == "." || base == ".." {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}

	// filepath.IsLocal also rejects reserved names such as NUL on Windows
	if !filepath.IsLocal(base) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}

	return base, nil
}

// WriteFile writes data to name inside the directory. Unless overwrite is
// set, an existing file is left untouched and ErrFileExists is returned.
func (d *OutputDir) WriteFile(name string, data []byte, perm os.FileMode, overwrite bool) error {
	clean, err := SanitizeName(name)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := d.root.OpenFile(clean, flags, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, clean)
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads name inside the directory.
func (d *OutputDir) ReadFile(name string) ([]byte, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return d.root.ReadFile(clean)
}
