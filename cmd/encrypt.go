package cmd

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/illarion/pasco/internal/core"
	"github.com/illarion/pasco/internal/crypto"
)

// EncryptOptions holds the flags shared by encrypt and seal
type EncryptOptions struct {
	Note         string
	Iterations   int
	SavePassword bool
}

// Encrypt seals a text message. With no argument the text is read from stdin.
func Encrypt(ctx context.Context, args []string, opts EncryptOptions) {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, core.MaxFileSize+1))
		if err != nil {
			HandleError(fmt.Errorf("failed to read stdin: %w", err))
		}
		if len(data) > core.MaxFileSize {
			HandleError(fmt.Errorf("%w: input exceeds %s", core.ErrInvalidInput, formatSize(core.MaxFileSize)))
		}
		text = string(data)
	}

	s := LoadSessionOrExit()

	password, source, err := GetPasswordForEncrypt()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	result, err := s.Encrypter().EncryptText(ctx, text, core.EncryptOptions{
		Password:   password,
		Note:       opts.Note,
		Iterations: opts.Iterations,
	})
	if err != nil {
		HandleError(err)
	}

	fmt.Println(result.Token)
	fmt.Fprintf(os.Stderr, "fingerprint: %s\n", result.Fingerprint)

	if opts.SavePassword && source != SourceEnv {
		SavePasswordToKeyring(result.Fingerprint, password)
	}
}

// Seal encrypts a file. The token is printed or written to out.
func Seal(ctx context.Context, path string, mimeType string, out string, opts EncryptOptions) {
	info, err := os.Stat(path)
	if err != nil {
		HandleError(err)
	}
	if info.IsDir() {
		HandleError(fmt.Errorf("%w: %s is a directory", core.ErrInvalidInput, path))
	}
	if info.Size() > core.MaxFileSize {
		HandleError(fmt.Errorf("%w: %s is %s, limit is %s", core.ErrInvalidInput,
			path, formatSize(info.Size()), formatSize(core.MaxFileSize)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(data)

	if mimeType == "" {
		mimeType = detectMIME(path, data)
	}

	s := LoadSessionOrExit()

	password, source, err := GetPasswordForEncrypt()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	result, err := s.Encrypter().EncryptFile(ctx, core.File{
		Name: filepath.Base(path),
		MIME: mimeType,
		Data: data,
	}, core.EncryptOptions{
		Password:   password,
		Note:       opts.Note,
		Iterations: opts.Iterations,
	})
	if err != nil {
		HandleError(err)
	}

	if out == "" {
		fmt.Println(result.Token)
	} else {
		if err := os.WriteFile(out, []byte(result.Token+"\n"), 0644); err != nil {
			HandleError(err)
		}
		fmt.Printf("sealed: %s (%s) -> %s\n", result.Header.Filename, formatSize(result.Header.Size), out)
	}
	fmt.Fprintf(os.Stderr, "fingerprint: %s\n", result.Fingerprint)

	if opts.SavePassword && source != SourceEnv {
		SavePasswordToKeyring(result.Fingerprint, password)
	}
}

// detectMIME guesses a MIME type from the extension, then from content
func detectMIME(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	if len(data) == 0 {
		return core.DefaultMIME
	}
	return http.DetectContentType(data)
}
