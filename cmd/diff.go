package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/pasco/internal/core"
	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/token"
)

// Diff compares a token's payload with a local file
func Diff(ctx context.Context, arg string, localPath string) {
	raw, err := ReadTokenArg(arg)
	if err != nil {
		HandleError(err)
	}

	tok, err := token.Decode(raw)
	if err != nil {
		HandleError(err)
	}

	local, err := os.ReadFile(localPath)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(local)

	s := LoadSessionOrExit()

	result, password, _, err := DecryptWithRetry(ctx, s, raw, tok.Fingerprint())
	if err != nil {
		HandleError(err)
	}
	crypto.ClearBytes(password)
	defer crypto.ClearBytes(result.Payload)

	name := filepath.Base(localPath)
	if result.Kind == token.KindFile {
		name = result.Header.Filename
	}

	diff := core.PayloadDiff(name, result.Payload, local)
	if diff == "" {
		fmt.Println("No differences")
		return
	}
	fmt.Print(diff)
}
