package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/illarion/pasco/internal/core"
	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/git"
	"github.com/illarion/pasco/internal/security"
	"github.com/illarion/pasco/internal/token"
)

// DecryptOptions holds the decrypt flags
type DecryptOptions struct {
	OutDir       string
	Force        bool
	SavePassword bool
}

// Decrypt opens a token. Text payloads go to stdout, file payloads are
// written into the output directory under the name from the token header.
func Decrypt(ctx context.Context, arg string, opts DecryptOptions) {
	raw, err := ReadTokenArg(arg)
	if err != nil {
		HandleError(err)
	}

	// Fail on malformed input before asking for a password
	tok, err := token.Decode(raw)
	if err != nil {
		HandleError(err)
	}
	fingerprint := tok.Fingerprint()

	s := LoadSessionOrExit()

	result, password, source, err := DecryptWithRetry(ctx, s, raw, fingerprint)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)
	defer crypto.ClearBytes(result.Payload)

	if result.Header.Note != "" {
		fmt.Fprintf(os.Stderr, "note: %s\n", result.Header.Note)
	}

	switch result.Kind {
	case token.KindText:
		fmt.Print(result.Text())
		if len(result.Payload) > 0 && result.Payload[len(result.Payload)-1] != '\n' {
			fmt.Println()
		}
	case token.KindFile:
		writeFilePayload(result, opts)
	}

	// Offer to save password if it was entered manually
	if source == SourcePrompt {
		switch {
		case opts.SavePassword:
			SavePasswordToKeyring(fingerprint, password)
		case arg != "-" && IsInteractive():
			OfferToSavePassword(fingerprint, password)
		}
	}
}

func writeFilePayload(result *core.DecryptResult, opts DecryptOptions) {
	dir, err := security.New(opts.OutDir)
	if err != nil {
		HandleError(err)
	}
	defer dir.Close()

	name, err := security.SanitizeName(result.Header.Filename)
	if err != nil {
		HandleError(fmt.Errorf("unsafe filename in token: %w", err))
	}
	if name != result.Header.Filename {
		fmt.Fprintf(os.Stderr, "warning: filename %q reduced to %q\n", result.Header.Filename, name)
	}

	err = dir.WriteFile(name, result.Payload, 0600, opts.Force)
	if errors.Is(err, security.ErrFileExists) {
		local, rerr := dir.ReadFile(name)
		if rerr != nil {
			HandleError(rerr)
		}
		defer crypto.ClearBytes(local)

		if core.SamePayload(result.Payload, local) {
			fmt.Printf("unchanged: %s\n", dir.Join(name))
			return
		}
		fmt.Fprintf(os.Stderr, "error: %s already exists and differs\n", dir.Join(name))
		fmt.Fprintf(os.Stderr, "Use 'pasco diff' to compare or -force to overwrite\n")
		os.Exit(1)
	}
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("decrypted: %s (%s, %s, sealed %s)\n",
		dir.Join(name),
		formatSize(result.Header.Size),
		result.Header.MIME,
		result.Header.CreatedAt.Local().Format(time.RFC3339))

	if warnings := git.FormatWarnings(git.CheckOutput(dir.Path(), []string{name})); warnings != "" {
		fmt.Fprint(os.Stderr, warnings)
	}
}
