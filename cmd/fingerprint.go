package cmd

import (
	"fmt"

	"github.com/illarion/pasco/internal/token"
)

// Fingerprint prints the fingerprint of a token. No password is needed.
func Fingerprint(arg string) {
	raw, err := ReadTokenArg(arg)
	if err != nil {
		HandleError(err)
	}

	tok, err := token.Decode(raw)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(tok.Fingerprint())
}
