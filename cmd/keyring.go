package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/keyring"
	"github.com/illarion/pasco/internal/token"
)

func fingerprintArg(arg string) string {
	raw, err := ReadTokenArg(arg)
	if err != nil {
		HandleError(err)
	}
	tok, err := token.Decode(raw)
	if err != nil {
		HandleError(err)
	}
	return tok.Fingerprint()
}

// KeyringSave saves the password for a token to the OS keyring. The
// password is verified by decrypting the token first, which counts as an
// attempt like any other decryption.
func KeyringSave(ctx context.Context, arg string) {
	raw, err := ReadTokenArg(arg)
	if err != nil {
		HandleError(err)
	}
	tok, err := token.Decode(raw)
	if err != nil {
		HandleError(err)
	}

	s := LoadSessionOrExit()

	// Prompt for password
	password, _, err := GetPassword("Enter password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	// Verify password is correct
	result, err := s.Decrypt(ctx, raw, password)
	if err != nil {
		HandleError(err)
	}
	crypto.ClearBytes(result.Payload)

	if err := keyring.SavePassword(tok.Fingerprint(), string(password)); err != nil {
		HandleError(fmt.Errorf("failed to save to keyring: %w", err))
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the password for a token from the OS keyring
func KeyringDelete(arg string) {
	fingerprint := fingerprintArg(arg)

	if err := keyring.DeletePassword(fingerprint); err != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus(arg string) {
	fingerprint := fingerprintArg(arg)

	if keyring.HasPassword(fingerprint) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}

