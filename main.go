package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/pasco/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "encrypt":
		runEncrypt(ctx, os.Args[2:])
	case "seal":
		runSeal(ctx, os.Args[2:])
	case "decrypt":
		runDecrypt(ctx, os.Args[2:])
	case "fingerprint":
		runFingerprint(ctx, os.Args[2:])
	case "attempts":
		runAttempts(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func encryptFlags(fs *flag.FlagSet) *cmd.EncryptOptions {
	opts := &cmd.EncryptOptions{}
	fs.StringVar(&opts.Note, "note", "", "Unencrypted note stored in the token header")
	fs.IntVar(&opts.Iterations, "iter", 0, "PBKDF2 iterations (default from config)")
	fs.BoolVar(&opts.SavePassword, "save-password", false, "Save password to OS keyring")
	return opts
}

func runEncrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	opts := encryptFlags(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Encrypt(ctx, fs.Args(), *opts)
}

func runSeal(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("seal", flag.ExitOnError)
	opts := encryptFlags(fs)
	mimeType := fs.String("mime", "", "MIME type (detected when empty)")
	out := fs.String("o", "", "Write the token to this file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pasco seal [-note s] [-iter n] [-mime t] [-o out] <file>")
		os.Exit(1)
	}
	cmd.Seal(ctx, fs.Arg(0), *mimeType, *out, *opts)
}

func runDecrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	opts := cmd.DecryptOptions{}
	fs.StringVar(&opts.OutDir, "o", ".", "Directory for file payloads")
	fs.BoolVar(&opts.Force, "force", false, "Overwrite existing files")
	fs.BoolVar(&opts.SavePassword, "save-password", false, "Save password to OS keyring")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pasco decrypt [-o dir] [-force] [-save-password] <token|@file|->")
		os.Exit(1)
	}
	cmd.Decrypt(ctx, fs.Arg(0), opts)
}

func runFingerprint(_ context.Context, args []string) {
	fs := flag.NewFlagSet("fingerprint", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pasco fingerprint <token|@file|->")
		os.Exit(1)
	}
	cmd.Fingerprint(fs.Arg(0))
}

func runAttempts(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("attempts", flag.ExitOnError)
	reset := fs.String("reset", "", "Reset the counter for this fingerprint")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if *reset != "" {
		cmd.ResetAttempts(ctx, *reset)
		return
	}
	cmd.Attempts(ctx)
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: pasco diff <token|@file|-> <local-file>")
		os.Exit(1)
	}
	cmd.Diff(ctx, fs.Arg(0), fs.Arg(1))
}

func runKeyring(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pasco keyring <save|delete|status> <token|@file|->")
		os.Exit(1)
	}

	switch args[0] {
	case "save":
		cmd.KeyringSave(ctx, args[1])
	case "delete":
		cmd.KeyringDelete(args[1])
	case "status":
		cmd.KeyringStatus(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Compact()
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pasco completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("pasco - Password-sealed tokens for text and files")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pasco <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  encrypt      Encrypt a text message into a token")
	fmt.Println("  seal         Encrypt a file into a token")
	fmt.Println("  decrypt      Decrypt a token")
	fmt.Println("  fingerprint  Print the fingerprint of a token")
	fmt.Println("  attempts     Show or reset failed attempt counters")
	fmt.Println("  diff         Compare a token payload with a local file")
	fmt.Println("  keyring      Manage token passwords in OS keyring")
	fmt.Println("  compact      Compact the attempt database")
	fmt.Println("  completion   Generate shell completions")
	fmt.Println("  help         Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pasco encrypt \"meet at noon\"      # Print a text token")
	fmt.Println("  pasco seal -o id.pasco id_rsa      # Seal a file into id.pasco")
	fmt.Println("  pasco decrypt @id.pasco -o keys    # Restore the file into keys/")
	fmt.Println("  pasco attempts                     # Show failed attempts")
	fmt.Println()
	fmt.Println("Use 'pasco help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "encrypt":
		fmt.Println("pasco encrypt [-note s] [-iter n] [-save-password] [text]")
		fmt.Println()
		fmt.Println("Encrypts a text message. Without an argument the text is read from stdin.")
		fmt.Println("Prints the token on stdout and its fingerprint on stderr.")
		fmt.Println("The password comes from PASCO_PASSWORD or a confirmed prompt.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -note s           Unencrypted note stored in the token header")
		fmt.Println("  -iter n           PBKDF2 iterations (50000-600000, clamped)")
		fmt.Println("  -save-password    Save password to OS keyring for this token")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  pasco encrypt \"meet at noon\"")
		fmt.Println("  echo secret | pasco encrypt -note \"for bob\"")
	case "seal":
		fmt.Println("pasco seal [-note s] [-iter n] [-mime t] [-o out] [-save-password] <file>")
		fmt.Println()
		fmt.Println("Encrypts a file. The token header records the file name, MIME type")
		fmt.Println("and size in the clear; the content is encrypted.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -note s           Unencrypted note stored in the token header")
		fmt.Println("  -iter n           PBKDF2 iterations (50000-600000, clamped)")
		fmt.Println("  -mime t           MIME type (detected when empty)")
		fmt.Println("  -o out            Write the token to a file instead of stdout")
		fmt.Println("  -save-password    Save password to OS keyring for this token")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  pasco seal -o report.pasco report.pdf")
	case "decrypt":
		fmt.Println("pasco decrypt [-o dir] [-force] [-save-password] <token|@file|->")
		fmt.Println()
		fmt.Println("Decrypts a token. Text is printed on stdout. Files are written into")
		fmt.Println("the output directory under the name recorded in the token.")
		fmt.Println("An existing file with different content is never overwritten without -force.")
		fmt.Println()
		fmt.Println("Each wrong password counts as a failed attempt for the token on this")
		fmt.Println("device. After too many failures the token is locked until reset.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -o dir            Output directory for files (default: current)")
		fmt.Println("  -force            Overwrite existing files")
		fmt.Println("  -save-password    Save password to OS keyring for this token")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  pasco decrypt PASCO1.eyJ2Ijo...")
		fmt.Println("  pasco decrypt @report.pasco -o ~/Downloads")
		fmt.Println("  pbpaste | pasco decrypt -")
	case "fingerprint":
		fmt.Println("pasco fingerprint <token|@file|->")
		fmt.Println()
		fmt.Println("Prints the SHA-256 fingerprint of a token.")
		fmt.Println("Does not require a password.")
	case "attempts":
		fmt.Println("pasco attempts [-reset fingerprint]")
		fmt.Println()
		fmt.Println("Lists tokens with failed decryption attempts on this device.")
		fmt.Println("With -reset, clears the counter for one fingerprint.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "diff":
		fmt.Println("pasco diff <token|@file|-> <local-file>")
		fmt.Println()
		fmt.Println("Decrypts a token and shows a unified diff against a local file.")
	case "keyring":
		fmt.Println("pasco keyring <save|delete|status> <token|@file|->")
		fmt.Println()
		fmt.Println("Manages the password for a token in the OS keyring, keyed by fingerprint.")
		fmt.Println("'save' verifies the password by decrypting the token first.")
	case "compact":
		fmt.Println("pasco compact")
		fmt.Println()
		fmt.Println("Compacts the attempt database to reclaim unused disk space.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "completion":
		fmt.Println("pasco completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(pasco completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(pasco completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  pasco completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
