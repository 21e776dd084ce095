package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_pasco() {
    local cur prev words cword
    _init_completion || return

    local commands="encrypt seal decrypt fingerprint attempts diff keyring compact help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        encrypt)
            COMPREPLY=($(compgen -W "-note -iter -save-password" -- "$cur"))
            ;;
        seal)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-note -iter -mime -o -save-password" -- "$cur"))
            else
                _filedir
            fi
            ;;
        decrypt)
            if [[ "$prev" == "-o" ]]; then
                _filedir -d
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-o -force -save-password" -- "$cur"))
            else
                _filedir
            fi
            ;;
        fingerprint|diff)
            _filedir
            ;;
        attempts)
            COMPREPLY=($(compgen -W "-reset" -- "$cur"))
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                _filedir
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _pasco pasco
`

const zshCompletion = `#compdef pasco

_pasco() {
    local -a commands
    commands=(
        'encrypt:Encrypt a text message into a token'
        'seal:Encrypt a file into a token'
        'decrypt:Decrypt a token'
        'fingerprint:Print the fingerprint of a token'
        'attempts:Show or reset failed attempt counters'
        'diff:Compare a token payload with a local file'
        'keyring:Manage token passwords in OS keyring'
        'compact:Compact the attempt database'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'pasco commands' commands
            ;;
        args)
            case "${words[2]}" in
                encrypt)
                    _arguments \
                        '-note[Unencrypted note stored in the header]:note' \
                        '-iter[PBKDF2 iterations]:iterations' \
                        '-save-password[Save password to OS keyring]'
                    ;;
                seal)
                    _arguments \
                        '-note[Unencrypted note stored in the header]:note' \
                        '-iter[PBKDF2 iterations]:iterations' \
                        '-mime[MIME type]:type' \
                        '-o[Write token to file]:file:_files' \
                        '-save-password[Save password to OS keyring]' \
                        '*:file:_files'
                    ;;
                decrypt)
                    _arguments \
                        '-o[Output directory]:directory:_files -/' \
                        '-force[Overwrite existing files]' \
                        '-save-password[Save password to OS keyring]' \
                        '*:token file:_files'
                    ;;
                fingerprint|diff)
                    _arguments '*:file:_files'
                    ;;
                attempts)
                    _arguments '-reset[Reset counter for fingerprint]:fingerprint'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'pasco commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_pasco "$@"
`

const fishCompletion = `# pasco fish completions

set -l commands encrypt seal decrypt fingerprint attempts diff keyring compact help completion

complete -c pasco -f

# Commands
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a encrypt -d 'Encrypt a text message'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a seal -d 'Encrypt a file'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Decrypt a token'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a fingerprint -d 'Print token fingerprint'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a attempts -d 'Show failed attempts'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare token with local file'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact attempt database'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c pasco -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# encrypt and seal flags
complete -c pasco -n "__fish_seen_subcommand_from encrypt seal" -o note -d 'Unencrypted note'
complete -c pasco -n "__fish_seen_subcommand_from encrypt seal" -o iter -d 'PBKDF2 iterations'
complete -c pasco -n "__fish_seen_subcommand_from encrypt seal decrypt" -o save-password -d 'Save password to keyring'
complete -c pasco -n "__fish_seen_subcommand_from seal" -o mime -d 'MIME type'
complete -c pasco -n "__fish_seen_subcommand_from seal decrypt fingerprint diff keyring" -F

# decrypt flags
complete -c pasco -n "__fish_seen_subcommand_from decrypt" -o o -d 'Output directory'
complete -c pasco -n "__fish_seen_subcommand_from decrypt" -o force -d 'Overwrite existing files'

# attempts flags
complete -c pasco -n "__fish_seen_subcommand_from attempts" -o reset -d 'Reset counter'

# keyring subcommands
complete -c pasco -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c pasco -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c pasco -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
