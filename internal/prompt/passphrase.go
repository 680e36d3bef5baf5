package prompt

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/illarion/confvault/internal/crypto"
)

// PassphraseEnv names the variable that supplies the passphrase non-interactively
const PassphraseEnv = "CONFVAULT_PASSPHRASE"

var (
	ErrNotTerminal        = errors.New("stdin is not a terminal")
	ErrPassphraseMismatch = errors.New("passphrases do not match")
)

// ReadPassphrase reads a passphrase from the terminal without echoing
func ReadPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: set %s", ErrNotTerminal, PassphraseEnv)
	}

	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // New line after passphrase

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passphrase, nil
}

// ReadPassphraseConfirm reads a passphrase twice and ensures they match
func ReadPassphraseConfirm() ([]byte, error) {
	first, err := ReadPassphrase("New passphrase: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(first)

	second, err := ReadPassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		return nil, ErrPassphraseMismatch
	}

	// Return a copy, both originals are cleared
	return append([]byte(nil), first...), nil
}

// PassphraseFromEnv returns a copy of CONFVAULT_PASSPHRASE, or nil when unset
func PassphraseFromEnv() []byte {
	passphrase := os.Getenv(PassphraseEnv)
	if passphrase == "" {
		return nil
	}
	return []byte(passphrase)
}
