package cmd

import (
	"errors"

	"github.com/illarion/confvault/internal/crypto"
	"github.com/illarion/confvault/internal/keyring"
	"github.com/illarion/confvault/internal/prompt"
)

// KeyringSave verifies a passphrase against the store and saves it to the
// OS keyring
func KeyringSave(e *Env) error {
	if err := e.requireStore(); err != nil {
		return err
	}

	passphrase := prompt.PassphraseFromEnv()
	if passphrase == nil {
		if e.Config.NonInteractive {
			return ErrPassphraseRequired
		}
		var err error
		passphrase, err = e.ReadPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
	}
	defer crypto.ClearBytes(passphrase)

	cipher, err := e.cipher(passphrase)
	if err != nil {
		return err
	}
	defer cipher.Destroy()

	store := e.newStore(cipher)
	if _, err := store.Read(); err != nil {
		return err
	}

	id, err := store.ID()
	if err != nil {
		return err
	}
	if err := keyring.SavePassphrase(id, string(passphrase)); err != nil {
		return err
	}

	e.println("Passphrase saved to keyring")
	return nil
}

// KeyringDelete removes the store's passphrase from the OS keyring
func KeyringDelete(e *Env) error {
	id, err := e.newStore(nil).ID()
	if err != nil {
		e.println("No passphrase stored in keyring")
		return nil
	}

	if err := keyring.DeletePassphrase(id); err != nil {
		if errors.Is(err, keyring.ErrNoPassphrase) {
			e.println("No passphrase stored in keyring")
			return nil
		}
		return err
	}

	e.println("Passphrase removed from keyring")
	return nil
}

// KeyringStatus reports whether the store's passphrase is in the keyring
func KeyringStatus(e *Env) error {
	id, err := e.newStore(nil).ID()
	if err != nil || !keyring.HasPassphrase(id) {
		e.println("Passphrase: not stored")
		return nil
	}
	e.println("Passphrase: stored in keyring")
	return nil
}
