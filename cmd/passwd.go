package cmd

import (
	"github.com/illarion/confvault/internal/crypto"
	"github.com/illarion/confvault/internal/keyring"
)

// Passwd re-encrypts the store under a new passphrase
func Passwd(e *Env) error {
	if err := e.requireStore(); err != nil {
		return err
	}

	s, err := e.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	// Strict read: a wrong current passphrase must not quarantine anything
	if _, err := s.store.Read(); err != nil {
		return err
	}

	if e.Config.NonInteractive {
		return ErrPassphraseRequired
	}
	next, err := e.ReadPassphraseConfirm()
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(next)

	cipher, err := e.cipher(next)
	if err != nil {
		return err
	}
	defer cipher.Destroy()

	if err := s.store.Rekey(cipher); err != nil {
		return err
	}

	// Keep an existing keyring entry valid
	if e.Config.UseKeyring {
		if id, err := s.store.ID(); err == nil && keyring.HasPassphrase(id) {
			if err := keyring.SavePassphrase(id, string(next)); err == nil {
				e.println("Keyring updated with new passphrase")
			}
		}
	}

	e.println("passphrase changed successfully")
	return nil
}
