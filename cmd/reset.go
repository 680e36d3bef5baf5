package cmd

import (
	"errors"
	"fmt"

	"github.com/illarion/confvault/internal/core"
	"github.com/illarion/confvault/internal/env"
	"github.com/illarion/confvault/internal/keyring"
	"github.com/illarion/confvault/internal/prompt"
)

// Reset deletes the store and its keyring entry. No passphrase is needed.
func Reset(e *Env, force bool) error {
	store := e.newStore(nil)
	if !store.Exists() {
		return errStoreMissing(store.Path())
	}

	if !force {
		if e.Config.NonInteractive {
			return errors.New("refusing to remove the store non-interactively without --force")
		}
		if !e.confirm(fmt.Sprintf("Remove %s? The configuration cannot be recovered", store.Path())) {
			e.println("aborted")
			return nil
		}
	}

	id, idErr := store.ID()

	rec := core.New(store, prompt.Defaults{}, env.NewProjection(), core.WithLogger(e.Logger))
	if err := rec.RemoveConfig(); err != nil {
		return err
	}
	e.printf("removed %s\n", store.Path())

	if idErr == nil && e.Config.UseKeyring {
		if err := keyring.DeletePassphrase(id); err == nil {
			e.println("Passphrase removed from keyring")
		}
	}
	return nil
}
