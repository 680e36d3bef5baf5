package cmd

import (
	"context"
)

// Start creates the store when missing, reconciles it with the schema and
// prints a summary
func Start(ctx context.Context, e *Env) error {
	s, err := e.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	created := !s.store.Exists()
	live, err := s.rec.Start(ctx)
	if err != nil {
		return err
	}

	if created {
		e.printf("created %s with %d keys\n", s.store.Path(), len(live))
	} else {
		e.printf("%s: %d keys, in sync with schema\n", s.store.Path(), len(live))
	}

	s.OfferToSavePassphrase()
	return nil
}

// requireStore fails with storage.ErrNotFound before any passphrase is
// asked for
func (e *Env) requireStore() error {
	store := e.newStore(nil)
	if !store.Exists() {
		return errStoreMissing(store.Path())
	}
	return nil
}
