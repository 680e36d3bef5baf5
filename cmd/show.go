package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/illarion/confvault/internal/schema"
)

const masked = "********"

// Show reconciles and prints the configuration as KEY=value lines. Secret
// values are masked unless reveal is set.
func Show(ctx context.Context, e *Env, reveal bool) error {
	live, s, err := e.reconciled(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, key := range live.Keys() {
		value := live[key].String()
		if !reveal && schema.IsSecret(key) {
			value = masked
		}
		e.printf("%s=%s\n", key, value)
	}

	s.OfferToSavePassphrase()
	return nil
}

// Export reconciles and prints the configuration as a dotenv file
func Export(ctx context.Context, e *Env) error {
	live, s, err := e.reconciled(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := godotenv.Marshal(live.Strings())
	if err != nil {
		return fmt.Errorf("failed to render dotenv: %w", err)
	}
	e.println(out)
	return nil
}

// reconciled opens an existing store and reconciles it. The caller closes
// the session.
func (e *Env) reconciled(ctx context.Context) (schema.ConfigMap, *session, error) {
	if err := e.requireStore(); err != nil {
		return nil, nil, err
	}

	s, err := e.openSession()
	if err != nil {
		return nil, nil, err
	}

	live, err := s.rec.ReadConfig(ctx)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return live, s, nil
}
