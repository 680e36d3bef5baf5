package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/illarion/confvault/internal/core"
	"github.com/illarion/confvault/internal/schema"
)

// Set merges KEY=VALUE assignments into the store. Values are parsed with
// the kind of the schema default, so numeric keys only take numbers.
func Set(ctx context.Context, e *Env, assignments []string) error {
	if err := e.requireStore(); err != nil {
		return err
	}

	s, err := e.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	delta, err := parseAssignments(s.rec.Schema(), assignments)
	if err != nil {
		return err
	}

	// Merge-writes tolerate an unreadable store, so verify the passphrase
	// first or a typo would replace the whole configuration
	if _, err := s.store.Read(); err != nil {
		return err
	}

	if err := s.rec.UpdateConfig(ctx, delta); err != nil {
		return err
	}

	for _, key := range delta.Keys() {
		e.printf("set %s\n", key)
	}
	s.OfferToSavePassphrase()
	return nil
}

func parseAssignments(sch schema.ConfigMap, assignments []string) (schema.ConfigMap, error) {
	delta := make(schema.ConfigMap, len(assignments))
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected KEY=VALUE", a)
		}

		def, known := sch[key]
		if !known {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownKey, key)
		}
		v, err := schema.Parse(def.Kind(), raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		delta[key] = v
	}
	return delta, nil
}
