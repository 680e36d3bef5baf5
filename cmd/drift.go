package cmd

import (
	"context"
)

// Drift prints the keys the next reconciliation would add or prune. The
// store is not modified.
func Drift(ctx context.Context, e *Env) error {
	if err := e.requireStore(); err != nil {
		return err
	}

	s, err := e.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := s.rec.Drift(ctx)
	if err != nil {
		return err
	}

	if d.Empty() {
		e.println("no drift: store matches schema")
		return nil
	}
	e.printf("%s", d.Render())
	e.printf("\n%d to add, %d to prune\n", len(d.NewKeys), len(d.StaleKeys))
	return nil
}
