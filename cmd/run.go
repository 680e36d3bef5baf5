package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// ExitError carries a child process exit code
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// Run reconciles, then executes argv with the configuration added to the
// current environment
func Run(ctx context.Context, e *Env, argv []string) error {
	if len(argv) == 0 {
		return errors.New("no command given")
	}

	s, err := e.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.rec.Start(ctx); err != nil {
		return err
	}
	s.OfferToSavePassphrase()

	child := exec.CommandContext(ctx, argv[0], argv[1:]...)
	child.Env = append(os.Environ(), s.projection.Environ()...)
	child.Stdin = os.Stdin
	child.Stdout = e.Out
	child.Stderr = os.Stderr

	e.Logger.Debug("starting command",
		zap.String("command", argv[0]),
		zap.Int("vars", s.projection.Len()))

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}
	return nil
}
