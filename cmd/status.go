package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/illarion/confvault/internal/git"
	"github.com/illarion/confvault/internal/keyring"
)

// Status shows store metadata, backup presence, keyring state and git
// hygiene. No passphrase is needed.
func Status(ctx context.Context, e *Env) error {
	store := e.newStore(nil)

	if !store.Exists() {
		e.printf("No store found at %s\n", store.Path())
		e.println("Run 'confvault start' to create one")
	} else {
		info, err := store.Info()
		if err != nil {
			return err
		}

		e.printf("Store:     %s\n", store.Path())
		e.printf("ID:        %s\n", orNone(info.ID))
		e.printf("Format:    v%s\n", orNone(info.Version))
		e.printf("Size:      %s\n", formatSize(info.Size))
		if !info.Created.IsZero() {
			e.printf("Created:   %s\n", info.Created.Format(time.RFC3339))
		}
		if !info.Modified.IsZero() {
			e.printf("Modified:  %s\n", info.Modified.Format(time.RFC3339))
		}

		if e.Config.UseKeyring && info.ID != "" {
			if keyring.HasPassphrase(info.ID) {
				e.println("Keyring:   passphrase stored")
			} else {
				e.println("Keyring:   not stored")
			}
		}
	}

	if store.BackupExists() {
		e.printf("\nwarning: quarantined store present at %s\n", store.BackupPath())
		e.println("   restore it with the correct passphrase or remove it")
	}

	gs, err := git.Check(ctx, store.Path(), store.BackupPath())
	if err != nil {
		e.Logger.Debug("git check failed", zap.Error(err))
		return nil
	}
	e.printf("%s", git.Format(gs))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
