// Package keyring caches store passphrases in the OS keyring, keyed by the
// store id so that moving or renaming the store file keeps the entry valid.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "confvault"

// ErrNoPassphrase is returned when no passphrase is saved for a store
var ErrNoPassphrase = errors.New("no passphrase in keyring")

// SavePassphrase stores the passphrase for a store in the OS keyring
func SavePassphrase(storeID, passphrase string) error {
	if storeID == "" {
		return errors.New("store id is empty")
	}
	if err := keyring.Set(serviceName, storeID, passphrase); err != nil {
		return fmt.Errorf("failed to save passphrase to keyring: %w", err)
	}
	return nil
}

// GetPassphrase retrieves the passphrase for a store
func GetPassphrase(storeID string) (string, error) {
	p, err := keyring.Get(serviceName, storeID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoPassphrase
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return p, nil
}

// DeletePassphrase removes the passphrase for a store. A missing entry is
// reported as ErrNoPassphrase.
func DeletePassphrase(storeID string) error {
	if err := keyring.Delete(serviceName, storeID); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNoPassphrase
		}
		return fmt.Errorf("failed to delete passphrase from keyring: %w", err)
	}
	return nil
}

// HasPassphrase checks if a passphrase is saved for a store
func HasPassphrase(storeID string) bool {
	_, err := keyring.Get(serviceName, storeID)
	return err == nil
}
