package storage

import (
	"errors"
	"fmt"

	berrors "go.etcd.io/bbolt/errors"

	"github.com/illarion/confvault/internal/crypto"
)

var (
	ErrNotFound      = errors.New("store not found")
	ErrIntegrity     = errors.New("store failed integrity verification")
	ErrCorrupt       = errors.New("store content is corrupt")
	ErrUnavailable   = errors.New("store unavailable")
	ErrBackupExists  = errors.New("backup already exists")
	ErrInvalidConfig = errors.New("configuration cannot be serialized")

	// wrapped in ErrCorrupt; a freshly created file has no blob yet
	errNoBlob = errors.New("no configuration blob")
)

// classifyOpen maps a BBolt open failure. A file that is not a valid
// database cannot be authenticated, so it counts as an integrity failure.
func classifyOpen(path string, err error) error {
	switch {
	case errors.Is(err, berrors.ErrInvalid),
		errors.Is(err, berrors.ErrChecksum),
		errors.Is(err, berrors.ErrVersionMismatch):
		return fmt.Errorf("%w: %s: %v", ErrIntegrity, path, err)
	case errors.Is(err, berrors.ErrTimeout):
		return fmt.Errorf("%w: %s is locked by another process", ErrUnavailable, path)
	default:
		return fmt.Errorf("%w: failed to open %s: %v", ErrUnavailable, path, err)
	}
}

// classifyDecrypt maps a Cipher failure
func classifyDecrypt(err error) error {
	if errors.Is(err, crypto.ErrAuthFailed) || errors.Is(err, crypto.ErrInvalidCiphertext) {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return fmt.Errorf("%w: failed to decrypt: %v", ErrUnavailable, err)
}
