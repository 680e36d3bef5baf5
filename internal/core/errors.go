package core

import (
	"errors"
	"fmt"

	"github.com/illarion/confvault/internal/storage"
)

var ErrUnknownKey = errors.New("key is not part of the schema")

// Kind classifies reconciliation failures
type Kind int

const (
	KindIntegrity Kind = iota + 1
	KindCorrupt
	KindNotFound
	KindUnavailable
	KindPrompt
	KindProjection
	KindUnstable
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindIntegrity:
		return "integrity failure"
	case KindCorrupt:
		return "corrupt content"
	case KindNotFound:
		return "store not found"
	case KindUnavailable:
		return "store unavailable"
	case KindPrompt:
		return "prompt failed"
	case KindProjection:
		return "environment projection failed"
	case KindUnstable:
		return "schema unstable"
	case KindInvalid:
		return "invalid value"
	default:
		return "unknown failure"
	}
}

// Error is a terminal reconciliation failure
type Error struct {
	Kind       Kind
	Path       string
	BackupPath string
	Renamed    bool // the store was moved to BackupPath
	Removed    bool // the store was deleted
	Passes     int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg + "; " + e.Remediation()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Remediation tells the operator what to do next
func (e *Error) Remediation() string {
	switch e.Kind {
	case KindIntegrity:
		switch {
		case e.Renamed:
			return fmt.Sprintf("the store was moved to %s; retry with the correct passphrase after restoring it, or remove %s and run again to start over", e.BackupPath, e.BackupPath)
		case errors.Is(e.Err, storage.ErrBackupExists):
			return fmt.Sprintf("%s already holds a quarantined store; make sure you don't need it and remove %s before proceeding", e.BackupPath, e.BackupPath)
		default:
			return fmt.Sprintf("check the passphrase, or run 'confvault start' to quarantine %s", e.Path)
		}
	case KindCorrupt:
		if e.Removed {
			return "the unreadable store was removed; run again to enter the configuration anew"
		}
		return fmt.Sprintf("run 'confvault start' to discard %s and enter the configuration anew", e.Path)
	case KindNotFound:
		return "run 'confvault start' to create the store"
	case KindUnavailable:
		return fmt.Sprintf("check that %s is readable and not in use by another process", e.Path)
	case KindPrompt:
		return "answer every prompt, or pass --non-interactive to accept defaults"
	case KindProjection:
		return "check the configuration keys are valid environment variable names"
	case KindInvalid:
		return "a value could not be stored; numbers must be finite"
	case KindUnstable:
		return fmt.Sprintf("the store did not converge after %d passes; check nothing else writes %s", e.Passes, e.Path)
	default:
		return "see the error above"
	}
}

// KindOf extracts the failure kind from err
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
