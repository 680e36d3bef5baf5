// Package storage owns the encrypted configuration file.
//
// The file is a BBolt database with two buckets:
//   - meta: format version, store id, timestamps (unencrypted)
//   - data: the encrypted configuration blob
//
// The unencrypted meta bucket lets status and keyring lookups work without
// the passphrase. Every write replaces the blob inside one BBolt transaction,
// so a reader sees either the previous configuration or the new one.
//
// Reads are strict and classify failures (ErrIntegrity, ErrCorrupt,
// ErrNotFound, ErrUnavailable). Merge writes are lenient: an unreadable
// existing blob is logged and treated as empty.
package storage
