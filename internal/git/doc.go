// Package git checks that an encrypted store and its quarantine backup
// stay out of version control.
//
// Checks performed:
//   - Whether the store file is tracked by git (should not be)
//   - Whether the store and backup are covered by .gitignore (should be)
//
// The store is encrypted, but committing it ties the history to one
// passphrase and leaks key-set changes through diffs.
package git
