// Package config loads confvault's own runtime settings from multiple
// sources (YAML file, environment variables, CLI flags) with precedence:
// CLI flags > Environment variables > YAML config > Defaults.
//
// These settings describe how the store is opened and how the operator is
// asked; the managed configuration itself lives in the encrypted store.
package config
