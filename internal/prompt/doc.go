// Package prompt collects configuration values and passphrases from the
// operator.
//
// A Prompter receives pending key/value pairs and returns the final values
// with exactly the same key set. The kind of each pending value selects
// the input mode: numeric values are re-asked until the input parses.
package prompt
