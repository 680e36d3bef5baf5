// Package core reconciles the encrypted configuration store with the
// compiled-in default schema.
//
// Reconciliation is a bounded loop of passes. Each pass reads the store,
// projects every stored key into the environment, and diffs the key set
// against the schema. Keys missing from the store are staged with their
// fallback values and confirmed by the Prompter; keys the schema no longer
// knows are dropped from the configuration and the environment. The
// corrected configuration is force-written and the next pass re-reads it.
// A pass that finds no difference ends the loop.
//
// Two corruption classes are recovered deterministically:
//   - integrity failure: the file is moved to <store>.bak, once. An existing
//     backup blocks recovery until the operator removes it.
//   - corrupt content: the file is deleted.
//
// Both end the current run with a *Error naming the remediation.
package core
