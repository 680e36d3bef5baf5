// Package schema defines the flat configuration model shared by the store,
// the reconciler and the environment projection.
//
// A ConfigMap maps keys to Values. A Value is either text or a number; the
// kind of a default value decides how the operator is prompted for it and
// how user input for that key is parsed.
//
// Serialized form is a single JSON object whose members are strings or
// numbers. Anything else (null, booleans, arrays, nested objects) is
// rejected with ErrMalformed.
package schema
