// Package crypto provides the authenticated encryption used for the
// configuration store.
//
// PassphraseCipher seals every blob independently:
//   - 32-byte random salt, key derived via PBKDF2-HMAC-SHA256
//   - 12-byte random nonce, AES-256-GCM
//   - blob layout: salt || nonce || ciphertext || tag
//
// Decrypt returns ErrAuthFailed when the tag does not verify (tampering or
// a wrong passphrase) and ErrInvalidCiphertext when the blob is too short to
// hold a salt, nonce and tag. Both mean the blob cannot be trusted.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Destroy() when done with a cipher
package crypto
