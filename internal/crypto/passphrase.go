package crypto

import (
	"fmt"
)

// PassphraseCipher encrypts whole blobs with a key derived from a
// passphrase and a per-blob salt
type PassphraseCipher struct {
	passphrase []byte
	iterations int

	// last derived key, reused while the salt stays the same
	cachedSalt []byte
	cachedKey  []byte
}

// NewPassphraseCipher copies the passphrase; the caller may clear its own copy.
// iterations <= 0 selects DefaultIters.
func NewPassphraseCipher(passphrase []byte, iterations int) (*PassphraseCipher, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if iterations <= 0 {
		iterations = DefaultIters
	}

	return &PassphraseCipher{
		passphrase: append([]byte(nil), passphrase...),
		iterations: iterations,
	}, nil
}

func (c *PassphraseCipher) key(salt []byte) []byte {
	if c.cachedKey != nil && ConstantTimeCompare(c.cachedSalt, salt) {
		return c.cachedKey
	}
	ClearBytes(c.cachedKey)

	kdf := &KDF{Salt: salt, Iterations: c.iterations}
	c.cachedSalt = append([]byte(nil), salt...)
	c.cachedKey = kdf.DeriveKey(c.passphrase)
	return c.cachedKey
}

// Encrypt seals plaintext under a fresh salt and nonce
func (c *PassphraseCipher) Encrypt(plaintext []byte) ([]byte, error) {
	kdf, err := NewKDF(c.iterations)
	if err != nil {
		return nil, err
	}

	sealed, err := NewEncryptor(c.key(kdf.Salt)).Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	result := make([]byte, 0, SaltSize+len(sealed))
	result = append(result, kdf.Salt...)
	return append(result, sealed...), nil
}

// Decrypt opens a blob produced by Encrypt
func (c *PassphraseCipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < SaltSize+NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	salt := blob[:SaltSize]
	return NewEncryptor(c.key(salt)).Decrypt(blob[SaltSize:])
}

// Destroy clears the passphrase and any derived key
func (c *PassphraseCipher) Destroy() {
	ClearBytes(c.passphrase)
	ClearBytes(c.cachedKey)
	c.cachedKey = nil
	c.cachedSalt = nil
}
