package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIters = 1000

func newTestCipher(t *testing.T, passphrase string) *PassphraseCipher {
	t.Helper()
	c, err := NewPassphraseCipher([]byte(passphrase), testIters)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return c
}

func TestKDFDeterministic(t *testing.T) {
	kdf := &KDF{Salt: []byte("test-salt-32-bytes-long-exactly!"), Iterations: testIters}

	key1 := kdf.DeriveKey([]byte("password"))
	key2 := kdf.DeriveKey([]byte("password"))
	key3 := kdf.DeriveKey([]byte("other"))

	assert.Len(t, key1, KeySize)
	assert.True(t, bytes.Equal(key1, key2))
	assert.False(t, bytes.Equal(key1, key3))
}

func TestEncryptorRoundTrip(t *testing.T) {
	key, err := GenerateRandom(KeySize)
	require.NoError(t, err)
	enc := NewEncryptor(key)
	defer ClearBytes(key)

	ciphertext, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)
	assert.Len(t, ciphertext, NonceSize+len("secret")+TagSize)

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(plaintext))
}

func TestPassphraseCipherRoundTrip(t *testing.T) {
	c := newTestCipher(t, "correct horse")

	blob, err := c.Encrypt([]byte(`{"A":"1"}`))
	require.NoError(t, err)

	plaintext, err := c.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, `{"A":"1"}`, string(plaintext))

	// a second cipher with the same passphrase derives the same key from the stored salt
	other := newTestCipher(t, "correct horse")
	plaintext, err = other.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, `{"A":"1"}`, string(plaintext))
}

func TestPassphraseCipherFreshSaltPerBlob(t *testing.T) {
	c := newTestCipher(t, "pw")

	a, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a[:SaltSize], b[:SaltSize]))
	assert.False(t, bytes.Equal(a, b))
}

func TestPassphraseCipherWrongPassphrase(t *testing.T) {
	blob, err := newTestCipher(t, "right").Encrypt([]byte("data"))
	require.NoError(t, err)

	_, err = newTestCipher(t, "wrong").Decrypt(blob)
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestPassphraseCipherTampered(t *testing.T) {
	c := newTestCipher(t, "pw")
	blob, err := c.Encrypt([]byte("data"))
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0xff
	_, err = c.Decrypt(blob)
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestPassphraseCipherShortBlob(t *testing.T) {
	c := newTestCipher(t, "pw")

	_, err := c.Decrypt([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestPassphraseCipherEmptyPassphrase(t *testing.T) {
	_, err := NewPassphraseCipher(nil, testIters)
	require.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	assert.Equal(t, make([]byte, len("sensitive")), b)
}
