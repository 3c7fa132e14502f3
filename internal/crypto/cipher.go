// Package crypto implements the field-level encryption layer applied to user
// documents before they reach the document store. Scalar leaves are encrypted
// individually so that document structure (key names, list shapes) stays
// readable while every value is opaque.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// nonceSize is the standard AES-GCM nonce length.
const nonceSize = 12

var errNotCiphertext = errors.New("value is not ciphertext")

// Cipher encrypts and decrypts individual values with a symmetric key. The
// key is always supplied explicitly; there is no process-wide default, so
// callers can rotate keys and tests can pin them.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// EncryptString encrypts plaintext and returns base64(nonce + ciphertext + tag).
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString. It returns errNotCiphertext when the
// input is not valid output of this cipher, so callers can distinguish
// "plaintext that was never encrypted" from real failures.
func (c *Cipher) DecryptString(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", errNotCiphertext
	}
	if len(raw) < nonceSize {
		return "", errNotCiphertext
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", errNotCiphertext
	}
	return string(plaintext), nil
}
