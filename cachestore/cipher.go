// Package cachestore persists a ResourceMap snapshot to a derived on-disk
// cache file, optionally encrypting it.
package cachestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Cipher wraps an AES-256-GCM AEAD for encrypting/decrypting a serialized
// cache blob under a caller-supplied CacheEncryptionKey config value.
type Cipher struct {
	gcm       cipher.AEAD
	nonceSize int
}

// NewCipher derives a 32-byte AES-256 key from key by hashing it with
// SHA-256, so a configured cacheEncryptionKey can be any non-empty string
// rather than a value that must happen to be exactly 16, 24, or 32 bytes
// long.
func NewCipher(key string) (*Cipher, error) {
	if key == "" {
		return nil, fmt.Errorf("cachestore: cache encryption key must not be empty")
	}
	derived := sha256.Sum256([]byte(key))

	block, err := aes.NewCipher(derived[:])
	if err != nil {
		return nil, fmt.Errorf("cachestore: initializing AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cachestore: initializing AEAD: %w", err)
	}

	return &Cipher{gcm: gcm, nonceSize: gcm.NonceSize()}, nil
}

func randBytes(length int) []byte {
	b := make([]byte, length)
	rand.Read(b)
	return b
}

// Encrypt seals plaintext, returning it base64- or hex-encoded.
func (c *Cipher) Encrypt(plaintext []byte, base64Encoded bool) string {
	nonce := randBytes(c.nonceSize)
	ciphertext := c.gcm.Seal(nonce, nonce, plaintext, nil)

	if base64Encoded {
		return base64.StdEncoding.EncodeToString(ciphertext)
	}
	return hex.EncodeToString(ciphertext)
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(encoded string, base64Encoded bool) ([]byte, error) {
	var ciphertext []byte
	var err error

	if base64Encoded {
		ciphertext, err = base64.StdEncoding.DecodeString(encoded)
	} else {
		ciphertext, err = hex.DecodeString(encoded)
	}
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < c.nonceSize {
		return nil, fmt.Errorf("cachestore: ciphertext too short")
	}
	nonce, msg := ciphertext[:c.nonceSize], ciphertext[c.nonceSize:]
	return c.gcm.Open(nil, nonce, msg, nil)
}
