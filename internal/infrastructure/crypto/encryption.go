// Package crypto seals provider secrets stored in the database.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
)

// ErrNoKey is returned when a secret must be sealed but no key is configured.
var ErrNoKey = errors.New("encryption key not configured")

// SecretSealer seals and opens short secrets such as webhook tokens.
type SecretSealer interface {
	Seal(plaintext string) (ciphertext, iv string, err error)
	Open(ciphertext, iv string) (plaintext string, err error)
}

// AESSealer is an AES-256-GCM SecretSealer. Ciphertext and nonce are base64.
type AESSealer struct {
	aead cipher.AEAD
}

// NewAESSealer builds a sealer from a 64 char hex key.
func NewAESSealer(hexKey string) (*AESSealer, error) {
	if hexKey == "" {
		return nil, ErrNoKey
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.New("invalid encryption key format")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESSealer{aead: aead}, nil
}

func (s *AESSealer) Seal(plaintext string) (string, string, error) {
	iv := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", err
	}

	ciphertext := s.aead.Seal(nil, iv, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(iv),
		nil
}

func (s *AESSealer) Open(ciphertextB64, ivB64 string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", err
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", err
	}
	if len(iv) != s.aead.NonceSize() {
		return "", errors.New("invalid nonce length")
	}

	plaintext, err := s.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
