// Package cryptutil encrypts portal credentials at rest. No third-party
// AEAD wrapper appears anywhere in the example pack, so this one ambient
// concern is built directly on the standard library crypto/aes and
// crypto/cipher (see DESIGN.md for the justification).
package cryptutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
)

// KeyProvider resolves a named encryption key to raw key material. A real
// deployment backs this with a KMS; StaticKeyProvider below resolves a single static
// key from config for local/dev use.
type KeyProvider interface {
	Key(keyID string) ([]byte, error)
}

// StaticKeyProvider returns the same key material for every keyID; it
// exists so CSS can be constructed without a KMS dependency.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider builds a StaticKeyProvider from a hex or base64
// encoded 32-byte key.
func NewStaticKeyProvider(encoded string) (*StaticKeyProvider, error) {
	key, err := decodeKey(encoded)
	if err != nil {
		return nil, err
	}
	return &StaticKeyProvider{key: key}, nil
}

func (p *StaticKeyProvider) Key(string) ([]byte, error) {
	return p.key, nil
}

func decodeKey(encoded string) ([]byte, error) {
	if key, err := hex.DecodeString(encoded); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(encoded); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, errors.New("cryptutil: key material must decode to 32 bytes (hex or base64)")
}

// Sealer encrypts and decrypts small strings (credentials) with
// AES-256-GCM, prefixing ciphertext with its nonce.
type Sealer struct {
	keyID    string
	provider KeyProvider
}

func NewSealer(keyID string, provider KeyProvider) *Sealer {
	return &Sealer{keyID: keyID, provider: provider}
}

// Seal encrypts plaintext and returns a base64-encoded nonce||ciphertext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.New("cryptutil: ciphertext too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	key, err := s.provider.Key(s.keyID)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
