package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Sealer encrypts small payloads with AES-256-GCM under keys derived from a single
// master key. Each purpose gets its own subkey, so a ciphertext sealed for one
// purpose never opens under another.
type Sealer struct {
	master []byte
	rand   io.Reader
}

// NewSealer validates the master key and returns a Sealer. The key is copied.
func NewSealer(masterKey []byte) (*Sealer, error) {
	if err := ValidateKey(masterKey); err != nil {
		return nil, err
	}
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	return &Sealer{master: key, rand: rand.Reader}, nil
}

// NewSealerFromString is NewSealer for a base64-encoded key, as stored in environment variables.
func NewSealerFromString(encoded string) (*Sealer, error) {
	key, err := ParseKey(encoded)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// Seal encrypts data for purpose, binding it to aad.
// Output format: nonce + encrypted data + tag.
func (s *Sealer) Seal(purpose string, data, aad []byte) ([]byte, error) {
	aead, err := s.aead(purpose)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return aead.Seal(nonce, nonce, data, aad), nil
}

// Open reverses Seal. Any mismatch of purpose, aad or key yields ErrDecryptionFailed.
func (s *Sealer) Open(purpose string, ciphertext, aad []byte) ([]byte, error) {
	aead, err := s.aead(purpose)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}

	nonceSize := aead.NonceSize()
	if len(ciphertext) < nonceSize+aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce, body := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, body, aad)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// SealString seals data and returns it as unpadded base64url, safe for cookies and form fields.
func (s *Sealer) SealString(purpose string, data, aad []byte) (string, error) {
	ciphertext, err := s.Seal(purpose, data, aad)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// OpenString reverses SealString.
func (s *Sealer) OpenString(purpose, token string, aad []byte) ([]byte, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidCiphertext, err)
	}
	return s.Open(purpose, ciphertext, aad)
}

func (s *Sealer) aead(purpose string) (cipher.AEAD, error) {
	key, err := deriveKey(s.master, purpose)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
