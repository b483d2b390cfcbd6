package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"
)

// SecretSize is the length of a generated secret in bytes (160 bits, RFC 4226 recommendation).
const SecretSize = 20

const redacted = "[REDACTED]"

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Secret is a shared TOTP key. The zero value means "no secret".
type Secret struct {
	key []byte
}

// GenerateSecret returns a new 160-bit secret read from the OS random source.
func GenerateSecret() (Secret, error) {
	return GenerateSecretFrom(rand.Reader)
}

// GenerateSecretFrom reads a secret from r. A failed or short read yields ErrEntropyUnavailable.
func GenerateSecretFrom(r io.Reader) (Secret, error) {
	key := make([]byte, SecretSize)
	if _, err := io.ReadFull(r, key); err != nil {
		return Secret{}, errors.Join(ErrEntropyUnavailable, err)
	}
	return Secret{key: key}, nil
}

// SecretFromBytes wraps a raw key. The slice is copied.
func SecretFromBytes(key []byte) (Secret, error) {
	if len(key) == 0 {
		return Secret{}, ErrMissingSecret
	}
	return Secret{key: clone(key)}, nil
}

// ParseSecret decodes a Base32 secret. Case, spaces and trailing padding are tolerated,
// matching what users copy out of authenticator apps.
func ParseSecret(s string) (Secret, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
	s = strings.TrimRight(s, "=")
	if s == "" {
		return Secret{}, ErrMissingSecret
	}

	key, err := b32.DecodeString(s)
	if err != nil {
		return Secret{}, errors.Join(ErrInvalidSecret, err)
	}
	if len(key) == 0 {
		return Secret{}, ErrInvalidSecret
	}
	return Secret{key: key}, nil
}

// IsZero reports whether the secret is absent.
func (s Secret) IsZero() bool { return len(s.key) == 0 }

// Bytes returns a copy of the raw key.
func (s Secret) Bytes() []byte { return clone(s.key) }

// Base32 returns the uppercase, unpadded Base32 form shown to users.
func (s Secret) Base32() string {
	if s.IsZero() {
		return ""
	}
	return b32.EncodeToString(s.key)
}

// Fingerprint returns a short, non-reversible identifier of the key.
// Two secrets with the same fingerprint are the same secret for all practical purposes.
func (s Secret) Fingerprint() string {
	if s.IsZero() {
		return ""
	}
	sum := sha256.Sum256(s.key)
	return hex.EncodeToString(sum[:8])
}

// Equal compares two secrets.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare(s.key, other.key) == 1
}

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return "totp.Secret{" + redacted + "}" }

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON never emits key material.
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
