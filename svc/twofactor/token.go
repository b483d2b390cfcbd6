package twofactor

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/twofactor/pkg/totp"
)

const (
	setupPurpose = "totp-setup"
	// maxFutureSkew tolerates small clock differences between instances.
	maxFutureSkew = time.Minute
)

// sealSetup binds the provisional secret and its issue time to the account.
func (l *Lifecycle) sealSetup(id uuid.UUID, secret totp.Secret, issued time.Time) (string, error) {
	key := secret.Bytes()
	payload := make([]byte, 8+len(key))
	binary.BigEndian.PutUint64(payload, uint64(issued.Unix()))
	copy(payload[8:], key)
	defer clear(payload)
	defer clear(key)

	return l.sealer.SealString(setupPurpose, payload, id[:])
}

// openSetup returns the provisional secret. Expiry is checked against the lifecycle clock.
func (l *Lifecycle) openSetup(id uuid.UUID, token string) (totp.Secret, time.Time, error) {
	if token == "" {
		return totp.Secret{}, time.Time{}, ErrInvalidSetupToken
	}
	payload, err := l.sealer.OpenString(setupPurpose, token, id[:])
	if err != nil {
		return totp.Secret{}, time.Time{}, errors.Join(ErrInvalidSetupToken, err)
	}
	defer clear(payload)
	if len(payload) <= 8 {
		return totp.Secret{}, time.Time{}, ErrInvalidSetupToken
	}

	issued := time.Unix(int64(binary.BigEndian.Uint64(payload)), 0)
	now := l.now()
	if issued.After(now.Add(maxFutureSkew)) {
		return totp.Secret{}, time.Time{}, ErrInvalidSetupToken
	}
	if !now.Before(issued.Add(l.setupTTL)) {
		return totp.Secret{}, issued, ErrSetupExpired
	}

	secret, err := totp.SecretFromBytes(payload[8:])
	if err != nil {
		return totp.Secret{}, time.Time{}, errors.Join(ErrInvalidSetupToken, err)
	}
	return secret, issued, nil
}
