package twofactor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/twofactor/pkg/totp"
)

// Record is the durable two-factor state of one account.
// An enabled record always carries a secret and an EnabledAt; a disabled one carries neither.
type Record struct {
	AccountID uuid.UUID
	Secret    totp.Secret
	Enabled   bool
	EnabledAt *time.Time
	Version   int64 // 0 means never persisted
	UpdatedAt time.Time
}

// State is the durable state. PendingEnable is never durable; it exists only while
// the caller holds a live setup token.
func (r Record) State() State {
	if r.Enabled {
		return StateEnabled
	}
	return StateDisabled
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if r.AccountID == uuid.Nil {
		return ErrInvalidRecord
	}
	if r.Enabled != !r.Secret.IsZero() || r.Enabled != (r.EnabledAt != nil) {
		return ErrInvalidRecord
	}
	return nil
}

func (r Record) clone() Record {
	if r.EnabledAt != nil {
		at := *r.EnabledAt
		r.EnabledAt = &at
	}
	return r
}

// Repository persists records with optimistic concurrency.
type Repository interface {
	// Load returns the record for id, or a zero-version disabled record if none exists.
	Load(ctx context.Context, id uuid.UUID) (Record, error)
	// Save writes rec if the stored version equals expectedVersion and returns the
	// stored record with its new version. A mismatch yields ErrVersionConflict.
	Save(ctx context.Context, rec Record, expectedVersion int64) (Record, error)
}

// Account identifies the principal for setup operations.
type Account struct {
	ID uuid.UUID
	// Label is shown in the authenticator app, usually the email address.
	Label string
	// PendingToken is the setup token from an earlier StartSetup, if the caller still holds one.
	PendingToken string
}
