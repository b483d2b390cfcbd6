package twofactor_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/totp"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

func TestMemoryRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := twofactor.NewMemoryRepository()
	id := uuid.New()

	rec, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, twofactor.Record{AccountID: id}, rec)
	assert.Equal(t, twofactor.StateDisabled, rec.State())

	secret, err := totp.GenerateSecret()
	require.NoError(t, err)
	now := time.Now().UTC()
	enabled := twofactor.Record{AccountID: id, Secret: secret, Enabled: true, EnabledAt: &now, UpdatedAt: now}

	saved, err := repo.Save(ctx, enabled, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, twofactor.StateEnabled, saved.State())

	_, err = repo.Save(ctx, twofactor.Record{AccountID: id}, 0)
	assert.ErrorIs(t, err, twofactor.ErrVersionConflict)

	// Returned records do not alias the stored one.
	*saved.EnabledAt = saved.EnabledAt.Add(time.Hour)
	again, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, now, *again.EnabledAt)

	cleared, err := repo.Save(ctx, twofactor.Record{AccountID: id}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared.Version)
}

func TestRecord_Validate(t *testing.T) {
	t.Parallel()

	secret, err := totp.GenerateSecret()
	require.NoError(t, err)
	now := time.Now()
	id := uuid.New()

	tests := []struct {
		name  string
		rec   twofactor.Record
		valid bool
	}{
		{"disabled", twofactor.Record{AccountID: id}, true},
		{"enabled", twofactor.Record{AccountID: id, Secret: secret, Enabled: true, EnabledAt: &now}, true},
		{"no account", twofactor.Record{}, false},
		{"enabled without secret", twofactor.Record{AccountID: id, Enabled: true, EnabledAt: &now}, false},
		{"enabled without timestamp", twofactor.Record{AccountID: id, Secret: secret, Enabled: true}, false},
		{"disabled with secret", twofactor.Record{AccountID: id, Secret: secret}, false},
		{"disabled with timestamp", twofactor.Record{AccountID: id, EnabledAt: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.rec.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, twofactor.ErrInvalidRecord)
		})
	}
}

func TestMemoryRepository_RejectsInvalidRecord(t *testing.T) {
	t.Parallel()
	repo := twofactor.NewMemoryRepository()

	_, err := repo.Save(context.Background(), twofactor.Record{AccountID: uuid.New(), Enabled: true}, 0)
	assert.ErrorIs(t, err, twofactor.ErrInvalidRecord)
}

func TestMemoryRepository_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := twofactor.NewMemoryRepository().Load(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
