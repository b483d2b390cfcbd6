package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/twofactor/pkg/pg"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/totp"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the goose files.
const MigrationsDir = "migrations"

const secretPurpose = "totp-secret"

// DB is the subset of *pgxpool.Pool and pgx.Tx used by the repository.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository implements twofactor.Repository on the account_security table.
type Repository struct {
	db     DB
	sealer *secrets.Sealer
}

var _ twofactor.Repository = (*Repository)(nil)

func New(db DB, sealer *secrets.Sealer) *Repository {
	return &Repository{db: db, sealer: sealer}
}

// Migrate applies the embedded schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, Migrations, MigrationsDir, cfg, log)
}

const selectRecord = `
SELECT secret_encrypted, enabled, enabled_at, version, updated_at
FROM account_security
WHERE account_id = $1`

func (r *Repository) Load(ctx context.Context, id uuid.UUID) (twofactor.Record, error) {
	var (
		sealed    []byte
		enabled   bool
		enabledAt *time.Time
		version   int64
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, selectRecord, id).Scan(&sealed, &enabled, &enabledAt, &version, &updatedAt)
	if pg.IsNotFoundError(err) {
		return twofactor.Record{AccountID: id}, nil
	}
	if err != nil {
		return twofactor.Record{}, fmt.Errorf("load account security: %w", err)
	}

	rec := twofactor.Record{
		AccountID: id,
		Enabled:   enabled,
		EnabledAt: enabledAt,
		Version:   version,
		UpdatedAt: updatedAt,
	}
	if len(sealed) > 0 {
		key, err := r.sealer.Open(secretPurpose, sealed, id[:])
		if err != nil {
			return twofactor.Record{}, fmt.Errorf("open stored secret: %w", err)
		}
		defer clear(key)
		if rec.Secret, err = totp.SecretFromBytes(key); err != nil {
			return twofactor.Record{}, fmt.Errorf("open stored secret: %w", err)
		}
	}
	return rec, nil
}

const insertRecord = `
INSERT INTO account_security (account_id, secret_encrypted, enabled, enabled_at, version, updated_at)
VALUES ($1, $2, $3, $4, 1, $5)
ON CONFLICT (account_id) DO NOTHING
RETURNING version`

const updateRecord = `
UPDATE account_security
SET secret_encrypted = $2, enabled = $3, enabled_at = $4, updated_at = $5, version = version + 1
WHERE account_id = $1 AND version = $6
RETURNING version`

func (r *Repository) Save(ctx context.Context, rec twofactor.Record, expectedVersion int64) (twofactor.Record, error) {
	if err := rec.Validate(); err != nil {
		return twofactor.Record{}, err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	var sealed []byte
	if !rec.Secret.IsZero() {
		key := rec.Secret.Bytes()
		defer clear(key)
		var err error
		if sealed, err = r.sealer.Seal(secretPurpose, key, rec.AccountID[:]); err != nil {
			return twofactor.Record{}, fmt.Errorf("seal secret: %w", err)
		}
	}

	var row pgx.Row
	if expectedVersion == 0 {
		row = r.db.QueryRow(ctx, insertRecord, rec.AccountID, sealed, rec.Enabled, rec.EnabledAt, rec.UpdatedAt)
	} else {
		row = r.db.QueryRow(ctx, updateRecord, rec.AccountID, sealed, rec.Enabled, rec.EnabledAt, rec.UpdatedAt, expectedVersion)
	}

	var version int64
	if err := row.Scan(&version); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return twofactor.Record{}, twofactor.ErrVersionConflict
		case pg.IsCheckViolationError(err):
			return twofactor.Record{}, errors.Join(twofactor.ErrInvalidRecord, err)
		default:
			return twofactor.Record{}, fmt.Errorf("save account security: %w", err)
		}
	}
	rec.Version = version
	return rec, nil
}

// Delete removes the row for id. It is called when the account itself is deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM account_security WHERE account_id = $1`, id); err != nil {
		return fmt.Errorf("delete account security: %w", err)
	}
	return nil
}
