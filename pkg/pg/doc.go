// Package pg connects to PostgreSQL with pgx and applies goose migrations from an embedded
// filesystem.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
//		return err
//	}
//
// Helpers such as IsNotFoundError and IsDuplicateKeyError classify driver errors without
// leaking pgx types into callers.
package pg
