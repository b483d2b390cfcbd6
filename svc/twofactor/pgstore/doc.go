// Package pgstore is the PostgreSQL twofactor.Repository.
//
// Secrets are sealed with AES-GCM before they reach the database, bound to the
// account id, so a row copied onto another account does not decrypt. Writes are
// guarded by the version column; a concurrent writer gets twofactor.ErrVersionConflict.
package pgstore
