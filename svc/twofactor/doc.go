// Package twofactor implements TOTP two-factor authentication for accounts.
//
// Lifecycle moves an account between three states:
//
//	disabled --start_setup--> pending_enable --confirm--> enabled
//	enabled  --disable------> disabled
//	enabled  --reset--------> pending_enable
//
// Pending setups are never persisted. StartSetup returns the provisional secret
// sealed into a short-lived token, and Confirm opens it again. Only a confirmed
// secret reaches the Repository, encrypted at rest by the Postgres implementation.
//
// Gate runs the login challenge for accounts that have two-factor enabled.
//
// Every code check, whether from settings or login, goes through one path. It checks
// the format first (format errors are free), then takes one token from a per-account
// bucket. It compares the code against all window offsets in constant time and
// refuses a time-step that was already accepted. A success refills the bucket, so
// only consecutive failures lead to ErrThrottled.
package twofactor
