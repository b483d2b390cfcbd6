package totp

import "errors"

var (
	ErrEntropyUnavailable = errors.New("secure random source unavailable")
	ErrInvalidCodeFormat  = errors.New("code must be exactly 6 digits")
	ErrMissingSecret      = errors.New("missing secret")
	ErrInvalidSecret      = errors.New("invalid secret")
	ErrMissingAccountName = errors.New("missing account name")
	ErrMissingIssuer      = errors.New("missing issuer")
)
