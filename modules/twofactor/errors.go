package twofactor

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/twofactor/handler"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

var (
	errInvalidCodeFormat = handler.HTTPError{Code: http.StatusUnprocessableEntity, Key: "invalid_code_format", Message: "enter a 6-digit code"}
	errCodeRejected      = handler.HTTPError{Code: http.StatusUnprocessableEntity, Key: "code_rejected", Message: "the code is not valid"}
	errSetupExpired      = handler.HTTPError{Code: http.StatusUnprocessableEntity, Key: "setup_expired", Message: "setup expired, start again"}
	errInvalidSetup      = handler.HTTPError{Code: http.StatusUnprocessableEntity, Key: "invalid_setup", Message: "setup is no longer valid, start again"}
	errThrottled         = handler.HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_attempts", Message: "too many attempts, try again later"}
	errInvalidState      = handler.HTTPError{Code: http.StatusConflict, Key: "invalid_state", Message: "not allowed in the current two-factor state"}
	errNoChallenge       = handler.HTTPError{Code: http.StatusConflict, Key: "no_challenge_pending", Message: "no verification is pending"}
	errConflict          = handler.HTTPError{Code: http.StatusConflict, Key: "conflict", Message: "settings changed meanwhile, reload and retry"}
)

// Classify maps lifecycle and gate errors to HTTP errors. It is the Classify hook of
// handler.NewErrorHandler.
func Classify(err error) (handler.HTTPError, bool) {
	switch {
	case errors.Is(err, twofactor.ErrInvalidCodeFormat):
		return errInvalidCodeFormat.Wrap(err), true
	case errors.Is(err, twofactor.ErrThrottled):
		he := errThrottled.Wrap(err)
		he.RetryAfter, _ = twofactor.RetryAfter(err)
		return he, true
	case errors.Is(err, twofactor.ErrCodeRejected):
		return errCodeRejected.Wrap(err), true
	case errors.Is(err, twofactor.ErrSetupExpired):
		return errSetupExpired.Wrap(err), true
	case errors.Is(err, twofactor.ErrInvalidSetupToken):
		return errInvalidSetup.Wrap(err), true
	case errors.Is(err, twofactor.ErrInvalidStateTransition):
		return errInvalidState.Wrap(err), true
	case errors.Is(err, twofactor.ErrNoChallengePending):
		return errNoChallenge.Wrap(err), true
	case errors.Is(err, twofactor.ErrVersionConflict):
		return errConflict.Wrap(err), true
	case errors.Is(err, twofactor.ErrNotAuthenticated):
		return handler.ErrUnauthorized.Wrap(err), true
	}
	return handler.HTTPError{}, false
}
