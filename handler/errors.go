package handler

import (
	"errors"
	"net/http"
	"time"
)

var ErrNilResponse = errors.New("handler: nil response")

// HTTPError is an error with a status code and a stable machine-readable key.
type HTTPError struct {
	Code       int
	Key        string
	Message    string
	RetryAfter time.Duration
	cause      error
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Key
}

func (e HTTPError) Unwrap() error { return e.cause }

// Wrap returns a copy of e carrying cause for logging and errors.Is.
func (e HTTPError) Wrap(cause error) HTTPError {
	e.cause = cause
	return e
}

// WithMessage returns a copy of e with a user-facing message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict            = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrUnprocessableEntity = HTTPError{Code: http.StatusUnprocessableEntity, Key: "unprocessable_entity"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrServiceUnavailable  = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
)

// BadRequest wraps a binding failure.
func BadRequest(cause error) HTTPError {
	return ErrBadRequest.Wrap(cause)
}

// AsHTTPError extracts an HTTPError from err, defaulting to 500.
func AsHTTPError(err error) HTTPError {
	var he HTTPError
	if errors.As(err, &he) {
		return he
	}
	return ErrInternalServerError.Wrap(err)
}
