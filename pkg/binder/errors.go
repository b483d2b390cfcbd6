package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("binder: unsupported media type")
	ErrFailedToParseJSON    = errors.New("binder: failed to parse JSON body")
	ErrFailedToParseForm    = errors.New("binder: failed to parse form body")
	ErrBodyTooLarge         = errors.New("binder: request body too large")
	ErrInvalidTarget        = errors.New("binder: target must be a non-nil pointer to a struct")
)
