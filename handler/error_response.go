package handler

import "net/http"

type errorResponse struct{ err error }

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error { return e.err }

// Error defers err to the configured ErrorHandler.
func Error(err error) Response { return errorResponse{err: err} }
