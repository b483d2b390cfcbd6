package binder

import (
	"mime"
	"net/http"
)

// MaxBodySize caps JSON and urlencoded bodies. Two-factor requests carry a code and a token.
const MaxBodySize = 64 << 10

// Func decodes a request into v.
type Func func(r *http.Request, v any) error

// Bind picks the JSON or form binder from the Content-Type header. Requests without
// a body type are treated as forms so that query-only GETs bind too.
func Bind(r *http.Request, v any) error {
	switch mediaType(r) {
	case "application/json":
		return JSON()(r, v)
	case "", "application/x-www-form-urlencoded", "multipart/form-data":
		return Form()(r, v)
	default:
		return ErrUnsupportedMediaType
	}
}

func mediaType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mt
}
