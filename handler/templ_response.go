package handler

import (
	"net/http"

	"github.com/a-h/templ"
)

// TemplOption customises an HTML response.
type TemplOption func(*templResponse)

// WithStatus sets the status code written before the body.
func WithStatus(status int) TemplOption {
	return func(t *templResponse) { t.status = status }
}

type templResponse struct {
	component templ.Component
	status    int
}

func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if t.status != 0 {
		w.WriteHeader(t.status)
	}
	return t.component.Render(r.Context(), w)
}

// Templ renders component as text/html.
func Templ(component templ.Component, opts ...TemplOption) Response {
	t := templResponse{component: component}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}
