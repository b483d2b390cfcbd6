package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/pkg/requestid"
)

// ErrorPageParams feeds the HTML error page.
type ErrorPageParams struct {
	Status    int
	Key       string
	Message   string
	RequestID string
}

// ErrorHandlerConfig controls NewErrorHandler.
type ErrorHandlerConfig struct {
	// Classify maps domain errors to HTTP errors. Returning false falls back to AsHTTPError.
	Classify func(error) (HTTPError, bool)
	// Page renders HTML errors. When nil, plain text is written.
	Page func(ErrorPageParams) templ.Component
}

// NewErrorHandler logs err and answers with JSON or HTML depending on the request.
// Server errors never expose their cause to the client.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		he, ok := HTTPError{}, false
		if cfg.Classify != nil {
			he, ok = cfg.Classify(err)
		}
		if !ok {
			he = AsHTTPError(err)
		}

		level := slog.LevelWarn
		if he.Code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Error(err),
			slog.Int("status", he.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		msg := he.Message
		if msg == "" || he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(he.Code)
		}

		w := ctx.ResponseWriter()
		if he.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(ratelimiter.RetryAfterSeconds(he.RetryAfter)))
		}

		if WantsJSON(r) {
			_ = JSONError(&ErrorDetail{Code: he.Key, Message: msg}, WithJSONStatus(he.Code)).Render(w, r)
			return
		}

		if cfg.Page == nil {
			http.Error(w, msg, he.Code)
			return
		}
		page := cfg.Page(ErrorPageParams{
			Status:    he.Code,
			Key:       he.Key,
			Message:   msg,
			RequestID: requestid.FromContext(r.Context()),
		})
		if err := Templ(page, WithStatus(he.Code)).Render(w, r); err != nil {
			log.ErrorContext(r.Context(), "failed to render error page", logger.Error(err))
		}
	}
}
