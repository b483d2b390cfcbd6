package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// AccountID records the account identifier under the key "account_id".
func AccountID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("account_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Operation records the domain operation, e.g. "confirm", under the key "operation".
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// State records a lifecycle state under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Result records an outcome such as "accepted" or "rejected".
func Result(outcome string) slog.Attr {
	return slog.String("result", outcome)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// RetryAfter records a throttle delay.
func RetryAfter(d time.Duration) slog.Attr {
	return slog.Duration("retry_after", d)
}
