package logger

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces masked attribute values.
const RedactedValue = "[REDACTED]"

// DefaultRedactedKeys never reach the output in clear text.
var DefaultRedactedKeys = []string{
	"secret", "code", "otp", "token", "setup_token", "otpauth_uri", "password", "encryption_key",
}

func redactor(keys map[string]struct{}) func(groups []string, a slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		if _, ok := keys[strings.ToLower(a.Key)]; ok {
			return slog.String(a.Key, RedactedValue)
		}
		return a
	}
}
