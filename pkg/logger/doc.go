// Package logger builds *slog.Logger instances with functional options, consistent
// attribute helpers and automatic injection of request-scoped values.
//
// New wraps a text or JSON handler in a context handler that runs the registered
// ContextExtractor callbacks (request id, client ip) on every record. Attributes whose key
// is one of DefaultRedactedKeys ("secret", "code", "token", ...) are replaced with
// "[REDACTED]", so a careless logger.Any("code", code) cannot leak a one-time code.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "twofactord"),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
//	)
//
//	log.InfoContext(ctx, "two-factor enabled",
//		logger.AccountID(id),
//		logger.Operation("confirm"),
//	)
package logger
