package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

// Verification outcomes, used as metric labels.
const (
	ResultAccepted      = "accepted"
	ResultRejected      = "rejected"
	ResultInvalidFormat = "invalid_format"
	ResultThrottled     = "throttled"
	ResultReplayed      = "replayed"
	ResultError         = "error"
)

func throttleKey(id uuid.UUID) string { return "2fa:" + id.String() }

// checkCode is the single verification path for confirm, disable, reset and login.
//
// Order matters: the format check runs before any throttle or HMAC work, every
// well-formed attempt takes one token before the comparison, and only a fresh,
// matching code refills the bucket.
func (l *Lifecycle) checkCode(ctx context.Context, op string, id uuid.UUID, secret totp.Secret, code string) error {
	result, err := l.verify(ctx, id, secret, code)
	l.metrics.ObserveVerification(op, result)

	attrs := []slog.Attr{logger.AccountID(id), logger.Operation(op), logger.Result(result)}
	switch result {
	case ResultAccepted, ResultInvalidFormat:
		l.log.LogAttrs(ctx, slog.LevelDebug, "code checked", attrs...)
	case ResultError:
		l.log.LogAttrs(ctx, slog.LevelError, "code check failed", append(attrs, logger.Error(err))...)
	default:
		if d, ok := RetryAfter(err); ok {
			attrs = append(attrs, logger.RetryAfter(d))
		}
		l.log.LogAttrs(ctx, slog.LevelWarn, "code not accepted", attrs...)
	}
	return err
}

func (l *Lifecycle) verify(ctx context.Context, id uuid.UUID, secret totp.Secret, code string) (string, error) {
	normalized, err := totp.NormalizeCode(code)
	if err != nil {
		return ResultInvalidFormat, ErrInvalidCodeFormat
	}

	key := throttleKey(id)
	res, err := l.throttle.Allow(ctx, key)
	if err != nil {
		return ResultError, err
	}
	if !res.Allowed() {
		retry := res.RetryAfterFrom(l.now())
		if retry <= 0 {
			retry = time.Second
		}
		return ResultThrottled, &ThrottledError{RetryAfter: retry}
	}

	now := l.now()
	step, ok, err := totp.Match(secret, normalized, now, l.window)
	if err != nil {
		return ResultError, err
	}
	if !ok {
		return ResultRejected, ErrCodeRejected
	}

	fresh, err := l.replay.Use(ctx, id.String()+":"+secret.Fingerprint(), step, l.replayTTL())
	if err != nil {
		return ResultError, err
	}
	if !fresh {
		return ResultReplayed, errors.Join(ErrCodeRejected, errReplayed)
	}

	if err := l.throttle.Reset(ctx, key); err != nil {
		l.log.WarnContext(ctx, "failed to reset attempt counter", logger.AccountID(id), logger.Error(err))
	}
	return ResultAccepted, nil
}

var errReplayed = errors.New("code already used")

// replayTTL covers every step that could still verify: the window on both sides plus the current step.
func (l *Lifecycle) replayTTL() time.Duration {
	return time.Duration(2*l.window+1) * totp.Period * time.Second
}
