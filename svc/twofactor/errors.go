package twofactor

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/totp"
)

var (
	// ErrEntropyUnavailable aborts setup when the OS random source fails. It is operator-facing.
	ErrEntropyUnavailable = totp.ErrEntropyUnavailable
	// ErrInvalidCodeFormat means the submission was not 6 digits. It never counts against the throttle.
	ErrInvalidCodeFormat = totp.ErrInvalidCodeFormat

	ErrCodeRejected           = errors.New("twofactor: code rejected")
	ErrSetupExpired           = errors.New("twofactor: setup expired")
	ErrInvalidSetupToken      = errors.New("twofactor: invalid setup token")
	ErrInvalidStateTransition = errors.New("twofactor: invalid state transition")
	ErrThrottled              = errors.New("twofactor: too many attempts")
	ErrVersionConflict        = errors.New("twofactor: record changed concurrently")
	ErrNoChallengePending     = errors.New("twofactor: no challenge pending")
	ErrNotAuthenticated       = errors.New("twofactor: first factor not completed")
	ErrInvalidRecord          = errors.New("twofactor: record violates invariants")
	ErrInvalidConfig          = errors.New("twofactor: invalid configuration")
)

// ThrottledError carries the retry hint for a throttled attempt. It matches ErrThrottled.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrThrottled, e.RetryAfter.Round(time.Second))
}

func (e *ThrottledError) Is(target error) bool { return target == ErrThrottled }

// RetryAfter extracts the retry hint from a throttling error.
func RetryAfter(err error) (time.Duration, bool) {
	var te *ThrottledError
	if errors.As(err, &te) {
		return te.RetryAfter, true
	}
	return 0, false
}
