package twofactor

import (
	"context"

	"github.com/google/uuid"
)

// SessionContext is the caller's view of the login session. It is passed in and
// returned explicitly; the gate never reads global auth state.
type SessionContext struct {
	AccountID            uuid.UUID
	Label                string
	Authenticated        bool // first factor passed
	PendingSecondFactor  bool
	SecondFactorVerified bool // a code was accepted for this session
}

// ChallengeResult tells the login flow whether a code is needed.
type ChallengeResult int

const (
	NotRequired ChallengeResult = iota
	ChallengeRequired
)

func (c ChallengeResult) String() string {
	if c == ChallengeRequired {
		return "challenge_required"
	}
	return "not_required"
}

// Decision is the outcome of Submit.
type Decision int

const (
	Rejected Decision = iota
	Accepted
)

func (d Decision) String() string {
	if d == Accepted {
		return "accepted"
	}
	return "rejected"
}

// Gate holds a signed-in principal in the pending-second-factor sub-state until a
// valid code is submitted. Elevating the session is left to the session layer.
type Gate struct {
	lc *Lifecycle
}

// NewGate shares the lifecycle's repository, throttle and replay guard, so failed
// login codes and failed settings codes drain the same per-account budget.
func NewGate(lc *Lifecycle) *Gate {
	return &Gate{lc: lc}
}

// Challenge decides whether sess needs a second factor. A session that already
// passed one is left as is.
func (g *Gate) Challenge(ctx context.Context, sess SessionContext) (SessionContext, ChallengeResult, error) {
	if !sess.Authenticated {
		return sess, NotRequired, ErrNotAuthenticated
	}
	if sess.SecondFactorVerified && !sess.PendingSecondFactor {
		return sess, NotRequired, nil
	}
	rec, err := g.lc.repo.Load(ctx, sess.AccountID)
	if err != nil {
		return sess, NotRequired, err
	}
	sess.PendingSecondFactor = rec.Enabled
	if rec.Enabled {
		return sess, ChallengeRequired, nil
	}
	return sess, NotRequired, nil
}

// Submit checks code for a pending challenge. On Accepted the returned session no
// longer has PendingSecondFactor set.
func (g *Gate) Submit(ctx context.Context, sess SessionContext, code string) (SessionContext, Decision, error) {
	if !sess.Authenticated {
		return sess, Rejected, ErrNotAuthenticated
	}
	if !sess.PendingSecondFactor {
		return sess, Rejected, ErrNoChallengePending
	}

	rec, err := g.lc.repo.Load(ctx, sess.AccountID)
	if err != nil {
		return sess, Rejected, err
	}
	// Disabled since the challenge was issued: nothing left to prove.
	if !rec.Enabled {
		sess.PendingSecondFactor = false
		sess.SecondFactorVerified = true
		return sess, Accepted, nil
	}

	if err := g.lc.checkCode(ctx, "verify", sess.AccountID, rec.Secret, code); err != nil {
		return sess, Rejected, err
	}
	sess.PendingSecondFactor = false
	sess.SecondFactorVerified = true
	return sess, Accepted, nil
}
