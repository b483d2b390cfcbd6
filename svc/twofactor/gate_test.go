package twofactor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

func TestGate_Challenge(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	g := twofactor.NewGate(f.lc)

	disabled := newAccount()
	enabled := newAccount()
	f.enable(t, enabled)

	_, _, err := g.Challenge(ctx, twofactor.SessionContext{AccountID: enabled.ID})
	assert.ErrorIs(t, err, twofactor.ErrNotAuthenticated)

	sess, res, err := g.Challenge(ctx, twofactor.SessionContext{AccountID: disabled.ID, Authenticated: true})
	require.NoError(t, err)
	assert.Equal(t, twofactor.NotRequired, res)
	assert.False(t, sess.PendingSecondFactor)

	sess, res, err = g.Challenge(ctx, twofactor.SessionContext{AccountID: enabled.ID, Authenticated: true})
	require.NoError(t, err)
	assert.Equal(t, twofactor.ChallengeRequired, res)
	assert.Equal(t, "challenge_required", res.String())
	assert.True(t, sess.PendingSecondFactor)

	verified := twofactor.SessionContext{AccountID: enabled.ID, Authenticated: true, SecondFactorVerified: true}
	sess, res, err = g.Challenge(ctx, verified)
	require.NoError(t, err)
	assert.Equal(t, twofactor.NotRequired, res)
	assert.False(t, sess.PendingSecondFactor)
}

func TestGate_Submit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("accepts a valid code once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		g := twofactor.NewGate(f.lc)
		acct := newAccount()
		secret := f.enable(t, acct)

		sess, _, err := g.Challenge(ctx, twofactor.SessionContext{AccountID: acct.ID, Authenticated: true})
		require.NoError(t, err)

		code := f.code(secret)
		elevated, d, err := g.Submit(ctx, sess, code)
		require.NoError(t, err)
		assert.Equal(t, twofactor.Accepted, d)
		assert.False(t, elevated.PendingSecondFactor)
		assert.True(t, elevated.SecondFactorVerified)

		// Replaying the same code in the same step is refused.
		_, d, err = g.Submit(ctx, sess, code)
		assert.ErrorIs(t, err, twofactor.ErrCodeRejected)
		assert.Equal(t, twofactor.Rejected, d)
		assert.Equal(t, "rejected", d.String())
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		g := twofactor.NewGate(f.lc)
		acct := newAccount()
		secret := f.enable(t, acct)
		sess := twofactor.SessionContext{AccountID: acct.ID, Authenticated: true, PendingSecondFactor: true}

		out, d, err := g.Submit(ctx, sess, wrongCode(t, secret, f.clock.Now()))
		assert.ErrorIs(t, err, twofactor.ErrCodeRejected)
		assert.Equal(t, twofactor.Rejected, d)
		assert.True(t, out.PendingSecondFactor)

		_, _, err = g.Submit(ctx, sess, "12345")
		assert.ErrorIs(t, err, twofactor.ErrInvalidCodeFormat)
	})

	t.Run("no challenge pending", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		g := twofactor.NewGate(f.lc)
		acct := newAccount()
		secret := f.enable(t, acct)

		_, d, err := g.Submit(ctx, twofactor.SessionContext{AccountID: acct.ID, Authenticated: true}, f.code(secret))
		assert.ErrorIs(t, err, twofactor.ErrNoChallengePending)
		assert.Equal(t, twofactor.Rejected, d)

		_, _, err = g.Submit(ctx, twofactor.SessionContext{AccountID: acct.ID, PendingSecondFactor: true}, f.code(secret))
		assert.ErrorIs(t, err, twofactor.ErrNotAuthenticated)
	})

	t.Run("disabled since the challenge", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		g := twofactor.NewGate(f.lc)
		acct := newAccount()
		secret := f.enable(t, acct)

		sess, _, err := g.Challenge(ctx, twofactor.SessionContext{AccountID: acct.ID, Authenticated: true})
		require.NoError(t, err)
		_, err = f.lc.Disable(ctx, acct.ID, f.code(secret))
		require.NoError(t, err)

		out, d, err := g.Submit(ctx, sess, "")
		require.NoError(t, err)
		assert.Equal(t, twofactor.Accepted, d)
		assert.False(t, out.PendingSecondFactor)
	})

	t.Run("throttled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		g := twofactor.NewGate(f.lc)
		acct := newAccount()
		secret := f.enable(t, acct)
		sess := twofactor.SessionContext{AccountID: acct.ID, Authenticated: true, PendingSecondFactor: true}

		bad := wrongCode(t, secret, f.clock.Now())
		for range twofactor.DefaultThrottle.Capacity {
			_, _, err := g.Submit(ctx, sess, bad)
			require.ErrorIs(t, err, twofactor.ErrCodeRejected)
		}
		_, d, err := g.Submit(ctx, sess, f.code(secret))
		assert.ErrorIs(t, err, twofactor.ErrThrottled)
		assert.Equal(t, twofactor.Rejected, d)

		// The settings flow shares the budget.
		_, err = f.lc.Disable(ctx, acct.ID, f.code(secret))
		assert.ErrorIs(t, err, twofactor.ErrThrottled)
	})
}
