package twofactor_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/totp"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// nextStep moves the clock into the following TOTP step, so a fresh code is not a replay.
func (c *fakeClock) nextStep() { c.Advance(totp.Period * time.Second) }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	lc    *twofactor.Lifecycle
	repo  *twofactor.MemoryRepository
	clock *fakeClock
	logs  *syncBuffer
}

func newFixture(t *testing.T, opts ...twofactor.Option) *fixture {
	t.Helper()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	sealer, err := secrets.NewSealer(key)
	require.NoError(t, err)

	f := &fixture{
		repo:  twofactor.NewMemoryRepository(),
		clock: newFakeClock(),
		logs:  &syncBuffer{},
	}
	base := []twofactor.Option{
		twofactor.WithClock(f.clock.Now),
		twofactor.WithLogger(slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}
	f.lc, err = twofactor.NewLifecycle(f.repo, sealer, "Acme", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(f.lc.Close)
	return f
}

func newAccount() twofactor.Account {
	return twofactor.Account{ID: uuid.New(), Label: "alice@example.com"}
}

func (f *fixture) code(s totp.Secret) string { return totp.CodeAt(s, f.clock.Now()) }

// enable runs a full setup and confirmation and returns the active secret.
func (f *fixture) enable(t *testing.T, acct twofactor.Account) totp.Secret {
	t.Helper()
	setup, err := f.lc.StartSetup(context.Background(), acct)
	require.NoError(t, err)
	_, err = f.lc.Confirm(context.Background(), acct.ID, setup.Token, f.code(setup.Secret))
	require.NoError(t, err)
	f.clock.nextStep()
	return setup.Secret
}

func (f *fixture) load(t *testing.T, id uuid.UUID) twofactor.Record {
	t.Helper()
	rec, err := f.repo.Load(context.Background(), id)
	require.NoError(t, err)
	return rec
}

// wrongCode returns a well-formed code that does not verify for s around now.
func wrongCode(t *testing.T, s totp.Secret, now time.Time) string {
	t.Helper()
	for _, c := range []string{"000000", "111111", "222222", "333333"} {
		if ok, err := totp.Verify(s, c, now, 1); err == nil && !ok {
			return c
		}
	}
	t.Fatal("no non-matching code found")
	return ""
}
