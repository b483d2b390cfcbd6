package twofactor_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/email"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

type noticeRecorder struct {
	mu      sync.Mutex
	notices []twofactor.Notice
	err     error
}

func (r *noticeRecorder) Notify(_ context.Context, n twofactor.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

func (r *noticeRecorder) events() []twofactor.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]twofactor.Event, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Event)
	}
	return out
}

func TestLifecycle_Notifies(t *testing.T) {
	t.Parallel()
	rec := &noticeRecorder{}
	f := newFixture(t, twofactor.WithNotifier(rec))
	ctx := context.Background()
	acct := newAccount()

	secret := f.enable(t, acct)
	setup, err := f.lc.Reset(ctx, acct, f.code(secret))
	require.NoError(t, err)
	f.clock.nextStep()
	_, err = f.lc.Confirm(ctx, acct.ID, setup.Token, f.code(setup.Secret))
	require.NoError(t, err)
	f.clock.nextStep()
	_, err = f.lc.Disable(ctx, acct.ID, f.code(setup.Secret))
	require.NoError(t, err)

	assert.Equal(t, []twofactor.Event{
		twofactor.EventConfirm, twofactor.EventReset, twofactor.EventConfirm, twofactor.EventDisable,
	}, rec.events())
	for _, n := range rec.notices {
		assert.Equal(t, acct.ID, n.AccountID)
	}

	// Failed operations send nothing.
	_, err = f.lc.Disable(ctx, acct.ID, "123456")
	require.Error(t, err)
	assert.Len(t, rec.events(), 4)
}

func TestLifecycle_NotifierFailureDoesNotUndoTransition(t *testing.T) {
	t.Parallel()
	f := newFixture(t, twofactor.WithNotifier(twofactor.NotifierFunc(func(context.Context, twofactor.Notice) error {
		return errors.New("smtp down")
	})))
	acct := newAccount()

	f.enable(t, acct)
	assert.True(t, f.load(t, acct.ID).Enabled)
	assert.Contains(t, f.logs.String(), "security notice not delivered")
}

type senderStub struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *senderStub) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

type directory map[uuid.UUID]string

func (d directory) EmailAddress(_ context.Context, id uuid.UUID) (string, error) {
	if addr, ok := d[id]; ok {
		return addr, nil
	}
	return "", twofactor.ErrNoAddress
}

func TestEmailNotifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := uuid.New()
	sender := &senderStub{}
	n := twofactor.NewEmailNotifier(sender, directory{id: "alice@example.com"}, "Acme <Cloud>")

	tests := []struct {
		event   twofactor.Event
		subject string
	}{
		{twofactor.EventConfirm, "enabled"},
		{twofactor.EventDisable, "disabled"},
		{twofactor.EventReset, "reset"},
	}
	for _, tt := range tests {
		require.NoError(t, n.Notify(ctx, twofactor.Notice{AccountID: id, Event: tt.event}))
	}

	require.Len(t, sender.sent, len(tests))
	for i, tt := range tests {
		msg := sender.sent[i]
		assert.Equal(t, "alice@example.com", msg.To)
		assert.Contains(t, msg.Subject, tt.subject)
		assert.Equal(t, "2fa-"+tt.event.String(), msg.Tag)
		assert.Contains(t, msg.BodyHTML, "Acme &lt;Cloud&gt;")
		assert.NotContains(t, msg.BodyHTML, "<Cloud>")
	}

	err := n.Notify(ctx, twofactor.Notice{AccountID: uuid.New(), Event: twofactor.EventConfirm})
	assert.ErrorIs(t, err, twofactor.ErrNoAddress)
	assert.Len(t, sender.sent, len(tests))
}
