package twofactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/dmitrymomot/twofactor/pkg/email"
	"github.com/dmitrymomot/twofactor/pkg/email/templates"
)

// Notice describes a security-relevant change to an account.
type Notice struct {
	AccountID uuid.UUID
	Event     Event
	At        time.Time
}

// Notifier delivers notices. Failures are logged by the lifecycle and never undo a transition.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice) error

func (f NotifierFunc) Notify(ctx context.Context, n Notice) error { return f(ctx, n) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notice) error { return nil }

// AccountDirectory resolves where to send notices. It is implemented by the user store.
type AccountDirectory interface {
	EmailAddress(ctx context.Context, id uuid.UUID) (string, error)
}

// ErrNoAddress is returned by an AccountDirectory that has no address for the account.
var ErrNoAddress = errors.New("twofactor: account has no email address")

// EmailNotifier mails a short notice for each enable, disable and reset.
type EmailNotifier struct {
	sender email.Sender
	dir    AccountDirectory
	issuer string
}

func NewEmailNotifier(sender email.Sender, dir AccountDirectory, issuer string) *EmailNotifier {
	return &EmailNotifier{sender: sender, dir: dir, issuer: issuer}
}

func (n *EmailNotifier) Notify(ctx context.Context, notice Notice) error {
	addr, err := n.dir.EmailAddress(ctx, notice.AccountID)
	if err != nil {
		return err
	}

	subject, line := noticeText(notice.Event)
	body, err := templates.Render(ctx, noticeBody(n.issuer, line, notice.At))
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, email.Message{
		To:       addr,
		Subject:  fmt.Sprintf("%s: %s", n.issuer, subject),
		BodyHTML: body,
		Tag:      "2fa-" + notice.Event.String(),
	})
}

func noticeText(e Event) (subject, line string) {
	switch e {
	case EventConfirm:
		return "two-factor authentication enabled", "Two-factor authentication was turned on for your account."
	case EventDisable:
		return "two-factor authentication disabled", "Two-factor authentication was turned off for your account."
	case EventReset:
		return "two-factor authentication reset", "Your authenticator secret was reset. Two-factor stays off until you confirm the new one."
	default:
		return "security settings changed", "Your security settings were changed."
	}
}

func noticeBody(issuer, line string, at time.Time) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<p>%s</p><p>Time: %s</p><p>If this was not you, contact %s support immediately.</p>`,
			templ.EscapeString(line),
			templ.EscapeString(at.Format(time.RFC1123)),
			templ.EscapeString(issuer),
		)
		return err
	})
}
