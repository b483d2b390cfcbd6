// Package email sends transactional messages such as two-factor security notices.
//
// Production deployments use Postmark; without Postmark tokens New returns a
// DevSender that drops each message into a local directory for inspection.
//
//	sender, err := email.New(cfg)
//	if err != nil {
//		return err
//	}
//	err = sender.Send(ctx, email.Message{To: "alice@example.com", Subject: "2FA enabled", BodyHTML: body})
//
// The templates subpackage renders templ components into HTML bodies.
package email
