package twofactor

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/twofactor/handler"
)

// VerifyPageParams feeds the login challenge page.
type VerifyPageParams struct {
	Pending bool
}

// Views renders the HTML side of the module. Applications usually pass their own
// templ components.
type Views struct {
	Setup  func(StatusResponse) templ.Component
	Verify func(VerifyPageParams) templ.Component
	Error  func(handler.ErrorPageParams) templ.Component
}

func defaultViews() Views {
	return Views{Setup: setupPage, Verify: verifyPage, Error: errorPage}
}

func codeForm(action, button string) string {
	return fmt.Sprintf(`<form method="post" action="%s">`+
		`<input name="code" inputmode="numeric" autocomplete="one-time-code" pattern="[0-9 ]*" maxlength="7" required>`+
		`<button type="submit">%s</button></form>`,
		templ.EscapeString(action), templ.EscapeString(button))
}

func setupPage(p StatusResponse) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="two-factor"><h1>Two-factor authentication</h1>`); err != nil {
			return err
		}

		var body string
		switch {
		case p.Setup != nil:
			body = `<p>Scan the code with your authenticator app, then enter the 6-digit code it shows.</p>`
			if p.Setup.QRCode != "" {
				body += fmt.Sprintf(`<img src="%s" alt="QR code" width="256" height="256">`, templ.EscapeString(p.Setup.QRCode))
			}
			body += fmt.Sprintf(`<p>Or enter this key manually: <code>%s</code></p>`, templ.EscapeString(p.Setup.Secret)) +
				fmt.Sprintf(`<p>This setup expires at %s.</p>`, templ.EscapeString(p.Setup.ExpiresAt.UTC().Format("15:04 MST"))) +
				codeForm("enable", "Enable")
		case p.Enabled:
			body = `<p>Two-factor authentication is on.</p>` +
				codeForm("disable", "Disable") + codeForm("reset", "Reset authenticator")
		default:
			body = `<p>Two-factor authentication is off.</p>` +
				`<form method="post" action="setup"><button type="submit">Set up</button></form>`
		}

		_, err := io.WriteString(w, body+`</section>`)
		return err
	})
}

func verifyPage(p VerifyPageParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		body := `<p>No verification is needed.</p>`
		if p.Pending {
			body = `<p>Enter the 6-digit code from your authenticator app.</p>` + codeForm("verify", "Verify")
		}
		_, err := io.WriteString(w, `<section class="two-factor-verify"><h1>Verify sign-in</h1>`+body+`</section>`)
		return err
	})
}

func errorPage(p handler.ErrorPageParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="error"><h1>%d</h1><p>%s</p><small>%s</small></section>`,
			p.Status, templ.EscapeString(p.Message), templ.EscapeString(p.RequestID))
		return err
	})
}
