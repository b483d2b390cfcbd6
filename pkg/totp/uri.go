package totp

import (
	"net/url"
	"strconv"
	"strings"
)

// ProvisioningURI builds the otpauth:// Key URI consumed by authenticator apps.
// Parameter order is fixed: secret, issuer, digits, period, algorithm.
func ProvisioningURI(issuer, accountName string, secret Secret) (string, error) {
	if strings.TrimSpace(issuer) == "" {
		return "", ErrMissingIssuer
	}
	if strings.TrimSpace(accountName) == "" {
		return "", ErrMissingAccountName
	}
	if secret.IsZero() {
		return "", ErrMissingSecret
	}

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(escapeLabel(issuer))
	b.WriteByte(':')
	b.WriteString(escapeLabel(accountName))
	b.WriteString("?secret=")
	b.WriteString(secret.Base32())
	b.WriteString("&issuer=")
	b.WriteString(escapeValue(issuer))
	b.WriteString("&digits=")
	b.WriteString(strconv.Itoa(Digits))
	b.WriteString("&period=")
	b.WriteString(strconv.Itoa(Period))
	b.WriteString("&algorithm=")
	b.WriteString(Algorithm)

	return b.String(), nil
}

// escapeLabel escapes one side of the issuer:account label. The colon is the
// separator, so a literal one must be encoded.
func escapeLabel(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
}

func escapeValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
