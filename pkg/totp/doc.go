// Package totp implements RFC 6238 time-based one-time passwords on top of RFC 4226 HOTP.
//
// The package is deliberately narrow: HMAC-SHA1, 6 digits and a 30 second period are fixed,
// which is what every mainstream authenticator app expects. It covers secret issuance,
// otpauth:// provisioning URIs and code verification with a configurable drift window.
//
// # Secrets
//
// A Secret wraps the raw HMAC key. It never prints itself: String, GoString, LogValue and
// MarshalJSON all emit a redacted placeholder, so a secret that slips into a log line or a
// response body does not leak. Use Base32 when the value must be shown to a user during
// enrollment and Bytes when it has to be persisted.
//
//	secret, err := totp.GenerateSecret()
//	if errors.Is(err, totp.ErrEntropyUnavailable) {
//	    // the OS random source failed; abort, never retry with a weaker source
//	}
//
// # Provisioning
//
// ProvisioningURI renders the Key URI format with parameters in a fixed order:
//
//	otpauth://totp/Acme:alice@example.com?secret=...&issuer=Acme&digits=6&period=30&algorithm=SHA1
//
// # Verification
//
// Verify and Match normalise the submitted code (whitespace is stripped, exactly 6 ASCII digits
// are required) before any HMAC work is done. Malformed input yields ErrInvalidCodeFormat, which
// callers should keep separate from a wrong code. The comparison walks every step of the window
// with constant-time equality, so the time taken does not depend on which step matched.
//
//	step, ok, err := totp.Match(secret, "123 456", time.Now(), totp.DefaultWindow)
//
// Match also returns the matched time-step, which replay protection uses to refuse a code
// that has already been accepted.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
