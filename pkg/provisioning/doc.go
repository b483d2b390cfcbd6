// Package provisioning builds the enrollment payload shown to a user turning on
// two-factor authentication.
//
// The payload always carries the otpauth:// URI and the Base32 secret. A QR image is
// added by the first renderer in an ordered chain that succeeds; a failing renderer is
// logged (without the URI) and the next one is tried. If every renderer fails the
// payload is still returned, without an image, so the user can type the secret in.
//
// Bundled renderers:
//
//   - LocalRenderer: skip2/go-qrcode, in-process.
//   - BarcodeRenderer: pquerna/otp + boombuler/barcode, in-process.
//   - RemoteRenderer: any HTTP endpoint returning an image. The endpoint sees the
//     secret, so only configure services you control.
//
// Usage:
//
//	b := provisioning.NewBuilder(provisioning.WithLogger(log))
//	p, err := b.Build(ctx, "alice@example.com", "Acme", secret)
//	if p.HasImage() {
//	    src := p.Image.DataURI()
//	}
package provisioning
