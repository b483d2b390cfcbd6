package provisioning

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/dmitrymomot/twofactor/pkg/totp"
)

// Descriptor is the textual enrollment payload. It is always available, even when no
// image could be rendered, so users can type the secret in manually.
type Descriptor struct {
	URI          string `json:"otpauth_uri"`
	Secret       string `json:"secret"`
	Issuer       string `json:"issuer"`
	AccountLabel string `json:"account_label"`
}

// Image is a rendered QR code.
type Image struct {
	Renderer string
	MIMEType string
	Data     []byte
}

// DataURI returns the image as a data: URI for embedding in <img src>.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Renderer turns an otpauth URI into an image.
type Renderer interface {
	Name() string
	Render(ctx context.Context, content string) (*Image, error)
}

// RenderFailure records one renderer that did not produce an image.
type RenderFailure struct {
	Renderer string
	Err      error
}

// Payload is what a user sees while enrolling.
type Payload struct {
	Descriptor
	Image    *Image
	Failures []RenderFailure
}

// HasImage reports whether any renderer succeeded.
func (p Payload) HasImage() bool { return p.Image != nil }

// Builder assembles the descriptor and walks an ordered renderer chain.
type Builder struct {
	renderers  []Renderer
	logger     *slog.Logger
	onFallback func(renderer string)
}

// NewBuilder returns a builder. Without WithRenderers the chain is a local
// skip2 renderer followed by the pquerna/boombuler renderer.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		renderers: []Renderer{NewLocalRenderer(DefaultSize), NewBarcodeRenderer(DefaultSize)},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Renderers returns the chain's renderer names in order.
func (b *Builder) Renderers() []string {
	names := make([]string, 0, len(b.renderers))
	for _, r := range b.renderers {
		names = append(names, r.Name())
	}
	return names
}

// Build returns the payload for secret. It fails only when the descriptor itself cannot
// be built. Rendering problems are recorded in Payload.Failures and never returned.
func (b *Builder) Build(ctx context.Context, accountLabel, issuer string, secret totp.Secret) (Payload, error) {
	uri, err := totp.ProvisioningURI(issuer, accountLabel, secret)
	if err != nil {
		return Payload{}, err
	}

	p := Payload{
		Descriptor: Descriptor{
			URI:          uri,
			Secret:       secret.Base32(),
			Issuer:       issuer,
			AccountLabel: accountLabel,
		},
	}

	for _, r := range b.renderers {
		if err := ctx.Err(); err != nil {
			p.Failures = append(p.Failures, RenderFailure{Renderer: r.Name(), Err: err})
			break
		}

		img, err := r.Render(ctx, uri)
		if err == nil && img != nil {
			if img.Renderer == "" {
				img.Renderer = r.Name()
			}
			p.Image = img
			break
		}
		if err == nil {
			err = ErrRenderFailed
		}

		p.Failures = append(p.Failures, RenderFailure{Renderer: r.Name(), Err: err})
		b.logger.WarnContext(ctx, "qr renderer failed, falling back",
			slog.String("renderer", r.Name()),
			slog.String("error", err.Error()),
		)
		if b.onFallback != nil {
			b.onFallback(r.Name())
		}
	}

	if p.Image == nil && len(b.renderers) > 0 {
		b.logger.ErrorContext(ctx, "no qr renderer succeeded, serving manual entry only",
			slog.Int("attempts", len(p.Failures)),
		)
	}

	return p, nil
}
