package provisioning

import (
	"context"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the image edge in pixels used when no size is specified.
const DefaultSize = 256

// LocalRenderer encodes PNG QR codes in-process with skip2/go-qrcode.
type LocalRenderer struct {
	size  int
	level skipqrcode.RecoveryLevel
}

func NewLocalRenderer(size int) *LocalRenderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &LocalRenderer{size: size, level: skipqrcode.Medium}
}

func (r *LocalRenderer) Name() string { return "local" }

func (r *LocalRenderer) Render(_ context.Context, content string) (*Image, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	png, err := skipqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}
	return &Image{Renderer: r.Name(), MIMEType: "image/png", Data: png}, nil
}
