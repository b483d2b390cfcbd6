package provisioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	placeholder          = "{data}"
	defaultRemoteTimeout = 5 * time.Second
	defaultMaxImageBytes = 1 << 20
)

// RemoteRenderer fetches a QR image from an HTTP endpoint such as a public chart service.
// The endpoint receives the full otpauth URI, secret included, so it must be trusted.
type RemoteRenderer struct {
	name     string
	endpoint string
	client   *http.Client
	maxBytes int64
}

// RemoteOption configures a RemoteRenderer.
type RemoteOption func(*RemoteRenderer)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteRenderer) {
		if c != nil {
			r.client = c
		}
	}
}

// WithMaxImageBytes caps the response body size.
func WithMaxImageBytes(n int64) RemoteOption {
	return func(r *RemoteRenderer) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// NewRemoteRenderer builds a renderer for endpoint, which must contain {data}; it is
// replaced with the query-escaped URI.
func NewRemoteRenderer(name, endpoint string, opts ...RemoteOption) (*RemoteRenderer, error) {
	if !strings.Contains(endpoint, placeholder) {
		return nil, ErrInvalidEndpointPattern
	}
	if _, err := url.Parse(strings.ReplaceAll(endpoint, placeholder, "x")); err != nil {
		return nil, errors.Join(ErrInvalidEndpointPattern, err)
	}
	if name == "" {
		name = "remote"
	}

	r := &RemoteRenderer{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultRemoteTimeout},
		maxBytes: defaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *RemoteRenderer) Name() string { return r.name }

func (r *RemoteRenderer) Render(ctx context.Context, content string) (*Image, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	target := strings.ReplaceAll(r.endpoint, placeholder, url.QueryEscape(content))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, stripURL(err))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the secret.
		return nil, errors.Join(ErrRenderFailed, stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedContentType, mediaType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, ErrRenderFailed
	}

	return &Image{Renderer: r.name, MIMEType: mediaType, Data: data}, nil
}

func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}
