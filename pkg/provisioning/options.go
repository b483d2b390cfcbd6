package provisioning

import "log/slog"

// Option configures a Builder.
type Option func(*Builder)

// WithRenderers replaces the renderer chain. Order is significant.
func WithRenderers(renderers ...Renderer) Option {
	return func(b *Builder) {
		b.renderers = renderers
	}
}

// AppendRenderers adds renderers after the current chain.
func AppendRenderers(renderers ...Renderer) Option {
	return func(b *Builder) {
		b.renderers = append(b.renderers, renderers...)
	}
}

// WithLogger sets the logger used for fallback reporting.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithFallbackHook is called with the renderer name each time the chain advances.
func WithFallbackHook(fn func(renderer string)) Option {
	return func(b *Builder) {
		b.onFallback = fn
	}
}
