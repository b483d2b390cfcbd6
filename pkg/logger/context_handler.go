package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a request context, e.g. the request id.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds extracted attributes at the top level of every record, even when
// the logger was derived with WithGroup. Groups are therefore applied at Handle time
// instead of being pushed into the wrapped handler.
type contextHandler struct {
	root       slog.Handler
	groups     []string
	scoped     [][]slog.Attr // attrs added after groups[i] was opened
	extractors []ContextExtractor
}

func newContextHandler(next slog.Handler, extractors []ContextExtractor) slog.Handler {
	var kept []ContextExtractor
	for _, ex := range extractors {
		if ex != nil {
			kept = append(kept, ex)
		}
	}
	if len(kept) == 0 {
		return next
	}
	return &contextHandler{root: next, extractors: kept}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.root.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	var extra []slog.Attr
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			extra = append(extra, attr)
		}
	}
	if len(h.groups) == 0 {
		rec.AddAttrs(extra...)
		return h.root.Handle(ctx, rec)
	}

	last := len(h.groups) - 1
	inner := append([]slog.Attr(nil), h.scoped[last]...)
	rec.Attrs(func(a slog.Attr) bool {
		inner = append(inner, a)
		return true
	})
	group := slog.Attr{Key: h.groups[last], Value: slog.GroupValue(inner...)}
	for i := last - 1; i >= 0; i-- {
		attrs := append(append([]slog.Attr(nil), h.scoped[i]...), group)
		group = slog.Attr{Key: h.groups[i], Value: slog.GroupValue(attrs...)}
	}

	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	out.AddAttrs(extra...)
	out.AddAttrs(group)
	return h.root.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	if len(c.groups) == 0 {
		c.root = c.root.WithAttrs(attrs)
		return c
	}
	last := len(c.scoped) - 1
	c.scoped[last] = append(append([]slog.Attr(nil), c.scoped[last]...), attrs...)
	return c
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(c.groups, name)
	c.scoped = append(c.scoped, nil)
	return c
}

func (h *contextHandler) clone() *contextHandler {
	return &contextHandler{
		root:       h.root,
		groups:     append([]string(nil), h.groups...),
		scoped:     append([][]slog.Attr(nil), h.scoped...),
		extractors: h.extractors,
	}
}
