package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler forwards each record to every child that accepts its level.
type teeHandler []slog.Handler

func newTeeHandler(handlers ...slog.Handler) slog.Handler {
	var kept teeHandler
	for _, h := range handlers {
		if h == nil {
			continue
		}
		if _, discard := h.(discardHandler); discard {
			continue
		}
		kept = append(kept, h)
	}
	switch len(kept) {
	case 0:
		return discardHandler{}
	case 1:
		return kept[0]
	default:
		return kept
	}
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t teeHandler) each(fn func(slog.Handler) slog.Handler) teeHandler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = fn(h)
	}
	return next
}

// TeeLogger duplicates everything logged through base into handlers. The
// pipeline uses it to mirror a run's lines into that run's own log file.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	all := handlers
	if base != nil {
		all = append([]slog.Handler{base.Handler()}, handlers...)
	}
	return slog.New(newTeeHandler(all...))
}
