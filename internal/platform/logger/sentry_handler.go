package logger

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/getsentry/sentry-go"
)

// requestIDKey is promoted to a Sentry tag so events can be searched by it.
const requestIDKey = "request_id"

// WrapWithSentry returns a logger that also reports error records to Sentry.
func WrapWithSentry(base *slog.Logger) *slog.Logger {
	if base == nil {
		return nil
	}
	return slog.New(&sentryHandler{next: base.Handler()})
}

// sentryHandler forwards to next and, for records at error level, captures
// an event carrying the record's attributes. Attributes bound with With are
// remembered so they reach Sentry too.
type sentryHandler struct {
	next  slog.Handler
	bound []slog.Attr
}

func (h *sentryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sentryHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.next.Handle(ctx, record)
	if record.Level < slog.LevelError {
		return err
	}

	ev := eventFields{extras: map[string]any{}}
	for _, a := range h.bound {
		ev.add(a)
	}
	record.Attrs(func(a slog.Attr) bool {
		ev.add(a)
		return true
	})
	if record.PC != 0 {
		if frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next(); frame.PC != 0 {
			ev.extras["source"] = map[string]any{"file": frame.File, "line": frame.Line, "function": frame.Function}
		}
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetExtras(ev.extras)
		scope.SetExtra("message", record.Message)
		if ev.requestID != "" {
			scope.SetTag(requestIDKey, ev.requestID)
		}
		if ev.err != nil {
			hub.CaptureException(ev.err)
			return
		}
		hub.CaptureMessage(record.Message)
	})
	return err
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make([]slog.Attr, 0, len(h.bound)+len(attrs))
	bound = append(bound, h.bound...)
	bound = append(bound, attrs...)
	return &sentryHandler{next: h.next.WithAttrs(attrs), bound: bound}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{next: h.next.WithGroup(name), bound: h.bound}
}

// eventFields collects what one error record contributes to a Sentry event.
// The first error-valued attribute becomes the captured exception.
type eventFields struct {
	extras    map[string]any
	err       error
	requestID string
}

func (e *eventFields) add(a slog.Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == requestIDKey {
		e.requestID = a.Value.String()
	}
	e.extras[a.Key] = e.value(a.Value.Resolve())
}

func (e *eventFields) value(v slog.Value) any {
	switch v.Kind() {
	case slog.KindAny:
		raw := v.Any()
		if err, ok := raw.(error); ok {
			if e.err == nil {
				e.err = err
			}
			return err.Error()
		}
		return raw
	case slog.KindGroup:
		group := map[string]any{}
		for _, a := range v.Group() {
			if a.Key != "" {
				group[a.Key] = e.value(a.Value.Resolve())
			}
		}
		return group
	default:
		return v.Any()
	}
}
