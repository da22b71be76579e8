package logger

import (
	"context"
	"log/slog"
	"time"
)

// Record is the information handed to an event hook.
type Record struct {
	Time       time.Time
	Message    string
	Level      Level
	Attributes map[string]any
}

// EventFn is invoked for a written record.
type EventFn func(ctx context.Context, r Record)

// Events holds optional hooks per level.
type Events struct {
	Debug EventFn
	Info  EventFn
	Warn  EventFn
	Error EventFn
}

type eventHandler struct {
	slog.Handler
	events Events
}

func newEventHandler(h slog.Handler, events Events) *eventHandler {
	return &eventHandler{Handler: h, events: events}
}

func (h *eventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &eventHandler{Handler: h.Handler.WithAttrs(attrs), events: h.events}
}

func (h *eventHandler) WithGroup(name string) slog.Handler {
	return &eventHandler{Handler: h.Handler.WithGroup(name), events: h.events}
}

func (h *eventHandler) Handle(ctx context.Context, r slog.Record) error {
	var fn EventFn
	switch {
	case r.Level >= slog.LevelError:
		fn = h.events.Error
	case r.Level >= slog.LevelWarn:
		fn = h.events.Warn
	case r.Level >= slog.LevelInfo:
		fn = h.events.Info
	default:
		fn = h.events.Debug
	}

	if fn != nil {
		fn(ctx, toRecord(r))
	}

	return h.Handler.Handle(ctx, r)
}

func toRecord(r slog.Record) Record {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	return Record{
		Time:       r.Time,
		Message:    r.Message,
		Level:      Level(r.Level),
		Attributes: attrs,
	}
}
