package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful for development when you want to see router events in console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.Channel != "" {
		attrs = append(attrs, slog.String("channel", event.Channel))
	}
	if event.Protocol != "" {
		attrs = append(attrs, slog.String("protocol", event.Protocol))
	}

	switch {
	case event.Registry != nil:
		attrs = append(attrs,
			slog.String("action", event.Registry.Action.String()),
			slog.String("plugin", event.Registry.Plugin),
		)
		if event.Registry.Path != "" {
			attrs = append(attrs, slog.String("path", event.Registry.Path))
		}
		if event.Registry.Mode != "" {
			attrs = append(attrs, slog.String("mode", event.Registry.Mode))
		}
		if event.Registry.Owner != "" {
			attrs = append(attrs, slog.String("owner", event.Registry.Owner))
		}
		if event.Registry.Action == ActionUnregisterAll {
			attrs = append(attrs, slog.Int("occurrences", event.Registry.Occurrences))
		}
	case event.Dispatch != nil:
		attrs = append(attrs,
			slog.String("request_id", event.Dispatch.RequestID),
			slog.String("uri", event.Dispatch.URI),
			slog.Int("status", event.Dispatch.Status),
		)
		if event.Dispatch.Method != "" {
			attrs = append(attrs, slog.String("method", event.Dispatch.Method))
		}
		if event.Dispatch.Plugin != "" {
			attrs = append(attrs, slog.String("plugin", event.Dispatch.Plugin))
		}
		if event.Dispatch.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Dispatch.ProcessingTime))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), a.level, "event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
