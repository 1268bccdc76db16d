package logging

import (
	"context"
	"log/slog"
)

// Sink consumes events. Implementations must be safe for concurrent use.
type Sink interface {
	Write(event *Event) error
	Close() error
}

// LogSink mirrors events onto a slog logger at debug level.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(event *Event) error {
	attrs := []slog.Attr{slog.String("event", event.EventType)}
	if event.Component != "" {
		attrs = append(attrs, slog.String("component", event.Component))
	}
	if len(event.Data) > 0 {
		attrs = append(attrs, slog.String("data", string(event.Data)))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, event.Summary, attrs...)
	return nil
}

func (s *LogSink) Close() error { return nil }
