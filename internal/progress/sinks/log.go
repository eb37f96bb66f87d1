package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. It is useful
// during development or audits of a harvest run.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("name", evt.Name),
			zap.String("locator", evt.Locator),
			zap.Int64("bytes", evt.Bytes),
			zap.String("status_class", string(evt.StatusClass)),
			zap.String("kind", evt.Kind),
			zap.Duration("dur", evt.Dur),
			zap.Int("completed", evt.Completed),
			zap.Int("total", evt.Total),
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
