package notify

import (
	"context"
	"log/slog"

	"eldcore/internal/hos/models"
)

// LogSink writes violations to the structured log. Used when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, batch []models.Violation) error {
	for _, v := range batch {
		s.logger.InfoContext(ctx, "violation recorded",
			"violation_id", v.ID.String(),
			"driver_id", string(v.DriverID),
			"rule_id", string(v.RuleID),
			"status", string(v.Status),
			"window_start", v.WindowStart,
			"window_end", v.WindowEnd,
		)
	}
	return nil
}
