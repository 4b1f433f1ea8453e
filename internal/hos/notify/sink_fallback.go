package notify

import (
	"context"
	"io"
	"log/slog"

	"eldcore/internal/hos/metrics"
	"eldcore/internal/hos/models"
	"eldcore/pkg/platform/circuit"
)

// FallbackSink publishes to primary until its breaker opens, then diverts batches to
// fallback. While open, one batch per cooldown probes the primary.
type FallbackSink struct {
	primary  Sink
	fallback Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type FallbackOption func(*FallbackSink)

func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(s *FallbackSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithFallbackMetrics(m *metrics.Metrics) FallbackOption {
	return func(s *FallbackSink) {
		s.metrics = m
	}
}

func NewFallbackSink(primary, fallback Sink, breaker *circuit.Breaker, opts ...FallbackOption) *FallbackSink {
	s := &FallbackSink{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FallbackSink) Publish(ctx context.Context, batch []models.Violation) error {
	if !s.breaker.Allow() {
		return s.divert(ctx, batch)
	}

	if err := s.primary.Publish(ctx, batch); err != nil {
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.metrics.SetSinkCircuit(true)
			s.logger.WarnContext(ctx, "notification circuit opened",
				"sink", s.breaker.Name(),
				"error", err.Error(),
			)
		}
		if useFallback {
			return s.divert(ctx, batch)
		}
		return err
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.metrics.SetSinkCircuit(false)
		s.logger.InfoContext(ctx, "notification circuit closed", "sink", s.breaker.Name())
	}
	return nil
}

func (s *FallbackSink) divert(ctx context.Context, batch []models.Violation) error {
	s.metrics.IncNotifyFallback()
	return s.fallback.Publish(ctx, batch)
}
