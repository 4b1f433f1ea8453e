// Package notify forwards newly recorded violations to collaborators.
//
// Delivery is best effort. The violation log is the durable record, so a notification
// lost to a full buffer or a sink outage never loses a violation.
package notify

import (
	"context"
	"io"
	"log/slog"
	"time"

	"eldcore/internal/hos/metrics"
	"eldcore/internal/hos/models"
)

const finalFlushTimeout = 5 * time.Second

// Sink delivers a batch of violation records.
type Sink interface {
	Publish(ctx context.Context, batch []models.Violation) error
}

// Dispatcher buffers violations handed over by the coordinator and drains them to a
// Sink from a single goroutine started with Run.
type Dispatcher struct {
	buf        *RingBuffer
	sink       Sink
	batchSize  int
	flushEvery time.Duration
	wake       chan struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithBuffer sets the buffer capacity.
func WithBuffer(capacity int) Option {
	return func(d *Dispatcher) {
		d.buf = NewRingBuffer(capacity)
	}
}

// WithBatching sets the maximum batch size and the idle flush interval.
func WithBatching(size int, every time.Duration) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.batchSize = size
		}
		if every > 0 {
			d.flushEvery = every
		}
	}
}

func NewDispatcher(sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		buf:        NewRingBuffer(0),
		sink:       sink,
		batchSize:  64,
		flushEvery: time.Second,
		wake:       make(chan struct{}, 1),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify queues violations without blocking. The oldest queued record is dropped when
// the buffer is full.
func (d *Dispatcher) Notify(_ context.Context, violations []models.Violation) {
	if len(violations) == 0 {
		return
	}
	for _, v := range violations {
		if !d.buf.Enqueue(v) {
			d.metrics.IncNotifyDropped()
		}
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued records.
func (d *Dispatcher) Pending() int {
	return d.buf.Len()
}

// Run drains the buffer until ctx is cancelled, then makes one last bounded flush.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
			d.drain(flushCtx)
			cancel()
			return nil
		case <-d.wake:
			d.drain(ctx)
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		batch := d.buf.DequeueBatch(d.batchSize)
		if len(batch) == 0 {
			return
		}
		if err := d.sink.Publish(ctx, batch); err != nil {
			d.metrics.IncNotifyFailure()
			d.logger.ErrorContext(ctx, "failed to publish violations",
				"error", err,
				"count", len(batch),
			)
			return
		}
	}
}
