// Package coordinator runs the per-driver compliance pipeline: durable append, state
// reduction, rule evaluation, cache write-through and violation recording.
//
// Every write for a driver is serialized behind that driver's lock; reads take the same
// lock shared, so a status read never observes a projection older than a completed write.
// Drivers never contend with each other.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"eldcore/internal/hos/metrics"
	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
	"eldcore/internal/hos/rules"
	"eldcore/internal/hos/statemachine"
)

const (
	defaultPersistTimeout = 5 * time.Second
	tracerName            = "eldcore/internal/hos/coordinator"
)

// Outcome is the result of an accepted event.
type Outcome struct {
	Sequence int64
	State    models.DriverDutyState
	Budget   models.RegulatoryBudget
	// NewViolations lists the violation records appended while processing the event.
	NewViolations []models.Violation
}

type Coordinator struct {
	events     EventStore
	cache      StatusCache
	violations ViolationLog
	notifier   Notifier

	machine *statemachine.Machine
	engine  *rules.Engine

	locks    *driverLocks
	rebuilds singleflight.Group

	persistTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithPersistTimeout bounds each durable append. Non-positive values keep the default.
func WithPersistTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.persistTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = t
	}
}

func New(events EventStore, cache StatusCache, violations ViolationLog, ruleSet regulation.RuleSet, opts ...Option) (*Coordinator, error) {
	if events == nil {
		return nil, errors.New("event store is required")
	}
	if cache == nil {
		return nil, errors.New("status cache is required")
	}
	if violations == nil {
		return nil, errors.New("violation log is required")
	}
	if err := ruleSet.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}

	c := &Coordinator{
		events:         events,
		cache:          cache,
		violations:     violations,
		notifier:       nopNotifier{},
		machine:        statemachine.New(ruleSet),
		engine:         rules.New(ruleSet),
		locks:          newDriverLocks(),
		persistTimeout: defaultPersistTimeout,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Rules returns the rule set the coordinator evaluates.
func (c *Coordinator) Rules() regulation.RuleSet {
	return c.engine.Rules()
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, []models.Violation) {}
