package coordinator

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eldcore/internal/hos/models"
	dErrors "eldcore/pkg/domain-errors"
	"eldcore/pkg/requestcontext"
)

const correctionLabel = "CORRECTION"

// SubmitEvent appends ev to the driver's log and returns the resulting state, budget and
// newly recorded violations. A retried event identical to the logged one at the same
// sequence number returns the current projection without appending again.
//
// Nothing is applied when the durable append fails; the error carries CodePersistence and
// the caller may retry.
func (c *Coordinator) SubmitEvent(ctx context.Context, ev models.DutyStatusEvent) (Outcome, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "coordinator.SubmitEvent", trace.WithAttributes(
		attribute.String("driver_id", string(ev.DriverID)),
		attribute.Int64("sequence_number", ev.SequenceNumber),
	))
	defer span.End()
	defer c.metrics.ObserveSubmit(start)

	out, err := c.submit(ctx, ev)
	if err != nil {
		code := dErrors.CodeOf(err)
		c.metrics.IncEventRejected(string(code))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		level := c.logger.WarnContext
		if !dErrors.IsValidation(err) {
			level = c.logger.ErrorContext
		}
		level(ctx, "duty status event rejected",
			"driver_id", string(ev.DriverID),
			"sequence_number", ev.SequenceNumber,
			"code", string(code),
			"error", err,
		)
		return Outcome{}, err
	}
	span.SetAttributes(attribute.Int64("assigned_sequence", out.Sequence))
	return out, nil
}

func (c *Coordinator) submit(ctx context.Context, ev models.DutyStatusEvent) (Outcome, error) {
	if err := ev.Validate(); err != nil {
		return Outcome{}, err
	}
	ev.DriverID, _ = models.ParseDriverID(string(ev.DriverID))
	// Evaluate the history the store will hand back on every later read.
	ev = ev.Normalized()

	unlock := c.locks.Lock(ev.DriverID)
	defer unlock()

	log, err := c.readLog(ctx, ev.DriverID)
	if err != nil {
		return Outcome{}, err
	}
	latest := lastSequence(log)

	if ev.SequenceNumber != 0 && ev.SequenceNumber <= latest {
		return c.retried(ctx, ev, log)
	}
	if n := len(log); n > 0 && ev.Timestamp.Before(log[n-1].Timestamp) {
		return Outcome{}, dErrors.Newf(dErrors.CodeOutOfOrderEvent,
			"event at %s precedes the last logged event at %s",
			ev.Timestamp.Format(time.RFC3339), log[n-1].Timestamp.Format(time.RFC3339))
	}
	if ev.SequenceNumber == 0 {
		ev.SequenceNumber = latest + 1
	}

	next, err := c.advance(ctx, ev, log)
	if err != nil {
		return Outcome{}, err
	}

	seq, err := c.persist(ctx, ev)
	if err != nil {
		return Outcome{}, err
	}
	ev.SequenceNumber = seq
	next.LastSequence = seq
	log = append(log, ev)

	asOf := requestcontext.Now(ctx)
	if ev.Timestamp.After(asOf) {
		asOf = ev.Timestamp
	}
	proj, recorded, err := c.evaluate(ctx, ev.DriverID, log, next, asOf, true)
	if err != nil {
		// The event is durable; the next read rebuilds from the log.
		c.invalidate(ctx, ev.DriverID)
		return Outcome{}, err
	}
	c.putCache(ctx, ev.DriverID, proj)

	label := string(ev.Status)
	if ev.IsCorrection() {
		label = correctionLabel
	}
	c.metrics.IncEventIngested(label)
	c.logger.InfoContext(ctx, "duty status event accepted",
		"driver_id", string(ev.DriverID),
		"sequence_number", seq,
		"status", label,
		"new_violations", len(recorded),
	)

	return Outcome{
		Sequence:      seq,
		State:         proj.State,
		Budget:        proj.Budget,
		NewViolations: recorded,
	}, nil
}

// advance computes the state after ev. Corrections rewrite history, so they replay the
// whole log; status events reduce the current state.
func (c *Coordinator) advance(ctx context.Context, ev models.DutyStatusEvent, log []models.DutyStatusEvent) (models.DriverDutyState, error) {
	if ev.IsCorrection() {
		return c.machine.Replay(ev.DriverID, append(slices.Clip(log), ev))
	}
	prev, err := c.stateFor(ctx, ev.DriverID, log)
	if err != nil {
		return models.DriverDutyState{}, err
	}
	return c.machine.Apply(prev, ev)
}

// stateFor returns the state after log, from a fresh cache entry when there is one.
func (c *Coordinator) stateFor(ctx context.Context, driverID models.DriverID, log []models.DutyStatusEvent) (models.DriverDutyState, error) {
	if proj, ok := c.cached(ctx, driverID, lastSequence(log)); ok {
		return proj.State, nil
	}
	return c.replay(driverID, log)
}

// retried handles an event whose sequence number is already logged.
func (c *Coordinator) retried(ctx context.Context, ev models.DutyStatusEvent, log []models.DutyStatusEvent) (Outcome, error) {
	i, found := slices.BinarySearchFunc(log, ev.SequenceNumber, func(logged models.DutyStatusEvent, seq int64) int {
		switch {
		case logged.SequenceNumber < seq:
			return -1
		case logged.SequenceNumber > seq:
			return 1
		}
		return 0
	})
	if !found || !log[i].SameAs(ev) {
		return Outcome{}, dErrors.Newf(dErrors.CodeDuplicateSequence,
			"sequence number %d is already used for this driver", ev.SequenceNumber)
	}

	proj, err := c.projection(ctx, ev.DriverID, log)
	if err != nil {
		return Outcome{}, err
	}
	c.logger.InfoContext(ctx, "duplicate submission acknowledged",
		"driver_id", string(ev.DriverID),
		"sequence_number", ev.SequenceNumber,
	)
	return Outcome{Sequence: ev.SequenceNumber, State: proj.State, Budget: proj.Budget}, nil
}

func (c *Coordinator) persist(ctx context.Context, ev models.DutyStatusEvent) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.persistTimeout)
	defer cancel()

	seq, err := c.events.Append(ctx, ev)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicateSequence) {
			return 0, err
		}
		return 0, dErrors.Wrap(err, dErrors.CodePersistence, "duty status event was not persisted")
	}
	return seq, nil
}

// record appends lifecycle changes and hands them to the notifier. A failed append is
// logged; the next evaluation derives the same records again.
func (c *Coordinator) record(ctx context.Context, driverID models.DriverID, appended []models.Violation) []models.Violation {
	if len(appended) == 0 {
		return nil
	}
	actx, cancel := context.WithTimeout(ctx, c.persistTimeout)
	defer cancel()
	if err := c.violations.Append(actx, appended); err != nil {
		c.logger.ErrorContext(ctx, "failed to record violations",
			"driver_id", string(driverID),
			"count", len(appended),
			"error", err,
		)
		return nil
	}
	for _, v := range appended {
		c.metrics.IncViolation(string(v.RuleID), string(v.Status))
		c.logger.InfoContext(ctx, "violation recorded",
			"driver_id", string(driverID),
			"violation_id", v.ID.String(),
			"rule_id", string(v.RuleID),
			"status", string(v.Status),
		)
	}
	c.notifier.Notify(ctx, appended)
	return appended
}

func lastSequence(log []models.DutyStatusEvent) int64 {
	if len(log) == 0 {
		return 0
	}
	return log[len(log)-1].SequenceNumber
}
