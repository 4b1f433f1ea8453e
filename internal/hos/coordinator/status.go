package coordinator

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/statemachine"
	dErrors "eldcore/pkg/domain-errors"
	"eldcore/pkg/requestcontext"
)

// GetCurrentStatus returns the driver's latest projection. A missing, stale or
// inconsistent cache entry is rebuilt from the event log before returning. Budget.AsOf
// tells when the budgets were last computed; EvaluateAt gives them for another instant.
func (c *Coordinator) GetCurrentStatus(ctx context.Context, driverID models.DriverID) (models.StatusProjection, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.GetCurrentStatus",
		trace.WithAttributes(attribute.String("driver_id", string(driverID))))
	defer span.End()

	driverID, err := models.ParseDriverID(string(driverID))
	if err != nil {
		return models.StatusProjection{}, err
	}

	unlock := c.locks.RLock(driverID)
	defer unlock()

	latest, err := c.events.LatestSequence(ctx, driverID)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "event log is unavailable")
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeStorageUnavailable))
		return models.StatusProjection{}, err
	}
	if proj, ok := c.cached(ctx, driverID, latest); ok {
		return proj, nil
	}

	proj, err := c.rebuild(ctx, driverID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return models.StatusProjection{}, err
	}
	return proj, nil
}

// rebuild recomputes the projection from genesis. Concurrent readers of the same driver
// share one rebuild.
func (c *Coordinator) rebuild(ctx context.Context, driverID models.DriverID) (models.StatusProjection, error) {
	v, err, _ := c.rebuilds.Do(string(driverID), func() (any, error) {
		ctx, span := c.tracer.Start(ctx, "coordinator.rebuild",
			trace.WithAttributes(attribute.String("driver_id", string(driverID))))
		defer span.End()

		log, err := c.readLog(ctx, driverID)
		if err != nil {
			return models.StatusProjection{}, err
		}
		proj, err := c.project(ctx, driverID, log)
		if err != nil {
			return models.StatusProjection{}, err
		}
		c.metrics.IncCacheRebuild()
		c.logger.DebugContext(ctx, "status projection rebuilt",
			"driver_id", string(driverID),
			"source_sequence", proj.SourceSequence,
		)
		return proj, nil
	})
	if err != nil {
		return models.StatusProjection{}, err
	}
	proj := v.(models.StatusProjection)
	proj.Violations = slices.Clone(proj.Violations)
	return proj, nil
}

// projection returns the projection after log from the cache or a rebuild. Callers hold
// the driver's write lock.
func (c *Coordinator) projection(ctx context.Context, driverID models.DriverID, log []models.DutyStatusEvent) (models.StatusProjection, error) {
	if proj, ok := c.cached(ctx, driverID, lastSequence(log)); ok {
		return proj, nil
	}
	return c.project(ctx, driverID, log)
}

// project replays and evaluates log at the request clock and writes the result to the cache.
func (c *Coordinator) project(ctx context.Context, driverID models.DriverID, log []models.DutyStatusEvent) (models.StatusProjection, error) {
	state, err := c.replay(driverID, log)
	if err != nil {
		return models.StatusProjection{}, err
	}
	proj, _, err := c.evaluate(ctx, driverID, log, state, requestcontext.Now(ctx), false)
	if err != nil {
		return models.StatusProjection{}, err
	}
	c.putCache(ctx, driverID, proj)
	return proj, nil
}

// EvaluateAt evaluates the driver's corrected history as of at without touching the cache
// or the violation log. Violations are those the evaluation finds, not recorded ones.
func (c *Coordinator) EvaluateAt(ctx context.Context, driverID models.DriverID, at time.Time) (models.StatusProjection, error) {
	driverID, err := models.ParseDriverID(string(driverID))
	if err != nil {
		return models.StatusProjection{}, err
	}
	if at.IsZero() {
		return models.StatusProjection{}, dErrors.New(dErrors.CodeInvalidInput, "evaluation instant is required")
	}
	at = at.UTC()

	unlock := c.locks.RLock(driverID)
	defer unlock()

	log, err := c.readLog(ctx, driverID)
	if err != nil {
		return models.StatusProjection{}, err
	}
	effective, err := statemachine.Effective(log)
	if err != nil {
		return models.StatusProjection{}, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored log cannot be replayed")
	}
	n, _ := slices.BinarySearchFunc(effective, at, func(ev models.DutyStatusEvent, t time.Time) int {
		if ev.Timestamp.After(t) {
			return 1
		}
		return -1
	})
	prefix := effective[:n]

	state, err := c.replay(driverID, prefix)
	if err != nil {
		return models.StatusProjection{}, err
	}
	seq := lastSequence(prefix)
	result, err := c.engine.EvaluateEvents(driverID, prefix, at, seq)
	if err != nil {
		return models.StatusProjection{}, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored log cannot be evaluated")
	}
	return models.StatusProjection{
		State:          state,
		Budget:         result.Budget,
		Violations:     openViolations(result.Violations, result.PeriodAnchor),
		SourceSequence: seq,
	}, nil
}

// ListViolations returns the driver's violation records detected at or after since, in
// the order they were recorded.
func (c *Coordinator) ListViolations(ctx context.Context, driverID models.DriverID, since time.Time) ([]models.Violation, error) {
	driverID, err := models.ParseDriverID(string(driverID))
	if err != nil {
		return nil, err
	}
	vs, err := c.violations.ListByDriver(ctx, driverID, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "violation log is unavailable")
	}
	return vs, nil
}

// ListEvents returns the driver's logged events, corrections included, timestamped within
// [start, end] inclusive, newest first.
func (c *Coordinator) ListEvents(ctx context.Context, driverID models.DriverID, start, end time.Time) ([]models.DutyStatusEvent, error) {
	driverID, err := models.ParseDriverID(string(driverID))
	if err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "start and end are required")
	}
	if start.After(end) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "start must not be after end")
	}
	// Stored timestamps are whole microseconds, so rounding the bounds inward keeps the
	// range exact on every backend.
	from := models.NormalizeTimestamp(start)
	if from.Before(start) {
		from = from.Add(models.TimestampPrecision)
	}
	to := models.NormalizeTimestamp(end)

	evs, err := c.events.ReadRange(ctx, driverID, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "event store is unavailable")
	}
	return evs, nil
}

// Invalidate evicts the driver's cache entry. The next read rebuilds it.
func (c *Coordinator) Invalidate(ctx context.Context, driverID models.DriverID) error {
	driverID, err := models.ParseDriverID(string(driverID))
	if err != nil {
		return err
	}
	unlock := c.locks.Lock(driverID)
	defer unlock()

	if err := c.cache.Invalidate(ctx, driverID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "status cache is unavailable")
	}
	return nil
}

// evaluate runs the rules over log as of asOf and reconciles the outcome with the
// violation log. Lifecycle changes are appended only when record is set.
func (c *Coordinator) evaluate(
	ctx context.Context,
	driverID models.DriverID,
	log []models.DutyStatusEvent,
	state models.DriverDutyState,
	asOf time.Time,
	record bool,
) (models.StatusProjection, []models.Violation, error) {
	seq := lastSequence(log)
	effective, err := statemachine.Effective(log)
	if err != nil {
		return models.StatusProjection{}, nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored log cannot be replayed")
	}
	result, err := c.engine.EvaluateEvents(driverID, effective, asOf, seq)
	if err != nil {
		return models.StatusProjection{}, nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored log cannot be evaluated")
	}

	proj := models.StatusProjection{
		State:          state,
		Budget:         result.Budget,
		SourceSequence: seq,
	}

	prior, err := c.violations.ListByDriver(ctx, driverID, time.Time{})
	if err != nil {
		c.logger.WarnContext(ctx, "violation log unavailable, serving evaluated violations",
			"driver_id", string(driverID),
			"error", err,
		)
		proj.Violations = openViolations(result.Violations, result.PeriodAnchor)
		return proj, nil, nil
	}

	appended, inEffect := reconcile(prior, result.Violations, asOf, seq)
	var recorded []models.Violation
	if record {
		recorded = c.record(ctx, driverID, appended)
	}
	proj.Violations = openViolations(inEffect, result.PeriodAnchor)
	return proj, recorded, nil
}

// cached returns the cache entry when it reflects exactly latest. An entry ahead of the
// log cannot be trusted and is evicted.
func (c *Coordinator) cached(ctx context.Context, driverID models.DriverID, latest int64) (models.StatusProjection, bool) {
	proj, found, err := c.cache.Get(ctx, driverID)
	if err != nil {
		c.logger.WarnContext(ctx, "status cache read failed",
			"driver_id", string(driverID),
			"error", err,
		)
		c.metrics.IncCacheMiss()
		return models.StatusProjection{}, false
	}
	switch {
	case !found:
		c.metrics.IncCacheMiss()
		return models.StatusProjection{}, false
	case proj.SourceSequence == latest:
		c.metrics.IncCacheHit()
		return proj, true
	case proj.SourceSequence > latest:
		c.metrics.IncCacheInconsistent()
		c.logger.ErrorContext(ctx, "status cache ahead of event log",
			"driver_id", string(driverID),
			"code", string(dErrors.CodeCacheInconsistency),
			"cached_sequence", proj.SourceSequence,
			"latest_sequence", latest,
		)
		c.invalidate(ctx, driverID)
		return models.StatusProjection{}, false
	default:
		c.metrics.IncCacheMiss()
		return models.StatusProjection{}, false
	}
}

func (c *Coordinator) putCache(ctx context.Context, driverID models.DriverID, proj models.StatusProjection) {
	if err := c.cache.Put(ctx, driverID, proj); err != nil {
		c.logger.WarnContext(ctx, "status cache write failed",
			"driver_id", string(driverID),
			"error", err,
		)
		c.invalidate(ctx, driverID)
	}
}

func (c *Coordinator) invalidate(ctx context.Context, driverID models.DriverID) {
	if err := c.cache.Invalidate(ctx, driverID); err != nil {
		c.logger.WarnContext(ctx, "status cache invalidation failed",
			"driver_id", string(driverID),
			"error", err,
		)
	}
}

func (c *Coordinator) readLog(ctx context.Context, driverID models.DriverID) ([]models.DutyStatusEvent, error) {
	log, err := c.events.ReadSince(ctx, driverID, 0)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "event log is unavailable")
	}
	return log, nil
}

func (c *Coordinator) replay(driverID models.DriverID, log []models.DutyStatusEvent) (models.DriverDutyState, error) {
	state, err := c.machine.Replay(driverID, log)
	if err != nil {
		return models.DriverDutyState{}, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored log cannot be replayed")
	}
	return state, nil
}
