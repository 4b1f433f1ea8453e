package coordinator

import (
	"context"
	"time"

	"eldcore/internal/hos/models"
)

// EventStore is the append-only per-driver log and the source of truth.
type EventStore interface {
	// Append assigns latest+1 when ev carries no sequence number and returns the stored number.
	Append(ctx context.Context, ev models.DutyStatusEvent) (int64, error)
	ReadSince(ctx context.Context, driverID models.DriverID, afterSeq int64) ([]models.DutyStatusEvent, error)
	LatestSequence(ctx context.Context, driverID models.DriverID) (int64, error)
	// ReadRange returns the events timestamped within [start, end], newest first.
	ReadRange(ctx context.Context, driverID models.DriverID, start, end time.Time) ([]models.DutyStatusEvent, error)
}

// StatusCache holds disposable projections. Freshness is decided by the coordinator.
type StatusCache interface {
	Get(ctx context.Context, driverID models.DriverID) (models.StatusProjection, bool, error)
	Put(ctx context.Context, driverID models.DriverID, proj models.StatusProjection) error
	Invalidate(ctx context.Context, driverID models.DriverID) error
}

// ViolationLog is the append-only record of violation lifecycle changes.
type ViolationLog interface {
	Append(ctx context.Context, vs []models.Violation) error
	ListByDriver(ctx context.Context, driverID models.DriverID, since time.Time) ([]models.Violation, error)
}

// Notifier surfaces newly recorded violations to collaborators. It must not block.
type Notifier interface {
	Notify(ctx context.Context, vs []models.Violation)
}
