package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eldcore/internal/hos/models"
	"eldcore/internal/platform/postgres"
	dErrors "eldcore/pkg/domain-errors"
	"eldcore/pkg/platform/sentinel"
	txcontext "eldcore/pkg/platform/tx"
)

// PostgresStore persists the event log in duty_status_events.
// (driver_id, sequence_number) is the primary key, so a retried append cannot duplicate an event.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const insertEvent = `
	INSERT INTO duty_status_events (
		driver_id, sequence_number, status, event_timestamp, source,
		correction_target, correction_status, correction_void, annotation
	)
	SELECT $1::text, $2::bigint, $3::text, $4::timestamptz, $5::text,
		$6::bigint, $7::text, $8::boolean, $9::text
	WHERE NOT EXISTS (
		SELECT 1 FROM duty_status_events WHERE driver_id = $1 AND sequence_number >= $2
	)
`

// Append adds ev to the driver's log. A zero sequence number is assigned as latest+1.
func (s *PostgresStore) Append(ctx context.Context, ev models.DutyStatusEvent) (int64, error) {
	seq := ev.SequenceNumber
	if seq == 0 {
		latest, err := s.LatestSequence(ctx, ev.DriverID)
		if err != nil {
			return 0, err
		}
		seq = latest + 1
	}

	var (
		status, corrStatus sql.NullString
		target             sql.NullInt64
		void               bool
		annotation         string
	)
	if ev.Status != "" {
		status = sql.NullString{String: string(ev.Status), Valid: true}
	}
	if c := ev.Correction; c != nil {
		target = sql.NullInt64{Int64: c.Sequence, Valid: true}
		if c.Status != "" {
			corrStatus = sql.NullString{String: string(c.Status), Valid: true}
		}
		void = c.Void
		annotation = c.Annotation
	}

	res, err := s.execer(ctx).ExecContext(ctx, insertEvent,
		string(ev.DriverID), seq, status, models.NormalizeTimestamp(ev.Timestamp), ev.Source,
		target, corrStatus, void, annotation,
	)
	if err != nil {
		return 0, storeError(err, "insert duty status event")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError(err, "insert duty status event")
	}
	if n == 0 {
		return 0, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeDuplicateSequence,
			fmt.Sprintf("sequence number %d already used for driver", seq))
	}
	return seq, nil
}

const selectColumns = `
	SELECT driver_id, sequence_number, status, event_timestamp, source,
		correction_target, correction_status, correction_void, annotation
	FROM duty_status_events
`

const selectEvents = selectColumns + `
	WHERE driver_id = $1 AND sequence_number > $2
	ORDER BY sequence_number
`

const selectRange = selectColumns + `
	WHERE driver_id = $1 AND event_timestamp BETWEEN $2 AND $3
	ORDER BY event_timestamp DESC, sequence_number DESC
`

// ReadSince returns the driver's events with a sequence number greater than afterSeq.
func (s *PostgresStore) ReadSince(ctx context.Context, driverID models.DriverID, afterSeq int64) ([]models.DutyStatusEvent, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectEvents, string(driverID), afterSeq)
	if err != nil {
		return nil, storeError(err, "query duty status events")
	}
	return scanEvents(rows)
}

// ReadRange returns the driver's events timestamped within [start, end], newest first.
func (s *PostgresStore) ReadRange(ctx context.Context, driverID models.DriverID, start, end time.Time) ([]models.DutyStatusEvent, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectRange, string(driverID), start.UTC(), end.UTC())
	if err != nil {
		return nil, storeError(err, "query duty status events in range")
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.DutyStatusEvent, error) {
	defer rows.Close()

	var out []models.DutyStatusEvent
	for rows.Next() {
		var (
			ev                 models.DutyStatusEvent
			driver             string
			status, corrStatus sql.NullString
			target             sql.NullInt64
			void               bool
			annotation         string
		)
		if err := rows.Scan(&driver, &ev.SequenceNumber, &status, &ev.Timestamp, &ev.Source,
			&target, &corrStatus, &void, &annotation); err != nil {
			return nil, storeError(err, "scan duty status event")
		}
		ev.DriverID = models.DriverID(driver)
		ev.Timestamp = ev.Timestamp.UTC()
		ev.Status = models.DutyStatus(status.String)
		if target.Valid {
			ev.Correction = &models.Correction{
				Sequence:   target.Int64,
				Status:     models.DutyStatus(corrStatus.String),
				Void:       void,
				Annotation: annotation,
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "iterate duty status events")
	}
	return out, nil
}

func (s *PostgresStore) LatestSequence(ctx context.Context, driverID models.DriverID) (int64, error) {
	var latest int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM duty_status_events WHERE driver_id = $1`,
		string(driverID),
	).Scan(&latest)
	if err != nil {
		return 0, storeError(err, "query latest sequence")
	}
	return latest, nil
}

// ListDrivers returns up to limit driver ids greater than after, in ascending order.
func (s *PostgresStore) ListDrivers(ctx context.Context, after models.DriverID, limit int) ([]models.DriverID, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT DISTINCT driver_id FROM duty_status_events
		WHERE driver_id > $1
		ORDER BY driver_id
		LIMIT $2
	`, string(after), limit)
	if err != nil {
		return nil, storeError(err, "query drivers")
	}
	defer rows.Close()

	var ids []models.DriverID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeError(err, "scan driver id")
		}
		ids = append(ids, models.DriverID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "iterate drivers")
	}
	return ids, nil
}

func storeError(err error, msg string) error {
	err = postgres.Classify(err)
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeDuplicateSequence, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, msg)
}
