package violations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"eldcore/internal/hos/models"
	"eldcore/internal/platform/postgres"
	dErrors "eldcore/pkg/domain-errors"
	txcontext "eldcore/pkg/platform/tx"
)

// PostgresStore persists violation records in hos_violations. record_no preserves append order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const insertViolation = `
	INSERT INTO hos_violations (
		violation_id, driver_id, rule_id, window_start, window_end,
		detected_at, severity, status, supersedes, source_sequence
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (violation_id) DO NOTHING
`

// Append records all violations in one transaction. Duplicate IDs are ignored.
func (s *PostgresStore) Append(ctx context.Context, vs []models.Violation) error {
	if len(vs) == 0 {
		return nil
	}
	err := txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		for _, v := range vs {
			var supersedes uuid.NullUUID
			if v.Supersedes != nil {
				supersedes = uuid.NullUUID{UUID: *v.Supersedes, Valid: true}
			}
			_, err := s.execer(ctx).ExecContext(ctx, insertViolation,
				v.ID, string(v.DriverID), string(v.RuleID),
				v.WindowStart.UTC(), v.WindowEnd.UTC(), v.DetectedAt.UTC(),
				string(v.Severity), string(v.Status), supersedes, v.SourceSequence,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dErrors.Wrap(postgres.Classify(err), dErrors.CodeStorageUnavailable, "insert violations")
	}
	return nil
}

const selectViolations = `
	SELECT violation_id, driver_id, rule_id, window_start, window_end,
		detected_at, severity, status, supersedes, source_sequence
	FROM hos_violations
	WHERE driver_id = $1 AND detected_at >= $2
	ORDER BY record_no
`

// ListByDriver returns the driver's records detected at or after since, in append order.
func (s *PostgresStore) ListByDriver(ctx context.Context, driverID models.DriverID, since time.Time) ([]models.Violation, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectViolations, string(driverID), since.UTC())
	if err != nil {
		return nil, dErrors.Wrap(postgres.Classify(err), dErrors.CodeStorageUnavailable, "query violations")
	}
	defer rows.Close()

	var out []models.Violation
	for rows.Next() {
		var (
			v                        models.Violation
			driver, rule, sev, state string
			supersedes               uuid.NullUUID
		)
		if err := rows.Scan(&v.ID, &driver, &rule, &v.WindowStart, &v.WindowEnd,
			&v.DetectedAt, &sev, &state, &supersedes, &v.SourceSequence); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "scan violation")
		}
		v.DriverID = models.DriverID(driver)
		v.RuleID = models.RuleID(rule)
		v.Severity = models.Severity(sev)
		v.Status = models.ViolationStatus(state)
		v.WindowStart = v.WindowStart.UTC()
		v.WindowEnd = v.WindowEnd.UTC()
		v.DetectedAt = v.DetectedAt.UTC()
		if supersedes.Valid {
			id := supersedes.UUID
			v.Supersedes = &id
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(postgres.Classify(err), dErrors.CodeStorageUnavailable, "iterate violations")
	}
	return out, nil
}
