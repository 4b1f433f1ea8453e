// Package export streams the audit trail for the reporting layer.
//
// Records are ordered by (driver, sequence number). Violation records follow the event
// whose processing produced them, numbered by Ordinal within that sequence. Every record
// carries a Cursor; passing it back to Records resumes right after that record.
package export

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"eldcore/internal/hos/models"
	dErrors "eldcore/pkg/domain-errors"
)

const defaultPageSize = 500

// Kind tells which payload a Record carries.
type Kind string

const (
	KindEvent     Kind = "event"
	KindViolation Kind = "violation"
)

// EventSource reads drivers and their logs.
type EventSource interface {
	ListDrivers(ctx context.Context, after models.DriverID, limit int) ([]models.DriverID, error)
	ReadSince(ctx context.Context, driverID models.DriverID, afterSeq int64) ([]models.DutyStatusEvent, error)
}

// ViolationSource reads recorded violations.
type ViolationSource interface {
	ListByDriver(ctx context.Context, driverID models.DriverID, since time.Time) ([]models.Violation, error)
}

// Record is one entry of the export.
type Record struct {
	Kind      Kind                    `json:"kind"`
	DriverID  models.DriverID         `json:"driver_id"`
	Sequence  int64                   `json:"sequence_number"`
	Ordinal   int                     `json:"ordinal"`
	Event     *models.DutyStatusEvent `json:"event,omitempty"`
	Violation *models.Violation       `json:"violation,omitempty"`
}

// Cursor returns the resume position just after r.
func (r Record) Cursor() Cursor {
	return Cursor{DriverID: r.DriverID, Sequence: r.Sequence, Ordinal: r.Ordinal}
}

// Cursor is a position in the export. The zero Cursor is the start.
type Cursor struct {
	DriverID models.DriverID
	Sequence int64
	Ordinal  int
}

func (c Cursor) IsZero() bool {
	return c == Cursor{}
}

// String renders the cursor as driver:sequence:ordinal.
func (c Cursor) String() string {
	if c.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", c.DriverID, c.Sequence, c.Ordinal)
}

// ParseCursor reads a cursor produced by Cursor.String. The numeric parts are taken from
// the right, so driver ids may contain colons.
func ParseCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	invalid := dErrors.Newf(dErrors.CodeInvalidInput, "invalid export cursor %q", s)

	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return Cursor{}, invalid
	}
	ordinal, err := strconv.Atoi(s[i+1:])
	if err != nil || ordinal < 0 {
		return Cursor{}, invalid
	}
	rest := s[:i]
	j := strings.LastIndexByte(rest, ':')
	if j <= 0 {
		return Cursor{}, invalid
	}
	seq, err := strconv.ParseInt(rest[j+1:], 10, 64)
	if err != nil || seq < 0 {
		return Cursor{}, invalid
	}
	driverID, err := models.ParseDriverID(rest[:j])
	if err != nil {
		return Cursor{}, invalid
	}
	return Cursor{DriverID: driverID, Sequence: seq, Ordinal: ordinal}, nil
}

// after reports whether the record position (seq, ordinal) of the cursor's driver lies
// beyond c.
func (c Cursor) after(seq int64, ordinal int) bool {
	if seq != c.Sequence {
		return seq > c.Sequence
	}
	return ordinal > c.Ordinal
}

// Exporter pages through every driver's audit trail.
type Exporter struct {
	events     EventSource
	violations ViolationSource
	pageSize   int
}

type Option func(*Exporter)

// WithPageSize sets how many drivers are listed per page.
func WithPageSize(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

func NewExporter(events EventSource, violations ViolationSource, opts ...Option) *Exporter {
	e := &Exporter{events: events, violations: violations, pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Records yields the records after the cursor. Iteration stops at the first error, which
// is yielded with a zero Record.
func (e *Exporter) Records(ctx context.Context, after Cursor) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if !after.IsZero() {
			if !e.driver(ctx, after.DriverID, after, yield) {
				return
			}
		}
		last := after.DriverID
		for {
			ids, err := e.events.ListDrivers(ctx, last, e.pageSize)
			if err != nil {
				yield(Record{}, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "cannot list drivers"))
				return
			}
			for _, id := range ids {
				if !e.driver(ctx, id, Cursor{}, yield) {
					return
				}
				last = id
			}
			if len(ids) < e.pageSize {
				return
			}
		}
	}
}

// Driver yields one driver's records after the cursor position.
func (e *Exporter) Driver(ctx context.Context, driverID models.DriverID, after Cursor) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		e.driver(ctx, driverID, after, yield)
	}
}

func (e *Exporter) driver(ctx context.Context, driverID models.DriverID, after Cursor, yield func(Record, error) bool) bool {
	if err := ctx.Err(); err != nil {
		yield(Record{}, dErrors.Wrap(err, dErrors.CodeTimeout, "export cancelled"))
		return false
	}
	from := after.Sequence - 1
	if from < 0 {
		from = 0
	}
	events, err := e.events.ReadSince(ctx, driverID, from)
	if err != nil {
		yield(Record{}, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "cannot read event log"))
		return false
	}
	violations, err := e.violations.ListByDriver(ctx, driverID, time.Time{})
	if err != nil {
		yield(Record{}, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "cannot read violation log"))
		return false
	}

	for _, r := range merge(driverID, events, violations) {
		if !after.after(r.Sequence, r.Ordinal) {
			continue
		}
		if !yield(r, nil) {
			return false
		}
	}
	return true
}

// merge interleaves violations after the event that produced them. Violations whose
// source event is not in events keep their own position by sequence.
func merge(driverID models.DriverID, events []models.DutyStatusEvent, violations []models.Violation) []Record {
	out := make([]Record, 0, len(events)+len(violations))
	for i := range events {
		ev := events[i]
		out = append(out, Record{Kind: KindEvent, DriverID: driverID, Sequence: ev.SequenceNumber, Event: &ev})
	}
	ordinals := make(map[int64]int)
	for i := range violations {
		v := violations[i]
		ordinals[v.SourceSequence]++
		out = append(out, Record{
			Kind:      KindViolation,
			DriverID:  driverID,
			Sequence:  v.SourceSequence,
			Ordinal:   ordinals[v.SourceSequence],
			Violation: &v,
		})
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		if a.Sequence != b.Sequence {
			if a.Sequence < b.Sequence {
				return -1
			}
			return 1
		}
		return a.Ordinal - b.Ordinal
	})
	return out
}
