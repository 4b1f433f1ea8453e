package models

import (
	"time"

	dErrors "eldcore/pkg/domain-errors"
)

// TimestampPrecision is the resolution event timestamps are stored at. Postgres
// TIMESTAMPTZ keeps microseconds.
const TimestampPrecision = time.Microsecond

// NormalizeTimestamp returns t in UTC truncated to TimestampPrecision, the form every
// event store hands back.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}

// Correction amends an earlier event of the same driver. Exactly one of Void or Status applies.
type Correction struct {
	// Sequence is the sequence number of the amended event.
	Sequence   int64      `json:"sequence"`
	Status     DutyStatus `json:"status,omitempty"`
	Void       bool       `json:"void,omitempty"`
	Annotation string     `json:"annotation"`
}

// DutyStatusEvent is an immutable fact in a driver's log.
// A status change carries Status; a correction carries Correction and no Status.
type DutyStatusEvent struct {
	DriverID       DriverID    `json:"driver_id"`
	SequenceNumber int64       `json:"sequence_number"`
	Timestamp      time.Time   `json:"timestamp"`
	Status         DutyStatus  `json:"status,omitempty"`
	Source         string      `json:"source,omitempty"`
	Correction     *Correction `json:"correction,omitempty"`
}

// Normalized returns e with its timestamp in stored form.
func (e DutyStatusEvent) Normalized() DutyStatusEvent {
	e.Timestamp = NormalizeTimestamp(e.Timestamp)
	return e
}

func (e DutyStatusEvent) IsCorrection() bool {
	return e.Correction != nil
}

// Validate checks the event shape. Ordering against the log is checked by the state machine.
func (e DutyStatusEvent) Validate() error {
	if _, err := ParseDriverID(string(e.DriverID)); err != nil {
		return err
	}
	if e.SequenceNumber < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "sequence number must not be negative")
	}
	if e.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "timestamp is required")
	}
	if e.Correction == nil {
		if !e.Status.IsValid() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown duty status %q", e.Status)
		}
		return nil
	}

	c := e.Correction
	if e.Status != "" {
		return dErrors.New(dErrors.CodeInvalidInput, "a correction must not carry its own status")
	}
	if c.Sequence <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "correction must reference an earlier sequence number")
	}
	if e.SequenceNumber != 0 && c.Sequence >= e.SequenceNumber {
		return dErrors.New(dErrors.CodeInvalidInput, "correction must reference an earlier sequence number")
	}
	if c.Void == (c.Status != "") {
		return dErrors.New(dErrors.CodeInvalidInput, "correction must either void the event or restate its status")
	}
	if c.Status != "" && !c.Status.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown duty status %q", c.Status)
	}
	if c.Annotation == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "correction annotation is required")
	}
	return nil
}

// SameAs reports whether o carries the same payload, used to recognise retried submissions.
func (e DutyStatusEvent) SameAs(o DutyStatusEvent) bool {
	if e.DriverID != o.DriverID || e.SequenceNumber != o.SequenceNumber ||
		!e.Timestamp.Equal(o.Timestamp) || e.Status != o.Status || e.Source != o.Source {
		return false
	}
	if (e.Correction == nil) != (o.Correction == nil) {
		return false
	}
	return e.Correction == nil || *e.Correction == *o.Correction
}

// Before orders events by (timestamp, sequence number).
func (e DutyStatusEvent) Before(o DutyStatusEvent) bool {
	if !e.Timestamp.Equal(o.Timestamp) {
		return e.Timestamp.Before(o.Timestamp)
	}
	return e.SequenceNumber < o.SequenceNumber
}
