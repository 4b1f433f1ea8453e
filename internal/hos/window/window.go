// Package window computes elapsed time within time windows over an ordered duty-status log.
//
// Durations are time.Duration values (integer nanoseconds), so accumulation never drifts.
// The last event's status is assumed to persist until the reference instant.
package window

import (
	"time"

	"eldcore/internal/hos/models"
	dErrors "eldcore/pkg/domain-errors"
)

// Predicate selects the statuses a window accumulates.
type Predicate func(models.DutyStatus) bool

var (
	Driving    Predicate = func(s models.DutyStatus) bool { return s == models.StatusDriving }
	OnDuty     Predicate = models.DutyStatus.IsOnDuty
	Resting    Predicate = models.DutyStatus.IsRest
	NotDriving Predicate = func(s models.DutyStatus) bool { return s != models.StatusDriving }
)

// Duration returns the time spent satisfying pred within the window of width w ending at now.
func Duration(events []models.DutyStatusEvent, now time.Time, w time.Duration, pred Predicate) (time.Duration, error) {
	if w <= 0 {
		return 0, dErrors.Newf(dErrors.CodeInvalidWindow, "window width must be positive, got %s", w)
	}
	intervals, err := Intervals(events, now)
	if err != nil {
		return 0, err
	}
	return NewTimeline(intervals).Accumulate(pred).Between(now.Add(-w), now), nil
}

// CheckOrder fails with UnsortedInput unless events are ordered by (timestamp, sequence number)
// with no repeated sequence number.
func CheckOrder(events []models.DutyStatusEvent) error {
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if !prev.Before(cur) || prev.SequenceNumber >= cur.SequenceNumber {
			return dErrors.Newf(dErrors.CodeUnsortedInput,
				"event %d (seq %d) is not ordered after seq %d", i, cur.SequenceNumber, prev.SequenceNumber)
		}
	}
	return nil
}

// Intervals converts status events into closed intervals ending no later than now.
// Corrections are skipped; callers pass the effective log.
func Intervals(events []models.DutyStatusEvent, now time.Time) ([]models.Interval, error) {
	if err := CheckOrder(events); err != nil {
		return nil, err
	}
	out := make([]models.Interval, 0, len(events))
	var open *models.Interval
	for _, ev := range events {
		if ev.IsCorrection() {
			continue
		}
		if !ev.Timestamp.Before(now) {
			break
		}
		if open != nil {
			open.End = ev.Timestamp
			out = append(out, *open)
		}
		open = &models.Interval{Status: ev.Status, Start: ev.Timestamp}
	}
	if open != nil {
		open.End = now
		out = append(out, *open)
	}
	return out, nil
}
