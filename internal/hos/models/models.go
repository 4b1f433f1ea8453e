// Package models defines the duty-status facts and the projections derived from them.
package models

import (
	"strings"
	"time"
	"unicode"

	dErrors "eldcore/pkg/domain-errors"
)

// DutyStatus is one of the four legally recognized activity states.
type DutyStatus string

const (
	StatusOffDuty          DutyStatus = "OFF_DUTY"
	StatusSleeperBerth     DutyStatus = "SLEEPER_BERTH"
	StatusDriving          DutyStatus = "DRIVING"
	StatusOnDutyNotDriving DutyStatus = "ON_DUTY_NOT_DRIVING"
)

// ParseDutyStatus validates s against the closed set of statuses.
func ParseDutyStatus(s string) (DutyStatus, error) {
	status := DutyStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown duty status %q", s)
	}
	return status, nil
}

func (s DutyStatus) IsValid() bool {
	switch s {
	case StatusOffDuty, StatusSleeperBerth, StatusDriving, StatusOnDutyNotDriving:
		return true
	}
	return false
}

// IsOnDuty reports whether time in s counts toward on-duty totals.
func (s DutyStatus) IsOnDuty() bool {
	return s == StatusDriving || s == StatusOnDutyNotDriving
}

// IsRest reports whether time in s can form part of a qualifying reset.
func (s DutyStatus) IsRest() bool {
	return s == StatusOffDuty || s == StatusSleeperBerth
}

func (s DutyStatus) String() string {
	return string(s)
}

// DriverID identifies a driver. Drivers are independent of each other.
type DriverID string

const maxDriverIDLength = 128

// ParseDriverID trims and validates a raw driver identifier.
func ParseDriverID(s string) (DriverID, error) {
	id := strings.TrimSpace(s)
	if id == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "driver id is required")
	}
	if len(id) > maxDriverIDLength {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "driver id exceeds %d characters", maxDriverIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "driver id must not contain whitespace or control characters")
		}
	}
	return DriverID(id), nil
}

func (d DriverID) String() string {
	return string(d)
}

// Interval is a closed span [Start, End) spent in one status.
type Interval struct {
	Status DutyStatus `json:"status"`
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
}

func (i Interval) Duration() time.Duration {
	if !i.End.After(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Span is a plain time range [Start, End).
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s Span) Duration() time.Duration {
	if !s.End.After(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Overlap returns how much of s falls inside [from, to).
func (s Span) Overlap(from, to time.Time) time.Duration {
	start, end := s.Start, s.End
	if from.After(start) {
		start = from
	}
	if to.Before(end) {
		end = to
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// RestPeriod is a maximal run of consecutive rest statuses.
type RestPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// SleeperOnly is true when every moment of the run was spent in the sleeper berth.
	SleeperOnly bool `json:"sleeper_only"`
}

func (r RestPeriod) Duration() time.Duration {
	if !r.End.After(r.Start) {
		return 0
	}
	return r.End.Sub(r.Start)
}

func (r RestPeriod) Span() Span {
	return Span{Start: r.Start, End: r.End}
}
