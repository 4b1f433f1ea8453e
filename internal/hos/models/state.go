package models

import "time"

// DriverDutyState is the reduced projection of a driver's log.
type DriverDutyState struct {
	DriverID              DriverID   `json:"driver_id"`
	CurrentStatus         DutyStatus `json:"current_status"`
	CurrentStatusSince    time.Time  `json:"current_status_since"`
	CycleStartTimestamp   time.Time  `json:"cycle_start_timestamp"`
	LastQualifyingRestEnd time.Time  `json:"last_qualifying_rest_end,omitzero"`
	LastSequence          int64      `json:"last_sequence"`

	// RestStart is the start of the rest run in progress, zero while on duty.
	RestStart time.Time `json:"rest_start,omitzero"`
	// RestSleeperOnly tracks whether the run in progress was spent entirely in the sleeper berth.
	RestSleeperOnly bool `json:"rest_sleeper_only,omitempty"`
	// SplitCandidate is the last rest that could still pair into a split sleeper-berth reset.
	SplitCandidate *RestPeriod `json:"split_candidate,omitempty"`
}

// IsGenesis reports whether no event has been applied yet.
func (s DriverDutyState) IsGenesis() bool {
	return s.CurrentStatus == ""
}

// RegulatoryBudget holds the remaining allowances as of AsOf.
type RegulatoryBudget struct {
	RemainingDriveTime  time.Duration `json:"remaining_drive_time"`
	RemainingDutyWindow time.Duration `json:"remaining_duty_window"`
	TimeToRequiredBreak time.Duration `json:"time_to_required_break"`
	RemainingCycleHours time.Duration `json:"remaining_cycle_hours"`
	AsOf                time.Time     `json:"as_of"`
}

// StatusProjection is the unit served by the live status cache.
type StatusProjection struct {
	State  DriverDutyState  `json:"state"`
	Budget RegulatoryBudget `json:"budget"`
	// Violations lists violations still open or closed within the current duty period.
	Violations []Violation `json:"violations"`
	// SourceSequence is the latest log sequence this projection reflects.
	SourceSequence int64 `json:"source_sequence"`
}
