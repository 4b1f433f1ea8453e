package handler

import (
	"strings"
	"time"

	"eldcore/internal/hos/coordinator"
	"eldcore/internal/hos/models"
	dErrors "eldcore/pkg/domain-errors"
)

// SubmitEventRequest is the body of POST /drivers/{driverID}/events.
// SequenceNumber may be omitted to let the log assign the next one.
type SubmitEventRequest struct {
	SequenceNumber int64              `json:"sequence_number,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Status         string             `json:"status,omitempty"`
	Source         string             `json:"source,omitempty"`
	Correction     *CorrectionRequest `json:"correction,omitempty"`
}

type CorrectionRequest struct {
	Sequence   int64  `json:"sequence"`
	Status     string `json:"status,omitempty"`
	Void       bool   `json:"void,omitempty"`
	Annotation string `json:"annotation"`
}

func (r SubmitEventRequest) toEvent(driverID models.DriverID) (models.DutyStatusEvent, error) {
	ev := models.DutyStatusEvent{
		DriverID:       driverID,
		SequenceNumber: r.SequenceNumber,
		Timestamp:      r.Timestamp,
		Source:         strings.TrimSpace(r.Source),
	}
	if r.Status != "" {
		status, err := models.ParseDutyStatus(r.Status)
		if err != nil {
			return models.DutyStatusEvent{}, err
		}
		ev.Status = status
	}
	if c := r.Correction; c != nil {
		ev.Correction = &models.Correction{
			Sequence:   c.Sequence,
			Void:       c.Void,
			Annotation: strings.TrimSpace(c.Annotation),
		}
		if c.Status != "" {
			status, err := models.ParseDutyStatus(c.Status)
			if err != nil {
				return models.DutyStatusEvent{}, err
			}
			ev.Correction.Status = status
		}
	}
	if ev.Status == "" && ev.Correction == nil {
		return models.DutyStatusEvent{}, dErrors.New(dErrors.CodeInvalidInput, "status or correction is required")
	}
	return ev, nil
}

// BudgetResponse renders remaining allowances in whole seconds.
type BudgetResponse struct {
	RemainingDriveSeconds      int64     `json:"remaining_drive_seconds"`
	RemainingDutyWindowSeconds int64     `json:"remaining_duty_window_seconds"`
	TimeToRequiredBreakSeconds int64     `json:"time_to_required_break_seconds"`
	RemainingCycleSeconds      int64     `json:"remaining_cycle_seconds"`
	AsOf                       time.Time `json:"as_of"`
}

func toBudgetResponse(b models.RegulatoryBudget) BudgetResponse {
	return BudgetResponse{
		RemainingDriveSeconds:      seconds(b.RemainingDriveTime),
		RemainingDutyWindowSeconds: seconds(b.RemainingDutyWindow),
		TimeToRequiredBreakSeconds: seconds(b.TimeToRequiredBreak),
		RemainingCycleSeconds:      seconds(b.RemainingCycleHours),
		AsOf:                       b.AsOf,
	}
}

// seconds truncates toward zero so a budget is never overstated.
func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// StateResponse is the externally visible part of the reduced state.
type StateResponse struct {
	DriverID              string     `json:"driver_id"`
	CurrentStatus         string     `json:"current_status,omitempty"`
	CurrentStatusSince    *time.Time `json:"current_status_since,omitempty"`
	CycleStartTimestamp   *time.Time `json:"cycle_start_timestamp,omitempty"`
	LastQualifyingRestEnd *time.Time `json:"last_qualifying_rest_end,omitempty"`
	LastSequence          int64      `json:"last_sequence"`
}

func toStateResponse(s models.DriverDutyState) StateResponse {
	return StateResponse{
		DriverID:              s.DriverID.String(),
		CurrentStatus:         s.CurrentStatus.String(),
		CurrentStatusSince:    timePtr(s.CurrentStatusSince),
		CycleStartTimestamp:   timePtr(s.CycleStartTimestamp),
		LastQualifyingRestEnd: timePtr(s.LastQualifyingRestEnd),
		LastSequence:          s.LastSequence,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type SubmitEventResponse struct {
	SequenceNumber int64              `json:"sequence_number"`
	State          StateResponse      `json:"state"`
	Budget         BudgetResponse     `json:"budget"`
	NewViolations  []models.Violation `json:"new_violations"`
}

func toSubmitEventResponse(o coordinator.Outcome) SubmitEventResponse {
	return SubmitEventResponse{
		SequenceNumber: o.Sequence,
		State:          toStateResponse(o.State),
		Budget:         toBudgetResponse(o.Budget),
		NewViolations:  nonNil(o.NewViolations),
	}
}

type StatusResponse struct {
	State          StateResponse      `json:"state"`
	Budget         BudgetResponse     `json:"budget"`
	Violations     []models.Violation `json:"violations"`
	SourceSequence int64              `json:"source_sequence"`
}

func toStatusResponse(p models.StatusProjection) StatusResponse {
	return StatusResponse{
		State:          toStateResponse(p.State),
		Budget:         toBudgetResponse(p.Budget),
		Violations:     nonNil(p.Violations),
		SourceSequence: p.SourceSequence,
	}
}

type ViolationsResponse struct {
	Violations []models.Violation `json:"violations"`
}

// EventsResponse lists logged events as recorded, corrections included.
type EventsResponse struct {
	Events []models.DutyStatusEvent `json:"events"`
}

// nonNil keeps empty lists rendered as [] rather than null.
func nonNil[T any](vs []T) []T {
	if vs == nil {
		return []T{}
	}
	return vs
}
