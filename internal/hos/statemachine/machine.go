// Package statemachine reduces a driver's ordered duty-status log into DriverDutyState.
//
// The machine is a pure reducer: Apply(state, event) returns the next state without side
// effects, so replaying the same log always yields the same state.
package statemachine

import (
	"time"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
	dErrors "eldcore/pkg/domain-errors"
)

// Machine applies status transitions under a rule set's reset semantics.
type Machine struct {
	rules regulation.RuleSet
}

func New(rules regulation.RuleSet) *Machine {
	return &Machine{rules: rules}
}

// Apply reduces one status event into state.
// Any two distinct statuses may follow each other; only time ordering is enforced.
func (m *Machine) Apply(state models.DriverDutyState, ev models.DutyStatusEvent) (models.DriverDutyState, error) {
	if ev.IsCorrection() {
		return state, dErrors.New(dErrors.CodeInvalidInput, "corrections are applied by rebuilding the effective log")
	}
	if !ev.Status.IsValid() {
		return state, dErrors.Newf(dErrors.CodeInvalidInput, "unknown duty status %q", ev.Status)
	}
	if state.IsGenesis() {
		return genesis(ev), nil
	}
	if ev.DriverID != state.DriverID {
		return state, dErrors.Newf(dErrors.CodeInvalidInput, "event for driver %s applied to state of %s", ev.DriverID, state.DriverID)
	}
	if !ev.Timestamp.After(state.CurrentStatusSince) {
		return state, dErrors.Newf(dErrors.CodeOutOfOrderEvent,
			"event at %s is not after current status since %s",
			ev.Timestamp.UTC().Format(timeLayout), state.CurrentStatusSince.UTC().Format(timeLayout))
	}
	if ev.SequenceNumber != 0 && ev.SequenceNumber <= state.LastSequence {
		return state, dErrors.Newf(dErrors.CodeOutOfOrderEvent,
			"sequence %d is not after %d", ev.SequenceNumber, state.LastSequence)
	}
	if ev.Status == state.CurrentStatus {
		return state, dErrors.Newf(dErrors.CodeRedundantStatus, "driver is already %s", ev.Status)
	}

	next := state
	next.CurrentStatus = ev.Status
	next.CurrentStatusSince = ev.Timestamp
	if ev.SequenceNumber != 0 {
		next.LastSequence = ev.SequenceNumber
	}

	wasResting := state.CurrentStatus.IsRest()
	switch {
	case wasResting && ev.Status.IsRest():
		// OFF_DUTY and SLEEPER_BERTH are one continuous rest.
		next.RestSleeperOnly = state.RestSleeperOnly && ev.Status == models.StatusSleeperBerth
	case wasResting:
		m.closeRest(&next, models.RestPeriod{
			Start:       state.RestStart,
			End:         ev.Timestamp,
			SleeperOnly: state.RestSleeperOnly,
		})
	case ev.Status.IsRest():
		next.RestStart = ev.Timestamp
		next.RestSleeperOnly = ev.Status == models.StatusSleeperBerth
	}
	return next, nil
}

func (m *Machine) closeRest(next *models.DriverDutyState, rest models.RestPeriod) {
	reset, ok, candidate := regulation.Classify(m.rules, next.SplitCandidate, rest)
	next.SplitCandidate = candidate
	next.RestStart = time.Time{}
	next.RestSleeperOnly = false
	if !ok {
		return
	}
	next.LastQualifyingRestEnd = reset.Anchor
	if reset.CycleRestart {
		next.CycleStartTimestamp = rest.End
	}
}

const timeLayout = time.RFC3339

func genesis(ev models.DutyStatusEvent) models.DriverDutyState {
	st := models.DriverDutyState{
		DriverID:            ev.DriverID,
		CurrentStatus:       ev.Status,
		CurrentStatusSince:  ev.Timestamp,
		CycleStartTimestamp: ev.Timestamp,
		LastSequence:        ev.SequenceNumber,
	}
	if ev.Status.IsRest() {
		st.RestStart = ev.Timestamp
		st.RestSleeperOnly = ev.Status == models.StatusSleeperBerth
	}
	return st
}

// Replay rebuilds state from genesis over a raw log that may contain corrections.
// LastSequence reflects the last entry of the raw log.
func (m *Machine) Replay(driverID models.DriverID, log []models.DutyStatusEvent) (models.DriverDutyState, error) {
	effective, err := Effective(log)
	if err != nil {
		return models.DriverDutyState{}, err
	}
	state := models.DriverDutyState{DriverID: driverID}
	for _, ev := range effective {
		state, err = m.Apply(state, ev)
		if err != nil {
			return models.DriverDutyState{}, err
		}
	}
	if n := len(log); n > 0 {
		state.LastSequence = log[n-1].SequenceNumber
	}
	return state, nil
}
