package statemachine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
	dErrors "eldcore/pkg/domain-errors"
)

var t0 = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

type MachineSuite struct {
	suite.Suite
	machine *Machine
	seq     int64
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	s.machine = New(regulation.Default())
	s.seq = 0
}

func (s *MachineSuite) ev(offset time.Duration, status models.DutyStatus) models.DutyStatusEvent {
	s.seq++
	return models.DutyStatusEvent{
		DriverID:       "drv-1",
		SequenceNumber: s.seq,
		Timestamp:      t0.Add(offset),
		Status:         status,
	}
}

func (s *MachineSuite) correction(offset time.Duration, c models.Correction) models.DutyStatusEvent {
	s.seq++
	return models.DutyStatusEvent{
		DriverID:       "drv-1",
		SequenceNumber: s.seq,
		Timestamp:      t0.Add(offset),
		Correction:     &c,
	}
}

func (s *MachineSuite) applyAll(events ...models.DutyStatusEvent) models.DriverDutyState {
	var state models.DriverDutyState
	for _, ev := range events {
		next, err := s.machine.Apply(state, ev)
		s.Require().NoError(err)
		state = next
	}
	return state
}

func (s *MachineSuite) TestGenesis() {
	state := s.applyAll(s.ev(0, models.StatusOnDutyNotDriving))

	s.Equal(models.DriverID("drv-1"), state.DriverID)
	s.Equal(models.StatusOnDutyNotDriving, state.CurrentStatus)
	s.Equal(t0, state.CurrentStatusSince)
	s.Equal(t0, state.CycleStartTimestamp)
	s.True(state.LastQualifyingRestEnd.IsZero())
	s.Equal(int64(1), state.LastSequence)
}

func (s *MachineSuite) TestAnyDistinctTransitionIsLegal() {
	statuses := []models.DutyStatus{
		models.StatusOffDuty, models.StatusSleeperBerth, models.StatusDriving, models.StatusOnDutyNotDriving,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			if from == to {
				continue
			}
			s.Run(string(from)+"->"+string(to), func() {
				s.seq = 0
				state := s.applyAll(s.ev(0, from), s.ev(time.Hour, to))
				s.Equal(to, state.CurrentStatus)
				s.Equal(t0.Add(time.Hour), state.CurrentStatusSince)
			})
		}
	}
}

func (s *MachineSuite) TestOutOfOrderEvent() {
	state := s.applyAll(s.ev(time.Hour, models.StatusDriving))

	s.Run("earlier timestamp", func() {
		_, err := s.machine.Apply(state, s.ev(30*time.Minute, models.StatusOffDuty))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeOutOfOrderEvent))
	})

	s.Run("equal timestamp", func() {
		_, err := s.machine.Apply(state, s.ev(time.Hour, models.StatusOffDuty))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeOutOfOrderEvent))
	})

	s.Run("stale sequence", func() {
		ev := s.ev(2*time.Hour, models.StatusOffDuty)
		ev.SequenceNumber = state.LastSequence
		_, err := s.machine.Apply(state, ev)
		s.True(dErrors.HasCode(err, dErrors.CodeOutOfOrderEvent))
	})
}

func (s *MachineSuite) TestRedundantStatus() {
	state := s.applyAll(s.ev(0, models.StatusDriving))

	_, err := s.machine.Apply(state, s.ev(time.Hour, models.StatusDriving))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRedundantStatus))
}

func (s *MachineSuite) TestResetBoundary() {
	s.Run("exactly ten hours off duty qualifies", func() {
		s.seq = 0
		state := s.applyAll(
			s.ev(0, models.StatusDriving),
			s.ev(2*time.Hour, models.StatusOffDuty),
			s.ev(12*time.Hour, models.StatusDriving),
		)
		s.Equal(t0.Add(12*time.Hour), state.LastQualifyingRestEnd)
		s.True(state.RestStart.IsZero())
	})

	s.Run("one second less does not", func() {
		s.seq = 0
		state := s.applyAll(
			s.ev(0, models.StatusDriving),
			s.ev(2*time.Hour, models.StatusOffDuty),
			s.ev(12*time.Hour-time.Second, models.StatusDriving),
		)
		s.True(state.LastQualifyingRestEnd.IsZero())
	})

	s.Run("off duty and sleeper berth combine into one rest", func() {
		s.seq = 0
		state := s.applyAll(
			s.ev(0, models.StatusDriving),
			s.ev(2*time.Hour, models.StatusOffDuty),
			s.ev(5*time.Hour, models.StatusSleeperBerth),
			s.ev(12*time.Hour, models.StatusOnDutyNotDriving),
		)
		s.Equal(t0.Add(12*time.Hour), state.LastQualifyingRestEnd)
	})
}

func (s *MachineSuite) TestCycleRestart() {
	state := s.applyAll(
		s.ev(0, models.StatusDriving),
		s.ev(8*time.Hour, models.StatusOffDuty),
		s.ev(42*time.Hour, models.StatusDriving),
	)
	s.Equal(t0.Add(42*time.Hour), state.CycleStartTimestamp)
	s.Equal(t0.Add(42*time.Hour), state.LastQualifyingRestEnd)
}

func (s *MachineSuite) TestSplitSleeperReanchors() {
	state := s.applyAll(
		s.ev(0, models.StatusDriving),
		s.ev(5*time.Hour, models.StatusSleeperBerth),
		s.ev(12*time.Hour, models.StatusDriving),
	)
	s.True(state.LastQualifyingRestEnd.IsZero(), "a lone 7h sleeper period is not a reset")
	s.Require().NotNil(state.SplitCandidate)
	s.True(state.SplitCandidate.SleeperOnly)

	state, err := s.machine.Apply(state, s.ev(17*time.Hour, models.StatusOffDuty))
	s.Require().NoError(err)
	state, err = s.machine.Apply(state, s.ev(20*time.Hour, models.StatusDriving))
	s.Require().NoError(err)

	s.Equal(t0.Add(12*time.Hour), state.LastQualifyingRestEnd, "anchor moves to the end of the first rest")
}

func (s *MachineSuite) TestReplayDeterminism() {
	log := []models.DutyStatusEvent{
		s.ev(0, models.StatusOnDutyNotDriving),
		s.ev(30*time.Minute, models.StatusDriving),
		s.ev(5*time.Hour, models.StatusSleeperBerth),
		s.ev(12*time.Hour, models.StatusDriving),
		s.ev(16*time.Hour, models.StatusOffDuty),
		s.ev(19*time.Hour, models.StatusDriving),
		s.ev(23*time.Hour, models.StatusOffDuty),
		s.ev(60*time.Hour, models.StatusOnDutyNotDriving),
	}

	replayed, err := s.machine.Replay("drv-1", log)
	s.Require().NoError(err)

	// One event at a time, round-tripping through the cache encoding in between.
	var incremental models.DriverDutyState
	for _, ev := range log {
		next, err := s.machine.Apply(incremental, ev)
		s.Require().NoError(err)
		raw, err := json.Marshal(next)
		s.Require().NoError(err)
		incremental = models.DriverDutyState{}
		s.Require().NoError(json.Unmarshal(raw, &incremental))
	}

	s.True(replayed.CurrentStatusSince.Equal(incremental.CurrentStatusSince))
	s.True(replayed.LastQualifyingRestEnd.Equal(incremental.LastQualifyingRestEnd))
	s.True(replayed.CycleStartTimestamp.Equal(incremental.CycleStartTimestamp))
	s.Equal(replayed.CurrentStatus, incremental.CurrentStatus)
	s.Equal(replayed.LastSequence, incremental.LastSequence)

	again, err := s.machine.Replay("drv-1", log)
	s.Require().NoError(err)
	s.Equal(replayed, again)
}

func (s *MachineSuite) TestReplayAppliesCorrections() {
	log := []models.DutyStatusEvent{
		s.ev(0, models.StatusDriving),
		s.ev(2*time.Hour, models.StatusOnDutyNotDriving),
		s.ev(3*time.Hour, models.StatusOffDuty),
	}
	log = append(log, s.correction(4*time.Hour, models.Correction{
		Sequence: 2, Status: models.StatusOffDuty, Annotation: "was at the shipper's lounge",
	}))

	state, err := s.machine.Replay("drv-1", log)
	s.Require().NoError(err)
	s.Equal(models.StatusOffDuty, state.CurrentStatus)
	s.Equal(t0.Add(2*time.Hour), state.CurrentStatusSince, "restated status merges with the following rest")
	s.Equal(int64(4), state.LastSequence)
}

func (s *MachineSuite) TestApplyRejectsCorrections() {
	state := s.applyAll(s.ev(0, models.StatusDriving))
	_, err := s.machine.Apply(state, s.correction(time.Hour, models.Correction{Sequence: 1, Void: true, Annotation: "x"}))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *MachineSuite) TestEffective() {
	s.Run("void removes the event and collapses neighbours", func() {
		s.seq = 0
		log := []models.DutyStatusEvent{
			s.ev(0, models.StatusOffDuty),
			s.ev(time.Hour, models.StatusDriving),
			s.ev(2*time.Hour, models.StatusOffDuty),
		}
		log = append(log, s.correction(3*time.Hour, models.Correction{Sequence: 2, Void: true, Annotation: "test drive"}))

		got, err := Effective(log)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(int64(1), got[0].SequenceNumber)
		s.Equal(models.StatusOffDuty, got[0].Status)
	})

	s.Run("later correction wins", func() {
		s.seq = 0
		log := []models.DutyStatusEvent{
			s.ev(0, models.StatusOffDuty),
			s.ev(time.Hour, models.StatusDriving),
		}
		log = append(log,
			s.correction(2*time.Hour, models.Correction{Sequence: 2, Void: true, Annotation: "first"}),
			s.correction(3*time.Hour, models.Correction{Sequence: 2, Status: models.StatusOnDutyNotDriving, Annotation: "second"}),
		)

		got, err := Effective(log)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(models.StatusOnDutyNotDriving, got[1].Status)
		s.Equal(models.StatusDriving, log[1].Status, "the raw log is not mutated")
	})

	s.Run("unknown target", func() {
		s.seq = 0
		log := []models.DutyStatusEvent{s.ev(0, models.StatusOffDuty)}
		log = append(log, s.correction(time.Hour, models.Correction{Sequence: 9, Void: true, Annotation: "x"}))
		_, err := Effective(log)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
