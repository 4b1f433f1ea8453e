package rules

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
)

var t0 = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

type step struct {
	at     time.Duration
	status models.DutyStatus
}

type EngineSuite struct {
	suite.Suite
	rules  regulation.RuleSet
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.rules = regulation.Default()
	s.engine = New(s.rules)
}

func (s *EngineSuite) evaluate(now time.Duration, steps ...step) Result {
	events := make([]models.DutyStatusEvent, len(steps))
	for i, st := range steps {
		events[i] = models.DutyStatusEvent{
			DriverID:       "drv-1",
			SequenceNumber: int64(i + 1),
			Timestamp:      t0.Add(st.at),
			Status:         st.status,
		}
	}
	res, err := s.engine.EvaluateEvents("drv-1", events, t0.Add(now), int64(len(steps)))
	s.Require().NoError(err)
	return res
}

func byRule(res Result, rule models.RuleID) []models.Violation {
	var out []models.Violation
	for _, v := range res.Violations {
		if v.RuleID == rule {
			out = append(out, v)
		}
	}
	return out
}

func (s *EngineSuite) TestNoHistoryYieldsMaximums() {
	res := s.engine.Evaluate(Input{DriverID: "drv-1", Now: t0})

	s.Empty(res.Violations)
	s.Equal(11*time.Hour, res.Budget.RemainingDriveTime)
	s.Equal(14*time.Hour, res.Budget.RemainingDutyWindow)
	s.Equal(8*time.Hour, res.Budget.TimeToRequiredBreak)
	s.Equal(60*time.Hour, res.Budget.RemainingCycleHours)
	s.Equal(t0, res.Budget.AsOf)
}

func (s *EngineSuite) TestDrivingLimit() {
	s.Run("no violation at exactly the limit", func() {
		res := s.evaluate(11*time.Hour, step{0, models.StatusDriving})
		s.Empty(byRule(res, models.RuleDrivingLimit))
		s.Zero(res.Budget.RemainingDriveTime)
	})

	s.Run("violation one second past the limit", func() {
		res := s.evaluate(11*time.Hour+time.Second, step{0, models.StatusDriving})
		got := byRule(res, models.RuleDrivingLimit)
		s.Require().Len(got, 1)
		s.Equal(t0.Add(11*time.Hour), got[0].WindowStart)
		s.Equal(t0.Add(11*time.Hour+time.Second), got[0].WindowEnd)
		s.Equal(models.ViolationActive, got[0].Status)
		s.Equal(models.SeverityCritical, got[0].Severity)
		s.Equal(t0.Add(11*time.Hour+time.Second), got[0].DetectedAt)
		s.Equal(int64(1), got[0].SourceSequence)
	})

	s.Run("a qualifying reset closes the violation", func() {
		res := s.evaluate(24*time.Hour,
			step{0, models.StatusDriving},
			step{12 * time.Hour, models.StatusOffDuty},
		)
		got := byRule(res, models.RuleDrivingLimit)
		s.Require().Len(got, 1)
		s.Equal(models.ViolationClosed, got[0].Status)
		s.Equal(t0.Add(12*time.Hour), got[0].WindowEnd, "closed at the start of the reset")
		s.Equal(11*time.Hour, res.Budget.RemainingDriveTime)
	})
}

func (s *EngineSuite) TestTenHoursOffRestoresDriveTime() {
	res := s.evaluate(15*time.Hour,
		step{0, models.StatusDriving},
		step{5 * time.Hour, models.StatusOffDuty},
		step{15 * time.Hour, models.StatusDriving},
	)
	s.Equal(11*time.Hour, res.Budget.RemainingDriveTime)
	s.Equal(14*time.Hour, res.Budget.RemainingDutyWindow)
	s.Equal(t0.Add(15*time.Hour), res.PeriodAnchor)

	short := s.evaluate(15*time.Hour-time.Second,
		step{0, models.StatusDriving},
		step{5 * time.Hour, models.StatusOffDuty},
		step{15*time.Hour - time.Second, models.StatusDriving},
	)
	s.Equal(6*time.Hour, short.Budget.RemainingDriveTime, "a rest one second short does not reset")
}

func (s *EngineSuite) TestMandatoryBreak() {
	s.Run("eight hours of driving without a break", func() {
		at8 := s.evaluate(8*time.Hour, step{0, models.StatusDriving})
		s.Empty(byRule(at8, models.RuleMandatoryBreak))
		s.Zero(at8.Budget.TimeToRequiredBreak)

		past := s.evaluate(8*time.Hour+time.Second, step{0, models.StatusDriving})
		got := byRule(past, models.RuleMandatoryBreak)
		s.Require().Len(got, 1)
		s.Equal(t0.Add(8*time.Hour), got[0].WindowStart)
		s.Equal(models.SeverityWarning, got[0].Severity)
	})

	s.Run("thirty minutes on duty not driving at seven hours resets the accumulator", func() {
		res := s.evaluate(9*time.Hour,
			step{0, models.StatusDriving},
			step{7 * time.Hour, models.StatusOnDutyNotDriving},
			step{7*time.Hour + 30*time.Minute, models.StatusDriving},
		)
		s.Empty(byRule(res, models.RuleMandatoryBreak))
		s.Equal(8*time.Hour-90*time.Minute, res.Budget.TimeToRequiredBreak)
	})

	s.Run("a break one second short does not reset", func() {
		res := s.evaluate(9*time.Hour,
			step{0, models.StatusDriving},
			step{7 * time.Hour, models.StatusOnDutyNotDriving},
			step{7*time.Hour + 30*time.Minute - time.Second, models.StatusDriving},
		)
		got := byRule(res, models.RuleMandatoryBreak)
		s.Require().Len(got, 1)
		s.Equal(t0.Add(8*time.Hour+30*time.Minute-time.Second), got[0].WindowStart)
	})

	s.Run("a later break closes the violation", func() {
		res := s.evaluate(10*time.Hour,
			step{0, models.StatusDriving},
			step{9 * time.Hour, models.StatusOffDuty},
		)
		got := byRule(res, models.RuleMandatoryBreak)
		s.Require().Len(got, 1)
		s.Equal(models.ViolationClosed, got[0].Status)
		s.Equal(t0.Add(9*time.Hour), got[0].WindowEnd)
		s.Equal(8*time.Hour, res.Budget.TimeToRequiredBreak)
	})
}

func (s *EngineSuite) TestOnDutyWindow() {
	s.Run("on duty past fourteen hours", func() {
		res := s.evaluate(15*time.Hour,
			step{0, models.StatusOnDutyNotDriving},
			step{time.Hour, models.StatusDriving},
			step{4 * time.Hour, models.StatusOffDuty},
			step{9 * time.Hour, models.StatusDriving},
			step{13 * time.Hour, models.StatusOnDutyNotDriving},
		)
		got := byRule(res, models.RuleOnDutyWindow)
		s.Require().Len(got, 1)
		s.Equal(t0.Add(14*time.Hour), got[0].WindowStart)
		s.Zero(res.Budget.RemainingDutyWindow)
	})

	s.Run("resting past the expiry is not a breach", func() {
		res := s.evaluate(16*time.Hour,
			step{0, models.StatusOnDutyNotDriving},
			step{13 * time.Hour, models.StatusOffDuty},
		)
		s.Empty(byRule(res, models.RuleOnDutyWindow))
	})

	s.Run("window opens at the first on-duty instant", func() {
		res := s.evaluate(5*time.Hour,
			step{0, models.StatusOffDuty},
			step{2 * time.Hour, models.StatusOnDutyNotDriving},
		)
		s.Equal(11*time.Hour, res.Budget.RemainingDutyWindow)
	})
}

func (s *EngineSuite) TestSplitSleeper() {
	// Drive 5h, 7h sleeper, drive 5h, 3h off, drive again.
	steps := []step{
		{0, models.StatusDriving},
		{5 * time.Hour, models.StatusSleeperBerth},
		{12 * time.Hour, models.StatusDriving},
		{17 * time.Hour, models.StatusOffDuty},
		{20 * time.Hour, models.StatusDriving},
	}
	res := s.evaluate(21*time.Hour, steps...)

	s.Equal(t0.Add(12*time.Hour), res.PeriodAnchor, "period re-anchors at the end of the sleeper period")
	s.Equal(11*time.Hour-6*time.Hour, res.Budget.RemainingDriveTime)
	// Window opened at 12h and the 3h companion rest is excluded: expires at 29h.
	s.Equal(8*time.Hour, res.Budget.RemainingDutyWindow)
	s.Empty(byRule(res, models.RuleDrivingLimit))
	s.Empty(byRule(res, models.RuleOnDutyWindow))
}

func (s *EngineSuite) TestLongCycle() {
	rules := regulation.Default()
	rules.ShortCycle.Enabled = false
	s.engine = New(rules)

	var steps []step
	for day := 0; day < 8; day++ {
		start := time.Duration(day) * 24 * time.Hour
		steps = append(steps, step{start, models.StatusOnDutyNotDriving}, step{start + 10*time.Hour, models.StatusOffDuty})
	}

	s.Run("active while the rolling total exceeds the limit", func() {
		res := s.evaluate(170*time.Hour, steps[:15]...)
		got := byRule(res, models.RuleLongCycle)
		s.Require().Len(got, 1)
		s.Equal(t0.Add(168*time.Hour), got[0].WindowStart)
		s.Equal(models.ViolationActive, got[0].Status)
		s.Zero(res.Budget.RemainingCycleHours)
	})

	s.Run("closed when the oldest day rolls off", func() {
		res := s.evaluate(210*time.Hour, steps...)
		got := byRule(res, models.RuleLongCycle)
		s.Require().Len(got, 1)
		s.Equal(t0.Add(168*time.Hour), got[0].WindowStart)
		s.Equal(t0.Add(202*time.Hour), got[0].WindowEnd)
		s.Equal(models.ViolationClosed, got[0].Status)
	})

	s.Run("a 34 hour restart clears the cycle", func() {
		restart := append(append([]step{}, steps[:14]...), step{158 * time.Hour, models.StatusOnDutyNotDriving})
		// Days 0..6 end off duty at 154h; the on-duty step at 158h keeps the rest short of a restart.
		res := s.evaluate(159*time.Hour, restart...)
		s.Equal(time.Duration(0), res.Budget.RemainingCycleHours)

		full := append(append([]step{}, steps[:14]...), step{188 * time.Hour, models.StatusOnDutyNotDriving})
		res = s.evaluate(189*time.Hour, full...)
		s.Equal(69*time.Hour, res.Budget.RemainingCycleHours)
		s.Equal(t0.Add(188*time.Hour), res.CycleStart)
	})
}

func (s *EngineSuite) TestShortCycleMinimumWins() {
	var steps []step
	for day := 0; day < 6; day++ {
		start := time.Duration(day) * 24 * time.Hour
		steps = append(steps, step{start, models.StatusOnDutyNotDriving}, step{start + 10*time.Hour, models.StatusOffDuty})
	}
	res := s.evaluate(6*24*time.Hour, steps...)
	s.Zero(res.Budget.RemainingCycleHours, "60h in 7 days exhausts the short cycle")
	s.Empty(byRule(res, models.RuleShortCycle))
}

func (s *EngineSuite) TestSimultaneousResetAppliesToAllRules() {
	res := s.evaluate(60*time.Hour,
		step{0, models.StatusDriving},
		step{12 * time.Hour, models.StatusOffDuty},
	)
	for _, v := range res.Violations {
		s.Equal(models.ViolationClosed, v.Status, "rule %s", v.RuleID)
		s.Equal(t0.Add(12*time.Hour), v.WindowEnd, "rule %s", v.RuleID)
	}
	s.Equal(11*time.Hour, res.Budget.RemainingDriveTime)
	s.Equal(14*time.Hour, res.Budget.RemainingDutyWindow)
	s.Equal(8*time.Hour, res.Budget.TimeToRequiredBreak)
	s.Equal(60*time.Hour, res.Budget.RemainingCycleHours)
}

func (s *EngineSuite) TestIdempotentRecomputation() {
	steps := []step{
		{0, models.StatusOnDutyNotDriving},
		{time.Hour, models.StatusDriving},
		{10 * time.Hour, models.StatusOnDutyNotDriving},
		{10*time.Hour + 10*time.Minute, models.StatusDriving},
		{14 * time.Hour, models.StatusOffDuty},
	}
	first, err := json.Marshal(s.evaluate(16*time.Hour, steps...).Violations)
	s.Require().NoError(err)
	second, err := json.Marshal(s.evaluate(16*time.Hour, steps...).Violations)
	s.Require().NoError(err)

	s.NotEqual("null", string(first))
	s.Equal(string(first), string(second))
}

func (s *EngineSuite) TestViolationsAreOrdered() {
	res := s.evaluate(16*time.Hour, step{0, models.StatusDriving})
	s.Require().Len(res.Violations, 3)
	s.Equal(models.RuleMandatoryBreak, res.Violations[0].RuleID)
	s.Equal(models.RuleDrivingLimit, res.Violations[1].RuleID)
	s.Equal(models.RuleOnDutyWindow, res.Violations[2].RuleID)
}
