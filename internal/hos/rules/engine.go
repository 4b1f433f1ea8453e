// Package rules evaluates the regulatory rules over a driver's effective history.
//
// Resets are derived once per evaluation and shared by every rule, so a single rest that
// restarts several windows is applied to all of them in the same pass. Evaluation never
// fails on ordered input: an empty history yields the configured maximums.
package rules

import (
	"sort"
	"time"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
	"eldcore/internal/hos/window"
)

// Input is one evaluation request.
type Input struct {
	DriverID models.DriverID
	// Intervals is the effective history, ordered and truncated at Now.
	Intervals []models.Interval
	Now       time.Time
	// SourceSequence is stamped on every produced violation.
	SourceSequence int64
}

// Result is the outcome of one evaluation.
type Result struct {
	Budget     models.RegulatoryBudget
	Violations []models.Violation
	// PeriodAnchor is where the current duty period started counting.
	PeriodAnchor time.Time
	// CycleStart is where the current cycle started counting.
	CycleStart time.Time
}

// Engine evaluates a fixed rule set.
type Engine struct {
	rules regulation.RuleSet
}

func New(rules regulation.RuleSet) *Engine {
	return &Engine{rules: rules}
}

func (e *Engine) Rules() regulation.RuleSet {
	return e.rules
}

// EvaluateEvents builds intervals from an effective event log and evaluates them.
// It fails only when events are unordered.
func (e *Engine) EvaluateEvents(driverID models.DriverID, effective []models.DutyStatusEvent, now time.Time, sourceSeq int64) (Result, error) {
	intervals, err := window.Intervals(effective, now)
	if err != nil {
		return Result{}, err
	}
	return e.Evaluate(Input{DriverID: driverID, Intervals: intervals, Now: now, SourceSequence: sourceSeq}), nil
}

// Evaluate computes budgets and violations as of in.Now.
func (e *Engine) Evaluate(in Input) Result {
	if len(in.Intervals) == 0 {
		return Result{Budget: e.maxima(in.Now), PeriodAnchor: in.Now, CycleStart: in.Now}
	}

	h := e.derive(in)
	var found []finding
	for _, p := range h.periods {
		found = append(found, e.drivingLimit(h, p)...)
		found = append(found, e.dutyWindow(h, p)...)
	}
	for _, seg := range h.breakSegments {
		found = append(found, e.mandatoryBreak(h, seg)...)
	}
	for _, c := range e.cycles() {
		for _, seg := range h.cycleSegments {
			found = append(found, cycleExcess(h, seg, c)...)
		}
	}

	violations := make([]models.Violation, 0, len(found))
	for _, f := range found {
		v := models.Violation{
			DriverID:       in.DriverID,
			RuleID:         f.rule,
			WindowStart:    f.start,
			WindowEnd:      f.end,
			DetectedAt:     in.Now,
			Severity:       models.SeverityFor(f.rule),
			Status:         models.ViolationActive,
			SourceSequence: in.SourceSequence,
		}
		if f.closed {
			v.Status = models.ViolationClosed
		}
		violations = append(violations, v.WithID())
	}
	sort.SliceStable(violations, func(i, j int) bool {
		if !violations[i].WindowStart.Equal(violations[j].WindowStart) {
			return violations[i].WindowStart.Before(violations[j].WindowStart)
		}
		return violations[i].RuleID < violations[j].RuleID
	})

	current := h.periods[len(h.periods)-1]
	return Result{
		Budget:       e.budget(h, current),
		Violations:   violations,
		PeriodAnchor: current.anchor,
		CycleStart:   h.cycleSegments[len(h.cycleSegments)-1].start,
	}
}

func (e *Engine) maxima(now time.Time) models.RegulatoryBudget {
	return models.RegulatoryBudget{
		RemainingDriveTime:  e.rules.DrivingLimit.Std(),
		RemainingDutyWindow: e.rules.DutyWindow.Std(),
		TimeToRequiredBreak: e.rules.BreakAfterDriving.Std(),
		RemainingCycleHours: e.maxCycle(),
		AsOf:                now,
	}
}

func (e *Engine) maxCycle() time.Duration {
	var best time.Duration = -1
	for _, c := range e.cycles() {
		if best < 0 || c.limit < best {
			best = c.limit
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func (e *Engine) budget(h *history, current dutyPeriod) models.RegulatoryBudget {
	b := models.RegulatoryBudget{AsOf: h.now}

	b.RemainingDriveTime = clamp(e.rules.DrivingLimit.Std() - h.driving.Between(current.anchor, h.now))

	if expiry, ok := e.expiry(h, current); ok {
		b.RemainingDutyWindow = clamp(expiry.Sub(h.now))
	} else {
		b.RemainingDutyWindow = e.rules.DutyWindow.Std()
	}

	lastBreak := h.breakSegments[len(h.breakSegments)-1]
	b.TimeToRequiredBreak = clamp(e.rules.BreakAfterDriving.Std() - h.driving.Between(lastBreak.start, h.now))

	seg := h.cycleSegments[len(h.cycleSegments)-1]
	b.RemainingCycleHours = -1
	for _, c := range e.cycles() {
		rem := clamp(c.limit - rolling(h.onDuty, seg, c.window, h.now))
		if b.RemainingCycleHours < 0 || rem < b.RemainingCycleHours {
			b.RemainingCycleHours = rem
		}
	}
	if b.RemainingCycleHours < 0 {
		b.RemainingCycleHours = 0
	}
	return b
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
