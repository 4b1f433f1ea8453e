package rules

import (
	"sort"
	"time"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/window"
)

// drivingLimit flags driving beyond the limit within one duty period.
func (e *Engine) drivingLimit(h *history, p dutyPeriod) []finding {
	limit := e.rules.DrivingLimit.Std()
	end := p.end(h.now)
	if h.driving.Between(p.anchor, end) <= limit {
		return nil
	}
	start, _ := h.driving.Reach(p.anchor, limit)
	return []finding{{rule: models.RuleDrivingLimit, start: start, end: end, closed: p.closed}}
}

// dutyWindow flags on-duty time after the period's window expired.
// Resting past the expiry is not a breach.
func (e *Engine) dutyWindow(h *history, p dutyPeriod) []finding {
	expiry, ok := e.expiry(h, p)
	if !ok {
		return nil
	}
	end := p.end(h.now)
	if h.onDuty.Between(expiry, end) == 0 {
		return nil
	}
	start, _ := h.onDuty.FirstFrom(expiry)
	return []finding{{rule: models.RuleOnDutyWindow, start: start, end: end, closed: p.closed}}
}

// expiry returns when the period's on-duty window closes. The window opens at the first
// on-duty instant and pauses during excluded split-sleeper rest that starts before it closes.
func (e *Engine) expiry(h *history, p dutyPeriod) (time.Time, bool) {
	first, ok := h.onDuty.FirstFrom(p.anchor)
	if !ok || !first.Before(p.end(h.now)) {
		return time.Time{}, false
	}
	expiry := first.Add(e.rules.DutyWindow.Std())
	for _, ex := range p.exclusions {
		if ex.Start.Before(expiry) {
			expiry = expiry.Add(ex.Overlap(first, ex.End))
		}
	}
	return expiry, true
}

// mandatoryBreak flags driving beyond the accumulation threshold between qualifying breaks.
func (e *Engine) mandatoryBreak(h *history, seg segment) []finding {
	limit := e.rules.BreakAfterDriving.Std()
	if h.driving.Between(seg.start, seg.end) <= limit {
		return nil
	}
	start, _ := h.driving.Reach(seg.start, limit)
	return []finding{{rule: models.RuleMandatoryBreak, start: start, end: seg.end, closed: seg.closed}}
}

type cycle struct {
	rule   models.RuleID
	limit  time.Duration
	window time.Duration
}

func (e *Engine) cycles() []cycle {
	var out []cycle
	if c := e.rules.ShortCycle; c.Enabled {
		out = append(out, cycle{rule: models.RuleShortCycle, limit: c.Limit.Std(), window: c.Window.Std()})
	}
	if c := e.rules.LongCycle; c.Enabled {
		out = append(out, cycle{rule: models.RuleLongCycle, limit: c.Limit.Std(), window: c.Window.Std()})
	}
	return out
}

// rolling returns the on-duty time in the window of width w ending at t, never
// reaching back before the segment's restart.
func rolling(acc *window.Accumulator, seg segment, w time.Duration, t time.Time) time.Duration {
	from := t.Add(-w)
	if from.Before(seg.start) {
		from = seg.start
	}
	return acc.Between(from, t)
}

// cycleExcess finds every stretch of a cycle segment where the rolling on-duty total
// exceeds the limit. The rolling total is piecewise linear with slopes of -1, 0 or +1
// between breakpoints, so the crossing and drop instants are exact.
func cycleExcess(h *history, seg segment, c cycle) []finding {
	points := breakpoints(h.onDuty, seg, c.window)

	var out []finding
	var inside bool
	var start time.Time
	prevT := seg.start
	prevF := rolling(h.onDuty, seg, c.window, prevT)
	for _, t := range points {
		f := rolling(h.onDuty, seg, c.window, t)
		switch {
		case !inside && f > c.limit:
			inside = true
			start = prevT.Add(c.limit - prevF)
		case inside && f <= c.limit:
			inside = false
			out = append(out, finding{rule: c.rule, start: start, end: prevT.Add(prevF - c.limit), closed: true})
		}
		prevT, prevF = t, f
	}
	if inside {
		out = append(out, finding{rule: c.rule, start: start, end: seg.end, closed: seg.closed})
	}
	return out
}

// breakpoints returns the sorted instants in (seg.start, seg.end] where the slope of the
// rolling total can change.
func breakpoints(acc *window.Accumulator, seg segment, w time.Duration) []time.Time {
	seen := make(map[int64]struct{})
	var points []time.Time
	add := func(t time.Time) {
		if !t.After(seg.start) || t.After(seg.end) {
			return
		}
		key := t.UnixNano()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		points = append(points, t)
	}

	add(seg.start.Add(w))
	add(seg.end)
	for _, s := range acc.Spans() {
		if !s.End.After(seg.start) || !s.Start.Before(seg.end) {
			continue
		}
		add(s.Start)
		add(s.End)
		add(s.Start.Add(w))
		add(s.End.Add(w))
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })
	return points
}
