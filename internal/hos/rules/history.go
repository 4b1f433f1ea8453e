package rules

import (
	"time"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
	"eldcore/internal/hos/window"
)

// dutyPeriod runs from anchor until the rest that closes it.
type dutyPeriod struct {
	anchor     time.Time
	closesAt   time.Time
	closed     bool
	exclusions []models.Span
}

// segment is a span of history between two qualifying breaks or two cycle restarts.
type segment struct {
	start  time.Time
	end    time.Time
	closed bool
}

type history struct {
	now           time.Time
	driving       *window.Accumulator
	onDuty        *window.Accumulator
	periods       []dutyPeriod
	breakSegments []segment
	cycleSegments []segment
}

// finding is a breach before it is stamped into a Violation.
type finding struct {
	rule   models.RuleID
	start  time.Time
	end    time.Time
	closed bool
}

func (e *Engine) derive(in Input) *history {
	tl := window.NewTimeline(in.Intervals)
	origin := tl.Start()
	h := &history{
		now:           in.Now,
		driving:       tl.Accumulate(window.Driving),
		onDuty:        tl.Accumulate(window.OnDuty),
		periods:       []dutyPeriod{{anchor: origin}},
		breakSegments: []segment{{start: origin, end: in.Now}},
		cycleSegments: []segment{{start: origin, end: in.Now}},
	}

	var candidate *models.RestPeriod
	for _, rest := range restPeriods(in.Intervals) {
		var reset regulation.Reset
		var ok bool
		reset, ok, candidate = regulation.Classify(e.rules, candidate, rest)
		if !ok {
			continue
		}
		last := &h.periods[len(h.periods)-1]
		last.closesAt = reset.ClosesAt
		last.closed = true
		if reset.Paired != nil {
			last.exclude(*reset.Paired)
		}
		next := dutyPeriod{anchor: reset.Anchor}
		if reset.Exclusion != nil {
			next.exclude(*reset.Exclusion)
		}
		h.periods = append(h.periods, next)
		if reset.CycleRestart {
			h.cycleSegments = closeSegment(h.cycleSegments, rest.Start, rest.End, in.Now)
		}
	}

	minBreak := e.rules.BreakMinimum.Std()
	for _, run := range tl.Runs(window.NotDriving) {
		if run.Duration() < minBreak {
			continue
		}
		h.breakSegments = closeSegment(h.breakSegments, run.Start, run.End, in.Now)
	}
	return h
}

func closeSegment(segs []segment, closesAt, reopensAt, now time.Time) []segment {
	last := &segs[len(segs)-1]
	last.end = closesAt
	last.closed = true
	return append(segs, segment{start: reopensAt, end: now})
}

// restPeriods merges consecutive rest intervals. A trailing rest still open at the
// evaluation instant is included as if it ended then.
func restPeriods(intervals []models.Interval) []models.RestPeriod {
	var out []models.RestPeriod
	var cur *models.RestPeriod
	for _, iv := range intervals {
		if iv.Duration() == 0 {
			continue
		}
		if !iv.Status.IsRest() {
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			continue
		}
		sleeper := iv.Status == models.StatusSleeperBerth
		if cur == nil {
			cur = &models.RestPeriod{Start: iv.Start, End: iv.End, SleeperOnly: sleeper}
			continue
		}
		cur.End = iv.End
		cur.SleeperOnly = cur.SleeperOnly && sleeper
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

func (p *dutyPeriod) exclude(span models.Span) {
	for _, ex := range p.exclusions {
		if ex == span {
			return
		}
	}
	p.exclusions = append(p.exclusions, span)
}

func (p dutyPeriod) end(now time.Time) time.Time {
	if p.closed {
		return p.closesAt
	}
	return now
}
