package window

import (
	"sort"
	"time"

	"eldcore/internal/hos/models"
)

// Timeline is an ordered, non-overlapping interval list.
type Timeline struct {
	intervals []models.Interval
}

func NewTimeline(intervals []models.Interval) Timeline {
	return Timeline{intervals: intervals}
}

func (t Timeline) Intervals() []models.Interval {
	return t.intervals
}

// Start returns the first instant covered, or the zero time for an empty timeline.
func (t Timeline) Start() time.Time {
	if len(t.intervals) == 0 {
		return time.Time{}
	}
	return t.intervals[0].Start
}

// End returns the last instant covered, or the zero time for an empty timeline.
func (t Timeline) End() time.Time {
	if len(t.intervals) == 0 {
		return time.Time{}
	}
	return t.intervals[len(t.intervals)-1].End
}

// Runs merges adjacent intervals satisfying pred into maximal spans.
func (t Timeline) Runs(pred Predicate) []models.Interval {
	var runs []models.Interval
	for _, iv := range t.intervals {
		if !pred(iv.Status) || iv.Duration() == 0 {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].End.Equal(iv.Start) {
			runs[n-1].End = iv.End
			if runs[n-1].Status != iv.Status {
				runs[n-1].Status = ""
			}
			continue
		}
		runs = append(runs, iv)
	}
	return runs
}

// Accumulate indexes the spans satisfying pred for logarithmic range queries.
func (t Timeline) Accumulate(pred Predicate) *Accumulator {
	runs := t.Runs(pred)
	acc := &Accumulator{
		spans:  make([]models.Span, len(runs)),
		prefix: make([]time.Duration, len(runs)+1),
	}
	for i, r := range runs {
		acc.spans[i] = models.Span{Start: r.Start, End: r.End}
		acc.prefix[i+1] = acc.prefix[i] + r.Duration()
	}
	return acc
}

// Accumulator answers "how much matching time lies in [from, to)" in O(log n).
type Accumulator struct {
	spans  []models.Span
	prefix []time.Duration // prefix[i] is the total length of spans[:i]
}

// upTo returns the matching time strictly before t.
func (a *Accumulator) upTo(t time.Time) time.Duration {
	i := sort.Search(len(a.spans), func(i int) bool { return a.spans[i].End.After(t) })
	total := a.prefix[i]
	if i < len(a.spans) && a.spans[i].Start.Before(t) {
		total += t.Sub(a.spans[i].Start)
	}
	return total
}

// Between returns the matching time inside [from, to).
func (a *Accumulator) Between(from, to time.Time) time.Duration {
	if !to.After(from) {
		return 0
	}
	return a.upTo(to) - a.upTo(from)
}

// Total returns all matching time.
func (a *Accumulator) Total() time.Duration {
	return a.prefix[len(a.prefix)-1]
}

// Reach returns the earliest instant at which the matching time accumulated since from
// equals amount. It reports false when the timeline never accumulates that much.
func (a *Accumulator) Reach(from time.Time, amount time.Duration) (time.Time, bool) {
	if amount <= 0 {
		return from, true
	}
	target := a.upTo(from) + amount
	i := sort.Search(len(a.spans), func(i int) bool { return a.prefix[i+1] >= target })
	if i == len(a.spans) {
		return time.Time{}, false
	}
	return a.spans[i].Start.Add(target - a.prefix[i]), true
}

// FirstFrom returns the earliest matching instant at or after from.
func (a *Accumulator) FirstFrom(from time.Time) (time.Time, bool) {
	i := sort.Search(len(a.spans), func(i int) bool { return a.spans[i].End.After(from) })
	if i == len(a.spans) {
		return time.Time{}, false
	}
	if a.spans[i].Start.After(from) {
		return a.spans[i].Start, true
	}
	return from, true
}

// Spans returns the indexed spans.
func (a *Accumulator) Spans() []models.Span {
	return a.spans
}
