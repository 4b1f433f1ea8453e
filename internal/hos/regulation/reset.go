package regulation

import (
	"time"

	"eldcore/internal/hos/models"
)

// ResetKind distinguishes how a duty period was restarted.
type ResetKind string

const (
	ResetDaily ResetKind = "daily"
	ResetSplit ResetKind = "split_sleeper"
)

// Reset describes a qualifying rest that closes the running duty period.
type Reset struct {
	Kind ResetKind
	// Anchor is where the next duty period starts counting.
	Anchor time.Time
	// ClosesAt is the start of the rest that ended the previous period.
	ClosesAt time.Time
	// Exclusion is rest time inside the new period that does not count against its on-duty window.
	Exclusion *models.Span
	// Paired is the earlier rest of a split pair; it no longer counts against the closed period's window.
	Paired *models.Span
	// CycleRestart is set when the rest also restarts the multi-day cycle.
	CycleRestart bool
}

// Classify decides whether rest qualifies as a reset given the pending split candidate.
// It returns the reset (if any) and the split candidate to carry forward.
func Classify(rules RuleSet, candidate *models.RestPeriod, rest models.RestPeriod) (Reset, bool, *models.RestPeriod) {
	length := rest.Duration()

	if length >= rules.CycleRestart.Std() {
		return Reset{Kind: ResetDaily, Anchor: rest.End, ClosesAt: rest.Start, CycleRestart: true}, true, nil
	}
	if length >= rules.DailyReset.Std() {
		return Reset{Kind: ResetDaily, Anchor: rest.End, ClosesAt: rest.Start}, true, nil
	}
	if !rules.SplitSleeper.Enabled || length < rules.SplitSleeper.MinCompanion.Std() {
		return Reset{}, false, candidate
	}

	cur := rest
	if candidate != nil && pairs(rules, *candidate, cur) {
		excl, paired := cur.Span(), candidate.Span()
		return Reset{
			Kind:      ResetSplit,
			Anchor:    candidate.End,
			ClosesAt:  cur.Start,
			Exclusion: &excl,
			Paired:    &paired,
		}, true, &cur
	}
	return Reset{}, false, &cur
}

func pairs(rules RuleSet, first, second models.RestPeriod) bool {
	minSleeper := rules.SplitSleeper.MinSleeper.Std()
	minCompanion := rules.SplitSleeper.MinCompanion.Std()
	a, b := first.Duration(), second.Duration()
	if a+b < rules.DailyReset.Std() {
		return false
	}
	long := func(p models.RestPeriod, d time.Duration) bool { return p.SleeperOnly && d >= minSleeper }
	return (long(first, a) && b >= minCompanion) || (long(second, b) && a >= minCompanion)
}
