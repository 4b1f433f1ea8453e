package coordinator

import (
	"slices"
	"time"

	"eldcore/internal/hos/models"
)

// reconcile diffs a full evaluation against the recorded lifecycle and returns the records
// to append plus the records in effect afterwards. Each breach is tracked by its
// (rule, window start) key; only status changes and changed final window ends produce a
// record. A recorded breach the evaluation no longer finds is withdrawn.
func reconcile(prior, evaluated []models.Violation, now time.Time, seq int64) (appended, inEffect []models.Violation) {
	latest := make(map[models.ViolationKey]models.Violation, len(prior))
	var order []models.ViolationKey
	for _, v := range prior {
		k := v.Key()
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		latest[k] = v
	}

	seen := make(map[models.ViolationKey]bool, len(evaluated))
	for _, v := range evaluated {
		k := v.Key()
		seen[k] = true
		last, ok := latest[k]
		if ok && unchanged(last, v) {
			inEffect = append(inEffect, last)
			continue
		}
		if ok {
			id := last.ID
			v.Supersedes = &id
			v = v.WithID()
		}
		appended = append(appended, v)
		inEffect = append(inEffect, v)
	}

	for _, k := range order {
		last := latest[k]
		if seen[k] || last.Status == models.ViolationWithdrawn {
			continue
		}
		id := last.ID
		w := last
		w.Status = models.ViolationWithdrawn
		w.DetectedAt = now
		w.SourceSequence = seq
		w.Supersedes = &id
		appended = append(appended, w.WithID())
	}
	return appended, inEffect
}

func unchanged(last, v models.Violation) bool {
	if last.Status != v.Status {
		return false
	}
	switch last.Status {
	case models.ViolationActive:
		return true
	case models.ViolationClosed:
		return last.WindowEnd.Equal(v.WindowEnd)
	}
	return false
}

// openViolations keeps the violations still active or closed within the duty period that
// starts at anchor, ordered by window start then rule.
func openViolations(vs []models.Violation, anchor time.Time) []models.Violation {
	out := make([]models.Violation, 0, len(vs))
	for _, v := range vs {
		switch v.Status {
		case models.ViolationActive:
			out = append(out, v)
		case models.ViolationClosed:
			if !v.WindowEnd.Before(anchor) {
				out = append(out, v)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b models.Violation) int {
		if c := a.WindowStart.Compare(b.WindowStart); c != 0 {
			return c
		}
		switch {
		case a.RuleID < b.RuleID:
			return -1
		case a.RuleID > b.RuleID:
			return 1
		}
		return 0
	})
	return out
}
