package statemachine

import (
	"eldcore/internal/hos/models"
	dErrors "eldcore/pkg/domain-errors"
)

// Effective applies corrections to a raw log and returns the resulting status events.
// A later correction of the same event overrides an earlier one. Consecutive events that
// end up with the same status collapse into the first of them.
func Effective(log []models.DutyStatusEvent) ([]models.DutyStatusEvent, error) {
	index := make(map[int64]int, len(log))
	out := make([]models.DutyStatusEvent, 0, len(log))
	voided := make([]bool, 0, len(log))
	corrected := false

	for _, ev := range log {
		if !ev.IsCorrection() {
			index[ev.SequenceNumber] = len(out)
			out = append(out, ev)
			voided = append(voided, false)
			continue
		}
		corrected = true
		pos, ok := index[ev.Correction.Sequence]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput,
				"correction %d references unknown status event %d", ev.SequenceNumber, ev.Correction.Sequence)
		}
		if ev.Correction.Void {
			voided[pos] = true
			continue
		}
		voided[pos] = false
		out[pos].Status = ev.Correction.Status
	}
	if !corrected {
		return out, nil
	}

	result := out[:0:0]
	for i, ev := range out {
		if voided[i] {
			continue
		}
		if n := len(result); n > 0 && result[n-1].Status == ev.Status {
			continue
		}
		result = append(result, ev)
	}
	return result, nil
}
