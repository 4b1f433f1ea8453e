package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eldcore/internal/hos/models"
)

func evaluated(rule models.RuleID, start, end time.Duration, status models.ViolationStatus) models.Violation {
	return models.Violation{
		DriverID:    driver,
		RuleID:      rule,
		WindowStart: t0.Add(start),
		WindowEnd:   t0.Add(end),
		DetectedAt:  t0.Add(end),
		Severity:    models.SeverityFor(rule),
		Status:      status,
	}.WithID()
}

func TestReconcile(t *testing.T) {
	now := t0.Add(30 * time.Hour)

	t.Run("new breach is appended once", func(t *testing.T) {
		v := evaluated(models.RuleDrivingLimit, 11*time.Hour, 12*time.Hour, models.ViolationActive)
		appended, inEffect := reconcile(nil, []models.Violation{v}, now, 3)
		assert.Equal(t, []models.Violation{v}, appended)
		assert.Equal(t, []models.Violation{v}, inEffect)

		later := evaluated(models.RuleDrivingLimit, 11*time.Hour, 13*time.Hour, models.ViolationActive)
		appended, inEffect = reconcile([]models.Violation{v}, []models.Violation{later}, now, 4)
		assert.Empty(t, appended)
		assert.Equal(t, []models.Violation{v}, inEffect, "the recorded active breach stays in effect")
	})

	t.Run("closing supersedes the active record", func(t *testing.T) {
		active := evaluated(models.RuleDrivingLimit, 11*time.Hour, 12*time.Hour, models.ViolationActive)
		closed := evaluated(models.RuleDrivingLimit, 11*time.Hour, 14*time.Hour, models.ViolationClosed)

		appended, _ := reconcile([]models.Violation{active}, []models.Violation{closed}, now, 5)
		require.Len(t, appended, 1)
		require.NotNil(t, appended[0].Supersedes)
		assert.Equal(t, active.ID, *appended[0].Supersedes)
		assert.NotEqual(t, closed.ID, appended[0].ID)

		again, _ := reconcile([]models.Violation{active, appended[0]}, []models.Violation{closed}, now, 6)
		assert.Empty(t, again)
	})

	t.Run("changed window end on a closed record supersedes it", func(t *testing.T) {
		closed := evaluated(models.RuleOnDutyWindow, 14*time.Hour, 15*time.Hour, models.ViolationClosed)
		moved := evaluated(models.RuleOnDutyWindow, 14*time.Hour, 16*time.Hour, models.ViolationClosed)

		appended, _ := reconcile([]models.Violation{closed}, []models.Violation{moved}, now, 7)
		require.Len(t, appended, 1)
		assert.Equal(t, closed.ID, *appended[0].Supersedes)
	})

	t.Run("vanished breach is withdrawn once", func(t *testing.T) {
		active := evaluated(models.RuleMandatoryBreak, 8*time.Hour, 9*time.Hour, models.ViolationActive)

		appended, inEffect := reconcile([]models.Violation{active}, nil, now, 8)
		require.Len(t, appended, 1)
		w := appended[0]
		assert.Equal(t, models.ViolationWithdrawn, w.Status)
		assert.Equal(t, now, w.DetectedAt)
		assert.Equal(t, int64(8), w.SourceSequence)
		assert.Equal(t, active.ID, *w.Supersedes)
		assert.Empty(t, inEffect)

		again, _ := reconcile([]models.Violation{active, w}, nil, now, 9)
		assert.Empty(t, again)
	})

	t.Run("reappearing breach supersedes the withdrawal", func(t *testing.T) {
		active := evaluated(models.RuleMandatoryBreak, 8*time.Hour, 9*time.Hour, models.ViolationActive)
		withdrawn, _ := reconcile([]models.Violation{active}, nil, now, 8)

		appended, _ := reconcile([]models.Violation{active, withdrawn[0]}, []models.Violation{active}, now, 10)
		require.Len(t, appended, 1)
		assert.Equal(t, models.ViolationActive, appended[0].Status)
		assert.Equal(t, withdrawn[0].ID, *appended[0].Supersedes)
		assert.NotEqual(t, active.ID, appended[0].ID)
	})
}

func TestOpenViolations(t *testing.T) {
	anchor := t0.Add(24 * time.Hour)
	old := evaluated(models.RuleDrivingLimit, 11*time.Hour, 13*time.Hour, models.ViolationClosed)
	recent := evaluated(models.RuleOnDutyWindow, 24*time.Hour, 25*time.Hour, models.ViolationClosed)
	open := evaluated(models.RuleLongCycle, 20*time.Hour, 26*time.Hour, models.ViolationActive)
	gone := evaluated(models.RuleMandatoryBreak, 25*time.Hour, 26*time.Hour, models.ViolationWithdrawn)

	got := openViolations([]models.Violation{recent, old, gone, open}, anchor)

	require.Len(t, got, 2)
	assert.Equal(t, models.RuleLongCycle, got[0].RuleID)
	assert.Equal(t, models.RuleOnDutyWindow, got[1].RuleID)
}
