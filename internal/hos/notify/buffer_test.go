package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eldcore/internal/hos/models"
)

func violationFor(driver string) models.Violation {
	return models.Violation{DriverID: models.DriverID(driver), RuleID: models.RuleDrivingLimit}
}

func TestRingBufferDropsOldest(t *testing.T) {
	b := NewRingBuffer(2)

	assert.True(t, b.Enqueue(violationFor("a")))
	assert.True(t, b.Enqueue(violationFor("b")))
	assert.False(t, b.Enqueue(violationFor("c")))

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, int64(1), b.Dropped())

	batch := b.DequeueBatch(10)
	if assert.Len(t, batch, 2) {
		assert.Equal(t, models.DriverID("b"), batch[0].DriverID)
		assert.Equal(t, models.DriverID("c"), batch[1].DriverID)
	}
	assert.Nil(t, b.DequeueBatch(1))
}

func TestRingBufferBatchesInOrder(t *testing.T) {
	b := NewRingBuffer(4)
	for _, d := range []string{"a", "b", "c"} {
		b.Enqueue(violationFor(d))
	}

	first := b.DequeueBatch(2)
	assert.Len(t, first, 2)
	b.Enqueue(violationFor("d"))
	b.Enqueue(violationFor("e"))

	rest := b.DequeueBatch(0)
	var got []models.DriverID
	for _, v := range rest {
		got = append(got, v.DriverID)
	}
	assert.Equal(t, []models.DriverID{"c", "d", "e"}, got)
}
