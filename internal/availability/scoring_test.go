package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourSlots(hours ...int) []TimeSlot {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	slots := make([]TimeSlot, len(hours))
	for i, h := range hours {
		slots[i] = TimeSlot{
			Start:     day.Add(time.Duration(h) * time.Hour),
			End:       day.Add(time.Duration(h+1) * time.Hour),
			Available: true,
		}
	}
	return slots
}

func TestDensityScorerFlagsBusyHours(t *testing.T) {
	scorer := NewDensityScorer()
	slots := hourSlots(9, 10, 11, 14)

	var histogram [24]int
	histogram[10] = 20 // the rush hour
	histogram[11] = 16 // above 75% of the peak
	histogram[9] = 5
	histogram[14] = 0

	scorer.Score(slots, histogram)

	assert.False(t, slots[0].Popular)
	assert.True(t, slots[1].Popular)
	assert.True(t, slots[2].Popular)
	assert.False(t, slots[3].Popular)

	assert.True(t, slots[3].Recommended, "the quietest hour is the recommendation")
	assert.False(t, slots[0].Recommended)
}

func TestDensityScorerSkipsUnavailableSlots(t *testing.T) {
	scorer := NewDensityScorer()
	slots := hourSlots(10, 14)
	slots[1].Available = false

	var histogram [24]int
	histogram[10] = 10
	histogram[14] = 0

	scorer.Score(slots, histogram)

	assert.False(t, slots[1].Popular, "held slots carry no annotations")
	assert.False(t, slots[1].Recommended)
	assert.True(t, slots[0].Recommended, "only available slots compete for the recommendation")
}

func TestDensityScorerWithoutHistory(t *testing.T) {
	scorer := NewDensityScorer()
	slots := hourSlots(9, 10)
	slots[0].Available = false

	scorer.Score(slots, [24]int{})

	require.False(t, slots[0].Recommended)
	assert.True(t, slots[1].Recommended, "no history falls back to the earliest open slot")
	assert.False(t, slots[0].Popular)
	assert.False(t, slots[1].Popular)
}
