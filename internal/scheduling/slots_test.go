package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okatech-org/consulat-scheduling/internal/model"
)

func TestGenerateSlotsDefaultDay(t *testing.T) {
	w := DefaultWindow()

	slots, err := GenerateSlots(w.DefaultDuration, w)
	require.NoError(t, err)

	require.Len(t, slots, 16)
	assert.Equal(t, model.TimeSlot{StartTime: "09:00", EndTime: "09:30"}, slots[0])
	assert.Equal(t, model.TimeSlot{StartTime: "16:30", EndTime: "17:00"}, slots[15])

	for i, slot := range slots {
		assert.True(t, slot.StartTime < slot.EndTime, "slot %d: %v", i, slot)
		assert.LessOrEqual(t, slot.EndTime, "17:00")
		if i > 0 {
			assert.True(t, slots[i-1].StartTime < slot.StartTime, "slots must ascend")
		}
	}
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	w := DefaultWindow()

	first, err := GenerateSlots(45, w)
	require.NoError(t, err)
	second, err := GenerateSlots(45, w)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateSlotsDurations(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		count    int
		last     model.TimeSlot
	}{
		{"hourly", 60, 8, model.TimeSlot{StartTime: "16:00", EndTime: "17:00"}},
		{"quarter hour", 15, 32, model.TimeSlot{StartTime: "16:45", EndTime: "17:00"}},
		{"twenty minutes", 20, 24, model.TimeSlot{StartTime: "16:40", EndTime: "17:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := GenerateSlots(tt.duration, DefaultWindow())
			require.NoError(t, err)
			assert.Len(t, slots, tt.count)
			assert.Equal(t, tt.last, slots[len(slots)-1])
		})
	}
}

func TestGenerateSlotsDropsOverflowingSlots(t *testing.T) {
	// 16:45 + 45min would end at 17:30; the slot is dropped, not clipped.
	slots, err := GenerateSlots(45, DefaultWindow())
	require.NoError(t, err)

	for _, slot := range slots {
		assert.LessOrEqual(t, slot.EndTime, "17:00", "slot %v crosses closing time", slot)
	}
}

func TestGenerateSlotsInvalidDuration(t *testing.T) {
	for _, d := range []int{0, -30} {
		_, err := GenerateSlots(d, DefaultWindow())
		assert.Error(t, err, "duration %d", d)
	}
}

func TestGenerateSlotsCustomWindow(t *testing.T) {
	slots, err := GenerateSlots(30, Window{OpenHour: 8, CloseHour: 12, DefaultDuration: 30})
	require.NoError(t, err)

	require.Len(t, slots, 8)
	assert.Equal(t, "08:00", slots[0].StartTime)
	assert.Equal(t, "12:00", slots[7].EndTime)
}
