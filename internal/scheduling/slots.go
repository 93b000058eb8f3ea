package scheduling

import (
	"fmt"

	"github.com/okatech-org/consulat-scheduling/internal/model"
)

// Window is the organization's working-hours template. Every calendar day
// uses the same window; there is no per-agent calendar and no holiday
// handling in this service.
type Window struct {
	OpenHour        int
	CloseHour       int
	DefaultDuration int
}

// DefaultWindow returns the standard consular working hours.
func DefaultWindow() Window {
	return Window{
		OpenHour:        9,
		CloseHour:       17,
		DefaultDuration: 30,
	}
}

// GenerateSlots enumerates the bookable slots of one working day for the
// given duration in minutes. Slots are emitted in ascending order of start
// time. A slot that would run past the closing hour is dropped, never
// clipped. The result is a pure function of (duration, window): existing
// bookings are filtered out by the caller, not here.
func GenerateSlots(durationMinutes int, w Window) ([]model.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("invalid slot duration: %d", durationMinutes)
	}

	var slots []model.TimeSlot
	for hour := w.OpenHour; hour < w.CloseHour; hour++ {
		for minute := 0; minute < 60; minute += durationMinutes {
			endMinute := minute + durationMinutes
			endHour := hour + endMinute/60
			endMinute = endMinute % 60

			// keep end <= close:00
			if endHour > w.CloseHour || (endHour == w.CloseHour && endMinute > 0) {
				continue
			}

			slots = append(slots, model.TimeSlot{
				StartTime: formatTime(hour, minute),
				EndTime:   formatTime(endHour, endMinute),
			})
		}
	}
	return slots, nil
}

func formatTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
