package scheduling

import "github.com/okatech-org/consulat-scheduling/internal/model"

// Overlaps reports whether the candidate interval collides with an existing
// one. All four bounds are zero-padded HH:MM strings, so lexicographic
// comparison is chronological comparison.
//
// The rule is deliberately asymmetric at touching boundaries: a candidate
// ending exactly when the other starts is free, a candidate ending exactly
// when the other ends is a collision. Callers rely on these exact boundary
// semantics; do not replace this with the symmetric open-interval formula.
func Overlaps(candidate model.TimeSlot, start, end string) bool {
	if candidate.StartTime >= start && candidate.StartTime < end {
		return true
	}
	if candidate.EndTime > start && candidate.EndTime <= end {
		return true
	}
	// candidate swallows the existing interval whole
	return candidate.StartTime <= start && candidate.EndTime >= end
}

// HasConflict reports whether the candidate interval overlaps any
// non-cancelled appointment in existing. Cancelled appointments never block
// a booking. Pure and side-effect free; used both to filter generated slots
// and to validate a requested interval at write time.
func HasConflict(candidate model.TimeSlot, existing []*model.Appointment) bool {
	for _, apt := range existing {
		if apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if Overlaps(candidate, apt.StartTime, apt.EndTime) {
			return true
		}
	}
	return false
}
