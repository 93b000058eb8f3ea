package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted,
		AppointmentStatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether the status is terminal with respect to
// rescheduling. A cancelled or completed appointment keeps its history;
// it is never moved to a new slot.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)
)

// ValidDate reports whether s is a real calendar date in zero-padded
// YYYY-MM-DD form. The fixed width is load-bearing: dates are grouped and
// compared as raw strings, so "2026-3-2" must be rejected even though
// time.Parse alone would accept it.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidClock reports whether s is a zero-padded HH:MM wall-clock time.
// Unpadded times like "9:15" compare wrongly against padded ones and must
// never reach the interval arithmetic.
func ValidClock(s string) bool {
	return clockRe.MatchString(s)
}

// Appointment is a booked time slot on an organization's calendar.
// Date is YYYY-MM-DD; StartTime and EndTime are zero-padded HH:MM in the
// organization's local clock. The fixed-width encoding makes lexicographic
// comparison equivalent to chronological comparison, so all interval
// arithmetic in this service is done on the raw strings.
type Appointment struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	OrgID     uuid.UUID         `db:"org_id" json:"org_id"`
	UserID    uuid.UUID         `db:"user_id" json:"user_id"`
	ServiceID *uuid.UUID        `db:"service_id" json:"service_id,omitempty"`
	RequestID *uuid.UUID        `db:"request_id" json:"request_id,omitempty"`
	Date      string            `db:"date" json:"date"`
	StartTime string            `db:"start_time" json:"start_time"`
	EndTime   string            `db:"end_time" json:"end_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     string            `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// TimeSlot is a bookable interval derived from the working-hours template.
// It only exists for the duration of an availability query.
type TimeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type BookAppointmentRequest struct {
	OrgID     uuid.UUID  `json:"org_id" binding:"required" validate:"required"`
	ServiceID *uuid.UUID `json:"service_id"`
	RequestID *uuid.UUID `json:"request_id"`
	Date      string     `json:"date" binding:"required,datetime=2006-01-02" validate:"required,caldate"`
	StartTime string     `json:"start_time" binding:"required,datetime=15:04" validate:"required,hhmm"`
	EndTime   string     `json:"end_time" binding:"required,datetime=15:04" validate:"required,hhmm"`
	Notes     string     `json:"notes" binding:"max=1000" validate:"max=1000"`
}

type RescheduleAppointmentRequest struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02" validate:"required,caldate"`
	StartTime string `json:"start_time" binding:"required,datetime=15:04" validate:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,datetime=15:04" validate:"required,hhmm"`
}

type AppointmentFilters struct {
	OrgID  uuid.UUID
	UserID uuid.UUID
	Date   string
	Status AppointmentStatus
}
