package appointment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/okatech-org/consulat-scheduling/internal/model"
	"github.com/okatech-org/consulat-scheduling/internal/repository"
	"github.com/okatech-org/consulat-scheduling/internal/scheduling"
	apperrors "github.com/okatech-org/consulat-scheduling/pkg/errors"
	"github.com/okatech-org/consulat-scheduling/pkg/metrics"
	"github.com/okatech-org/consulat-scheduling/pkg/validator"
)

// AgentChecker answers whether a user is an authorized agent of an
// organization. Backed by the org_agents table behind a short-lived cache.
type AgentChecker interface {
	IsOrgAgent(ctx context.Context, userID, orgID uuid.UUID) (bool, error)
}

// Options carries the scheduling policy knobs.
type Options struct {
	Window scheduling.Window
	// StrictTransitions forbids forward transitions out of a terminal state
	// (cancelled, completed, no_show). Off by default: the guard historically
	// allowed, say, confirming a completed appointment, and back-office flows
	// depend on that.
	StrictTransitions bool
}

type Service struct {
	repo     repository.AppointmentRepository
	agents   AgentChecker
	opts     Options
	metrics  *metrics.Metrics
	validate *validator.Validator
}

func NewService(repo repository.AppointmentRepository, agents AgentChecker, opts Options, m *metrics.Metrics) *Service {
	if opts.Window.CloseHour <= opts.Window.OpenHour {
		opts.Window = scheduling.DefaultWindow()
	}
	return &Service{
		repo:     repo,
		agents:   agents,
		opts:     opts,
		metrics:  m,
		validate: validator.New(),
	}
}

// ListAvailableSlots returns the organization's free slots for one day,
// ascending by start time. A zero duration selects the default.
func (s *Service) ListAvailableSlots(ctx context.Context, orgID uuid.UUID, date string, durationMinutes int) ([]model.TimeSlot, error) {
	if !model.ValidDate(date) {
		return nil, apperrors.BadRequest("invalid date", nil)
	}
	if durationMinutes == 0 {
		durationMinutes = s.opts.Window.DefaultDuration
	}

	slots, err := scheduling.GenerateSlots(durationMinutes, s.opts.Window)
	if err != nil {
		return nil, apperrors.BadRequest("invalid slot duration", err)
	}

	booked, err := s.repo.ListByOrgDate(ctx, orgID, date, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	available := make([]model.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if !scheduling.HasConflict(slot, booked) {
			available = append(available, slot)
		}
	}
	return available, nil
}

// Book places a new appointment on the organization's calendar. The
// conflict check and the insert run as one atomic unit under the calendar
// lock: of two concurrent bookings for overlapping intervals, the first
// commit wins and the second fails with SlotNotAvailable.
func (s *Service) Book(ctx context.Context, actor model.Actor, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequest("invalid booking request", err)
	}
	if err := validateInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		OrgID:     req.OrgID,
		UserID:    actor.ID,
		ServiceID: req.ServiceID,
		RequestID: req.RequestID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    model.AppointmentStatusScheduled,
		Notes:     req.Notes,
	}

	err := s.repo.WithOrgDateLock(ctx, req.OrgID, req.Date, func(tx repository.Tx) error {
		existing, err := tx.Appointments().ListByOrgDate(ctx, req.OrgID, req.Date, nil)
		if err != nil {
			return fmt.Errorf("failed to load bookings: %w", err)
		}

		candidate := model.TimeSlot{StartTime: req.StartTime, EndTime: req.EndTime}
		if scheduling.HasConflict(candidate, existing) {
			return apperrors.SlotNotAvailable()
		}

		if err := tx.Appointments().Create(ctx, apt); err != nil {
			return err
		}
		return emitEvent(ctx, tx.Outbox(), model.EventAppointmentBooked, apt)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrSlotNotAvailable) {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.BookingsCreated.Inc()
	return apt, nil
}

// Reschedule moves an existing appointment to a new slot and resets it to
// scheduled. The appointment itself is excluded from the conflict check so
// it never collides with its own current slot.
func (s *Service) Reschedule(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequest("invalid reschedule request", err)
	}
	if err := validateInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireOwnerOrAgent(ctx, actor, apt); err != nil {
		return nil, err
	}

	if apt.Status.Terminal() {
		return nil, apperrors.CannotReschedule(string(apt.Status))
	}

	err = s.repo.WithOrgDateLock(ctx, apt.OrgID, req.Date, func(tx repository.Tx) error {
		existing, err := tx.Appointments().ListByOrgDate(ctx, apt.OrgID, req.Date, &id)
		if err != nil {
			return fmt.Errorf("failed to load bookings: %w", err)
		}

		candidate := model.TimeSlot{StartTime: req.StartTime, EndTime: req.EndTime}
		if scheduling.HasConflict(candidate, existing) {
			return apperrors.SlotNotAvailable()
		}

		apt.Date = req.Date
		apt.StartTime = req.StartTime
		apt.EndTime = req.EndTime
		apt.Status = model.AppointmentStatusScheduled

		if err := tx.Appointments().Update(ctx, apt); err != nil {
			return err
		}
		return emitEvent(ctx, tx.Outbox(), model.EventAppointmentRescheduled, apt)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrSlotNotAvailable) {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	return apt, nil
}

// Get returns the appointment or a NotFound error.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// List returns appointments matching the filters, ordered by date and
// start time.
func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// Confirm marks the appointment confirmed. Org agents only.
func (s *Service) Confirm(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusConfirmed, model.EventAppointmentConfirmed, false)
}

// Cancel marks the appointment cancelled, releasing its slot. The booking
// user may cancel their own appointment; org agents may cancel any.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusCancelled, model.EventAppointmentCancelled, true)
}

// Complete marks the appointment completed. Org agents only.
func (s *Service) Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusCompleted, model.EventAppointmentCompleted, false)
}

// MarkNoShow records that the citizen did not attend. Org agents only.
func (s *Service) MarkNoShow(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusNoShow, model.EventAppointmentNoShow, false)
}

func (s *Service) transition(ctx context.Context, actor model.Actor, id uuid.UUID, target model.AppointmentStatus, eventType string, ownerAllowed bool) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if ownerAllowed {
		err = s.requireOwnerOrAgent(ctx, actor, apt)
	} else {
		err = s.requireOrgAgent(ctx, actor, apt.OrgID)
	}
	if err != nil {
		return nil, err
	}

	if s.opts.StrictTransitions && isForwardTerminal(apt.Status) {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("appointment is already %s", apt.Status), nil)
	}

	err = s.repo.WithOrgDateLock(ctx, apt.OrgID, apt.Date, func(tx repository.Tx) error {
		if err := tx.Appointments().UpdateStatus(ctx, id, target); err != nil {
			return err
		}
		apt.Status = target
		return emitEvent(ctx, tx.Outbox(), eventType, apt)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransitions.WithLabelValues(string(target)).Inc()
	return apt, nil
}

// requireOrgAgent admits active agents of the organization and platform
// admins.
func (s *Service) requireOrgAgent(ctx context.Context, actor model.Actor, orgID uuid.UUID) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	isAgent, err := s.agents.IsOrgAgent(ctx, actor.ID, orgID)
	if err != nil {
		return fmt.Errorf("failed to check authorization: %w", err)
	}
	if !isAgent {
		return apperrors.Forbidden("not an agent of this organization")
	}
	return nil
}

func (s *Service) requireOwnerOrAgent(ctx context.Context, actor model.Actor, apt *model.Appointment) error {
	if actor.ID == apt.UserID {
		return nil
	}
	return s.requireOrgAgent(ctx, actor, apt.OrgID)
}

// isForwardTerminal reports whether status ends the forward lifecycle.
// Distinct from AppointmentStatus.Terminal, which governs rescheduling only
// and does not include no_show.
func isForwardTerminal(status model.AppointmentStatus) bool {
	return status == model.AppointmentStatusCancelled ||
		status == model.AppointmentStatusCompleted ||
		status == model.AppointmentStatusNoShow
}

func validateInterval(start, end string) error {
	if start >= end {
		return apperrors.BadRequest("start time must be before end time", nil)
	}
	return nil
}

func emitEvent(ctx context.Context, outbox repository.OutboxRepository, eventType string, apt *model.Appointment) error {
	payload, err := json.Marshal(apt)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return outbox.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	})
}
