package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okatech-org/consulat-scheduling/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository owns the authoritative appointment record set
	// and its lookup paths: by id, by (org, date) and by user.
	AppointmentRepository interface {
		Create(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		// ListByOrgDate returns every appointment of the organization on the
		// given date, regardless of status. excludeID removes one appointment
		// from the result; reschedule uses it so an appointment never
		// conflicts with its own current slot.
		ListByOrgDate(ctx context.Context, orgID uuid.UUID, date string, excludeID *uuid.UUID) ([]*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// WithOrgDateLock runs fn inside a transaction holding an exclusive
		// advisory lock on the (org, date) calendar. Two concurrent bookings
		// for the same day serialize here: the first commit wins, the second
		// observes it and fails its conflict check.
		WithOrgDateLock(ctx context.Context, orgID uuid.UUID, date string, fn func(Tx) error) error
	}

	// Tx bundles the repositories bound to one open transaction, so a
	// booking and its outbox event commit atomically.
	Tx interface {
		Appointments() AppointmentRepository
		Outbox() OutboxRepository
	}

	// OrgAgentRepository answers the "is this user an authorized agent of
	// org X" predicate.
	OrgAgentRepository interface {
		IsOrgAgent(ctx context.Context, userID, orgID uuid.UUID) (bool, error)
	}

	// OutboxRepository stores appointment events for asynchronous delivery.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		// ProcessPending runs fn over one batch of pending events inside a
		// transaction. The fetched rows stay locked until commit, so a
		// second processor instance skips the batch instead of publishing
		// it twice. fn updates event statuses through bound.
		ProcessPending(ctx context.Context, limit int, fn func(events []*model.OutboxEvent, bound OutboxRepository) error) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
