package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/okatech-org/consulat-scheduling/internal/model"
	"github.com/okatech-org/consulat-scheduling/internal/repository"
	apperrors "github.com/okatech-org/consulat-scheduling/pkg/errors"
)

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, org_id, user_id, service_id, request_id,
			date, start_time, end_time, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.OrgID,
		apt.UserID,
		apt.ServiceID,
		apt.RequestID,
		apt.Date,
		apt.StartTime,
		apt.EndTime,
		apt.Status,
		apt.Notes,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, org_id, user_id, service_id, request_id,
			   date, start_time, end_time, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := sqlx.GetContext(ctx, r.db, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET date = $1, start_time = $2, end_time = $3, status = $4, notes = $5, updated_at = $6
		WHERE id = $7
	`
	apt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		apt.Date,
		apt.StartTime,
		apt.EndTime,
		apt.Status,
		apt.Notes,
		apt.UpdatedAt,
		apt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) ListByOrgDate(ctx context.Context, orgID uuid.UUID, date string, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, org_id, user_id, service_id, request_id,
			   date, start_time, end_time, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE org_id = $1 AND date = $2
	`
	args := []interface{}{orgID, date}

	if excludeID != nil {
		query += " AND id != $3"
		args = append(args, *excludeID)
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	err := sqlx.SelectContext(ctx, r.db, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, org_id, user_id, service_id, request_id,
			   date, start_time, end_time, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	var args []interface{}
	argCount := 1

	if filters.OrgID != uuid.Nil {
		query += fmt.Sprintf(" AND org_id = $%d", argCount)
		args = append(args, filters.OrgID)
		argCount++
	}

	if filters.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filters.UserID)
		argCount++
	}

	if filters.Date != "" {
		query += fmt.Sprintf(" AND date = $%d", argCount)
		args = append(args, filters.Date)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY date ASC, start_time ASC"

	var appointments []*model.Appointment
	err := sqlx.SelectContext(ctx, r.db, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) WithOrgDateLock(ctx context.Context, orgID uuid.UUID, date string, fn func(repository.Tx) error) error {
	if r.pool == nil {
		return fmt.Errorf("nested calendar locks are not supported")
	}

	sqlTx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	// Serializes every read-check-write sequence touching this calendar day.
	// The lock is released automatically on commit or rollback.
	if _, err := sqlTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", orgDateLockKey(orgID, date)); err != nil {
		sqlTx.Rollback()
		return fmt.Errorf("failed to lock calendar: %w", err)
	}

	boundTx := &tx{
		appointments: &appointmentRepository{db: sqlTx},
		outbox:       &outboxRepository{db: sqlTx},
	}

	if err := fn(boundTx); err != nil {
		sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// orgDateLockKey derives the 64-bit advisory lock key for one organization's
// calendar day.
func orgDateLockKey(orgID uuid.UUID, date string) int64 {
	h := fnv.New64a()
	h.Write([]byte(orgID.String()))
	h.Write([]byte("|"))
	h.Write([]byte(date))
	return int64(h.Sum64())
}
