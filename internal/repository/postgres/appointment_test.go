package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okatech-org/consulat-scheduling/internal/model"
	"github.com/okatech-org/consulat-scheduling/internal/repository"
	apperrors "github.com/okatech-org/consulat-scheduling/pkg/errors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func appointmentColumns() []string {
	return []string{
		"id", "org_id", "user_id", "service_id", "request_id",
		"date", "start_time", "end_time", "status", "notes",
		"created_at", "updated_at",
	}
}

func appointmentRow(apt *model.Appointment) *sqlmock.Rows {
	return sqlmock.NewRows(appointmentColumns()).AddRow(
		apt.ID, apt.OrgID, apt.UserID, apt.ServiceID, apt.RequestID,
		apt.Date, apt.StartTime, apt.EndTime, apt.Status, apt.Notes,
		apt.CreatedAt, apt.UpdatedAt,
	)
}

func sampleAppointment() *model.Appointment {
	return &model.Appointment{
		ID:        uuid.New(),
		OrgID:     uuid.New(),
		UserID:    uuid.New(),
		Date:      "2026-03-02",
		StartTime: "09:00",
		EndTime:   "09:30",
		Status:    model.AppointmentStatusScheduled,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestAppointmentRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(
			apt.ID, apt.OrgID, apt.UserID, nil, nil,
			apt.Date, apt.StartTime, apt.EndTime, apt.Status, apt.Notes,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), apt)
	assert.NoError(t, err)
}

func TestAppointmentRepository_CreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	apt.ID = uuid.Nil
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(
			sqlmock.AnyArg(), apt.OrgID, apt.UserID, nil, nil,
			apt.Date, apt.StartTime, apt.EndTime, apt.Status, apt.Notes,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), apt)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, apt.ID)
}

func TestAppointmentRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(apt.ID).
		WillReturnRows(appointmentRow(apt))

	got, err := repo.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, apt.ID, got.ID)
	assert.Equal(t, apt.StartTime, got.StartTime)
}

func TestAppointmentRepository_GetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(appointmentColumns()))

	_, err := repo.Get(context.Background(), id)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestAppointmentRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(apt.Date, apt.StartTime, apt.EndTime, apt.Status, apt.Notes, sqlmock.AnyArg(), apt.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Update(context.Background(), apt))
}

func TestAppointmentRepository_UpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(apt.Date, apt.StartTime, apt.EndTime, apt.Status, apt.Notes, sqlmock.AnyArg(), apt.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), apt)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestAppointmentRepository_UpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(model.AppointmentStatusConfirmed, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateStatus(context.Background(), id, model.AppointmentStatusConfirmed))
}

func TestAppointmentRepository_ListByOrgDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(apt.OrgID, apt.Date).
		WillReturnRows(appointmentRow(apt))

	got, err := repo.ListByOrgDate(context.Background(), apt.OrgID, apt.Date, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, apt.ID, got[0].ID)
}

func TestAppointmentRepository_ListByOrgDateExcludes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	excludeID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("id != $3")).
		WithArgs(apt.OrgID, apt.Date, excludeID).
		WillReturnRows(appointmentRow(apt))

	got, err := repo.ListByOrgDate(context.Background(), apt.OrgID, apt.Date, &excludeID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppointmentRepository_ListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := sampleAppointment()
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(apt.OrgID, apt.Date, model.AppointmentStatusScheduled).
		WillReturnRows(appointmentRow(apt))

	got, err := repo.List(context.Background(), &model.AppointmentFilters{
		OrgID:  apt.OrgID,
		Date:   apt.Date,
		Status: model.AppointmentStatusScheduled,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppointmentRepository_WithOrgDateLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	orgID := uuid.New()
	apt := sampleAppointment()
	apt.OrgID = orgID

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(orgDateLockKey(orgID, "2026-03-02")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithOrgDateLock(context.Background(), orgID, "2026-03-02", func(tx repository.Tx) error {
		if err := tx.Appointments().Create(context.Background(), apt); err != nil {
			return err
		}
		return tx.Outbox().Create(context.Background(), &model.OutboxEvent{
			EventType: model.EventAppointmentBooked,
			Payload:   []byte(`{}`),
		})
	})
	assert.NoError(t, err)
}

func TestAppointmentRepository_WithOrgDateLockRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	orgID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(orgDateLockKey(orgID, "2026-03-02")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	wantErr := apperrors.SlotNotAvailable()
	err := repo.WithOrgDateLock(context.Background(), orgID, "2026-03-02", func(repository.Tx) error {
		return wantErr
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrSlotNotAvailable))
}

func TestOrgDateLockKeyStable(t *testing.T) {
	orgID := uuid.MustParse("7b8a1a39-4f0e-4a9a-9d3c-2a1f6e5b4c3d")

	assert.Equal(t, orgDateLockKey(orgID, "2026-03-02"), orgDateLockKey(orgID, "2026-03-02"))
	assert.NotEqual(t, orgDateLockKey(orgID, "2026-03-02"), orgDateLockKey(orgID, "2026-03-03"))
	assert.NotEqual(t, orgDateLockKey(orgID, "2026-03-02"), orgDateLockKey(uuid.New(), "2026-03-02"))
}

func TestOrgAgentRepository_IsOrgAgent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrgAgentRepository(db)

	userID, orgID := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(userID, orgID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	isAgent, err := repo.IsOrgAgent(context.Background(), userID, orgID)
	require.NoError(t, err)
	assert.True(t, isAgent)
}
