package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/okatech-org/consulat-scheduling/internal/repository"
)

// ext is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository can
// run against the pool or inside a transaction opened by WithOrgDateLock.
type ext interface {
	sqlx.ExtContext
}

type appointmentRepository struct {
	db   ext
	pool *sqlx.DB
}

type orgAgentRepository struct {
	db ext
}

type outboxRepository struct {
	db   ext
	pool *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db, pool: db}
}

func NewOrgAgentRepository(db *sqlx.DB) repository.OrgAgentRepository {
	return &orgAgentRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db, pool: db}
}

// tx bundles transaction-bound repositories.
type tx struct {
	appointments repository.AppointmentRepository
	outbox       repository.OutboxRepository
}

func (t *tx) Appointments() repository.AppointmentRepository { return t.appointments }
func (t *tx) Outbox() repository.OutboxRepository            { return t.outbox }
