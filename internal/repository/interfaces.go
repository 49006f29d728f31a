package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careops/scheduler-api/internal/model"
)

// ErrDuplicateNumber signals a collision on the generated appointment number.
// Callers regenerate the number and retry; it never reaches a client.
var ErrDuplicateNumber = errors.New("duplicate appointment number")

// All repository interfaces in one file
type (
	// AppointmentRepository owns the appointments table. The Tx-suffixed
	// methods run against a caller-held transaction so the scheduler can
	// compose read-check-write as one atomic unit.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.AppointmentListItem, error)
		UpdateStatus(ctx context.Context, appointment *model.Appointment) error
		HasConflict(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) (bool, error)

		WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
		GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Appointment, error)
		HasConflictTx(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) (bool, error)
		UpdateScheduleTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error
	}

	// DirectoryRepository does the point reads against the externally owned
	// patient and doctor tables.
	DirectoryRepository interface {
		GetPatient(ctx context.Context, id uuid.UUID) (*model.PatientRef, error)
		GetDoctor(ctx context.Context, id uuid.UUID) (*model.DoctorRef, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		BeginTx(ctx context.Context) (*sql.Tx, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		MoveToDeadLetter(ctx context.Context, tx *sql.Tx, evt *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
