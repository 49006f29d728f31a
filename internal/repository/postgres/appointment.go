package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careops/scheduler-api/internal/model"
	"github.com/careops/scheduler-api/internal/repository"
	apperrors "github.com/careops/scheduler-api/pkg/errors"
)

const uniqueViolation = "23505"

// slotIndexName is the partial unique index guarding the double-booking
// invariant: one non-cancelled, non-rejected appointment per doctor/date/time.
const slotIndexName = "appointments_doctor_slot_active_idx"

func isSlotViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == slotIndexName
	}
	return false
}

const numberConstraintName = "appointments_appointment_number_key"

func isNumberViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == numberConstraintName
	}
	return false
}

const appointmentColumns = `
	id, appointment_number, patient_id, doctor_id,
	appointment_date, appointment_time, reason, symptoms, doctor_notes,
	status, cancellation_reason, status_updated_at, created_at, updated_at
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, appointment_number, patient_id, doctor_id,
			appointment_date, appointment_time, reason, symptoms, doctor_notes,
			status, status_updated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.AppointmentNumber,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.AppointmentDate,
		appointment.AppointmentTime,
		appointment.Reason,
		appointment.Symptoms,
		appointment.DoctorNotes,
		appointment.Status,
		appointment.StatusUpdatedAt,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isSlotViolation(err) {
			return apperrors.SlotConflict()
		}
		if isNumberViolation(err) {
			return apperrors.Storage(fmt.Errorf("failed to create appointment: %w", repository.ErrDuplicateNumber))
		}
		return apperrors.Storage(fmt.Errorf("failed to create appointment: %w", err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, apperrors.Storage(fmt.Errorf("failed to get appointment: %w", err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.AppointmentListItem, error) {
	query := `
		SELECT
			a.id, a.appointment_number, a.patient_id, a.doctor_id,
			a.appointment_date, a.appointment_time, a.reason, a.symptoms, a.doctor_notes,
			a.status, a.cancellation_reason, a.status_updated_at, a.created_at, a.updated_at,
			p.first_name AS patient_first_name,
			p.last_name AS patient_last_name,
			d.first_name AS doctor_first_name,
			d.last_name AS doctor_last_name,
			d.specialization
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		JOIN doctors d ON a.doctor_id = d.id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filter.PatientID != nil {
		query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, *filter.PatientID)
		argCount++
	}
	if filter.DoctorID != nil {
		query += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
		args = append(args, *filter.DoctorID)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}
	if filter.Date != "" {
		query += fmt.Sprintf(" AND a.appointment_date = $%d", argCount)
		args = append(args, filter.Date)
		argCount++
	}

	query += " ORDER BY a.appointment_date DESC, a.appointment_time DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filter.Limit, filter.Offset)

	appointments := []*model.AppointmentListItem{}
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1,
			cancellation_reason = $2,
			doctor_notes = $3,
			status_updated_at = $4,
			updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.Status,
		appointment.CancellationReason,
		appointment.DoctorNotes,
		appointment.StatusUpdatedAt,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to update appointment status: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepository) HasConflict(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) (bool, error) {
	return hasConflict(ctx, r.db, doctorID, date, timeOfDay, excludeID)
}

func (r *appointmentRepository) HasConflictTx(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) (bool, error) {
	return hasConflict(ctx, tx, doctorID, date, timeOfDay, excludeID)
}

func hasConflict(ctx context.Context, q sqlx.QueryerContext, doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND appointment_date = $2
			AND appointment_time = $3
			AND status NOT IN ('cancelled', 'rejected')
	`
	args := []interface{}{doctorID, date, timeOfDay}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}
	query += ")"

	var conflict bool
	if err := sqlx.GetContext(ctx, q, &conflict, query, args...); err != nil {
		return false, apperrors.Storage(fmt.Errorf("failed to check slot conflict: %w", err))
	}
	return conflict, nil
}

// WithTx executes fn within a transaction
func (r *appointmentRepository) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Storage(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func (r *appointmentRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`

	var appointment model.Appointment
	err := tx.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, apperrors.Storage(fmt.Errorf("failed to lock appointment: %w", err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateScheduleTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appointment_date = $1,
			appointment_time = $2,
			status = $3,
			cancellation_reason = $4,
			status_updated_at = $5,
			updated_at = $6
		WHERE id = $7
	`
	result, err := tx.ExecContext(ctx, query,
		appointment.AppointmentDate,
		appointment.AppointmentTime,
		appointment.Status,
		appointment.CancellationReason,
		appointment.StatusUpdatedAt,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		if isSlotViolation(err) {
			return apperrors.SlotConflict()
		}
		return apperrors.Storage(fmt.Errorf("failed to reschedule appointment: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("appointment")
	}
	return nil
}
