package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/careops/scheduler-api/internal/model"
	apperrors "github.com/careops/scheduler-api/pkg/errors"
)

// Point reads against the patient and doctor tables, which are owned by the
// registration service. The scheduler never writes to them.

func (r *directoryRepository) GetPatient(ctx context.Context, id uuid.UUID) (*model.PatientRef, error) {
	query := `SELECT id, first_name, last_name, email FROM patients WHERE id = $1`

	var patient model.PatientRef
	err := r.db.GetContext(ctx, &patient, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Storage(fmt.Errorf("failed to get patient: %w", err))
	}
	return &patient, nil
}

func (r *directoryRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*model.DoctorRef, error) {
	query := `SELECT id, first_name, last_name, specialization, email FROM doctors WHERE id = $1`

	var doctor model.DoctorRef
	err := r.db.GetContext(ctx, &doctor, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, apperrors.Storage(fmt.Errorf("failed to get doctor: %w", err))
	}
	return &doctor, nil
}
