package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careops/scheduler-api/internal/model"
	apperrors "github.com/careops/scheduler-api/pkg/errors"
)

type countingRepo struct {
	patients     map[uuid.UUID]*model.PatientRef
	doctors      map[uuid.UUID]*model.DoctorRef
	patientCalls int
	doctorCalls  int
}

func (r *countingRepo) GetPatient(ctx context.Context, id uuid.UUID) (*model.PatientRef, error) {
	r.patientCalls++
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("patient")
}

func (r *countingRepo) GetDoctor(ctx context.Context, id uuid.UUID) (*model.DoctorRef, error) {
	r.doctorCalls++
	if d, ok := r.doctors[id]; ok {
		return d, nil
	}
	return nil, apperrors.NotFound("doctor")
}

func TestLookupCachesHits(t *testing.T) {
	id := uuid.New()
	repo := &countingRepo{
		patients: map[uuid.UUID]*model.PatientRef{
			id: {ID: id, FirstName: "Ada"},
		},
		doctors: map[uuid.UUID]*model.DoctorRef{},
	}
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := svc.GetPatient(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ada", p.FirstName)
	}
	assert.Equal(t, 1, repo.patientCalls)
}

func TestLookupDoesNotCacheMisses(t *testing.T) {
	id := uuid.New()
	repo := &countingRepo{
		patients: map[uuid.UUID]*model.PatientRef{},
		doctors:  map[uuid.UUID]*model.DoctorRef{},
	}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.GetDoctor(ctx, id)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// the doctor registers between the two calls
	repo.doctors[id] = &model.DoctorRef{ID: id, FirstName: "Sam"}
	d, err := svc.GetDoctor(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sam", d.FirstName)
	assert.Equal(t, 2, repo.doctorCalls)
}
