package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/careops/scheduler-api/internal/model"
	"github.com/careops/scheduler-api/internal/repository"
)

// Lookup resolves patient and doctor ids to minimal display records.
type Lookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*model.PatientRef, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*model.DoctorRef, error)
}

// Service caches point lookups so repeated bookings against the same doctor
// don't hit the directory tables every time. Negative results are not cached;
// a patient registered a second ago must be bookable immediately.
type Service struct {
	repo  repository.DirectoryRepository
	cache *gocache.Cache
}

const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 5 * time.Minute
)

func NewService(repo repository.DirectoryRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.PatientRef, error) {
	key := "patient:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.PatientRef), nil
	}

	patient, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(key, patient)
	return patient, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.DoctorRef, error) {
	key := "doctor:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.DoctorRef), nil
	}

	doctor, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(key, doctor)
	return doctor, nil
}
