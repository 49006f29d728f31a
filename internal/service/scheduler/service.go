package scheduler

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careops/scheduler-api/internal/model"
	"github.com/careops/scheduler-api/internal/repository"
	"github.com/careops/scheduler-api/internal/service/directory"
	"github.com/careops/scheduler-api/internal/service/event"
	apperrors "github.com/careops/scheduler-api/pkg/errors"
	"github.com/careops/scheduler-api/pkg/logger"
	"github.com/careops/scheduler-api/pkg/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	createAttempts = 3
)

// Service owns the appointment lifecycle: conflict-checked creation, status
// transitions, and transactional rescheduling. It holds no state between
// requests; the store carries all durable state and enforces the
// double-booking invariant at commit time.
type Service struct {
	repo      repository.AppointmentRepository
	directory directory.Lookup
	events    event.Emitter
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, dir directory.Lookup, events event.Emitter, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		directory: dir,
		events:    events,
		logger:    logger,
		metrics:   m,
	}
}

// CreateAppointment books a slot for a patient with a doctor. Both parties
// must exist, and the slot must be free of any appointment still occupying
// it. The repository's unique index closes the race between two concurrent
// bookings that both pass the pre-check.
func (s *Service) CreateAppointment(ctx context.Context, actor *model.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if _, err := s.directory.GetPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.directory.GetDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	conflict, err := s.repo.HasConflict(ctx, req.DoctorID, req.AppointmentDate, req.AppointmentTime, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		s.metrics.SlotConflicts.Inc()
		return nil, apperrors.SlotConflict()
	}

	var appointment *model.Appointment
	for attempt := 0; ; attempt++ {
		now := time.Now()
		id := uuid.New()
		appointment = &model.Appointment{
			ID:                id,
			AppointmentNumber: newAppointmentNumber(now, id),
			PatientID:         req.PatientID,
			DoctorID:          req.DoctorID,
			AppointmentDate:   req.AppointmentDate,
			AppointmentTime:   req.AppointmentTime,
			Reason:            req.Reason,
			Symptoms:          req.Symptoms,
			Status:            model.AppointmentStatusBooked,
			StatusUpdatedAt:   now,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		err := s.repo.Create(ctx, appointment)
		if err == nil {
			break
		}
		// A number collision is invisible to the caller: regenerate and retry.
		if errors.Is(err, repository.ErrDuplicateNumber) && attempt < createAttempts-1 {
			continue
		}
		if apperrors.IsKind(err, apperrors.KindSlotConflict) {
			s.metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.AppointmentsCreated.Inc()
	s.emit(ctx, model.EventAppointmentCreated, appointment, "", actor)
	return appointment, nil
}

// GetAppointment fetches a single appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// TransitionStatus moves an appointment along the state machine. A reason is
// required when rejecting; it is stored as the cancellation reason for both
// rejections and cancellations.
func (s *Service) TransitionStatus(ctx context.Context, actor *model.Principal, id uuid.UUID, req *model.TransitionRequest) (*model.Appointment, error) {
	if !req.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", req.Status))
	}
	if req.Status == model.AppointmentStatusRejected && req.Reason == "" {
		return nil, apperrors.Validation("reason is required when rejecting an appointment")
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(appointment.Status, req.Status) {
		s.metrics.InvalidTransitions.Inc()
		return nil, apperrors.InvalidTransition(string(appointment.Status), string(req.Status))
	}

	previous := appointment.Status
	now := time.Now()

	appointment.Status = req.Status
	if req.Reason != "" {
		reason := req.Reason
		appointment.CancellationReason = &reason
	}
	if req.DoctorNotes != "" {
		appointment.DoctorNotes = req.DoctorNotes
	}
	appointment.StatusUpdatedAt = now
	appointment.UpdatedAt = now

	if err := s.repo.UpdateStatus(ctx, appointment); err != nil {
		return nil, err
	}

	s.metrics.StatusTransitions.WithLabelValues(string(previous), string(req.Status)).Inc()
	s.emit(ctx, model.EventAppointmentStatusChanged, appointment, previous, actor)
	return appointment, nil
}

// CancelAppointment is the soft-delete path: appointments are never removed,
// only moved to cancelled.
func (s *Service) CancelAppointment(ctx context.Context, actor *model.Principal, id uuid.UUID, reason string) (*model.Appointment, error) {
	return s.TransitionStatus(ctx, actor, id, &model.TransitionRequest{
		Status: model.AppointmentStatusCancelled,
		Reason: reason,
	})
}

// RescheduleAppointment moves a live appointment to a new slot as one atomic
// unit: the original row is locked, the target slot is checked with the
// appointment itself excluded from the conflict set, and the date, time and
// status are updated together or not at all.
func (s *Service) RescheduleAppointment(ctx context.Context, actor *model.Principal, id uuid.UUID, req *model.RescheduleRequest) (*model.Appointment, error) {
	var updated *model.Appointment

	err := s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		appointment, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if appointment.Status.Terminal() {
			s.metrics.InvalidTransitions.Inc()
			return apperrors.InvalidTransition(string(appointment.Status), string(model.AppointmentStatusBooked))
		}

		conflict, err := s.repo.HasConflictTx(ctx, tx, appointment.DoctorID, req.NewDate, req.NewTime, &appointment.ID)
		if err != nil {
			return err
		}
		if conflict {
			s.metrics.SlotConflicts.Inc()
			return apperrors.SlotConflict()
		}

		now := time.Now()
		appointment.AppointmentDate = req.NewDate
		appointment.AppointmentTime = req.NewTime
		appointment.Status = model.AppointmentStatusBooked
		if req.Reason != "" {
			reason := req.Reason
			appointment.CancellationReason = &reason
		}
		appointment.StatusUpdatedAt = now
		appointment.UpdatedAt = now

		if err := s.repo.UpdateScheduleTx(ctx, tx, appointment); err != nil {
			return err
		}

		updated = appointment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AppointmentsReslotted.Inc()
	s.emit(ctx, model.EventAppointmentRescheduled, updated, "", actor)
	return updated, nil
}

// ListAppointments is a pure read; filters are AND-combined and results come
// back newest slot first.
func (s *Service) ListAppointments(ctx context.Context, filter *model.AppointmentFilter) ([]*model.AppointmentListItem, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// emit records an event best-effort: a notification that cannot be written
// never fails the operation that produced it.
func (s *Service) emit(ctx context.Context, eventType string, appointment *model.Appointment, previous model.AppointmentStatus, actor *model.Principal) {
	evt := &model.AppointmentEvent{
		Type:           eventType,
		Appointment:    appointment,
		PreviousStatus: previous,
		Actor:          actor,
		OccurredAt:     time.Now(),
	}
	if err := s.events.Emit(ctx, eventType, evt); err != nil {
		s.logger.Error(err, "failed to emit appointment event",
			"event_type", eventType,
			"appointment_id", appointment.ID.String())
	}
}

// newAppointmentNumber builds the human-readable booking reference. The
// suffix comes from the appointment's random id rather than the clock so two
// bookings made at related instants cannot collide; the UNIQUE column plus
// the create retry absorb the residual 1-in-a-million clash.
func newAppointmentNumber(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("APT-%d-%06d", now.Year(), binary.BigEndian.Uint32(id[:4])%1000000)
}
