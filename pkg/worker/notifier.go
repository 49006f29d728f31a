package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/careops/scheduler-api/internal/email"
	"github.com/careops/scheduler-api/internal/model"
	"github.com/careops/scheduler-api/internal/repository"
	"github.com/careops/scheduler-api/pkg/logger"
	"github.com/careops/scheduler-api/pkg/messaging"
)

// Notifier consumes appointment events off the broker and fans them out
// to patient email. Delivery is best effort; a lost notification never
// blocks the scheduling flow that produced it.
type Notifier struct {
	broker    messaging.Broker
	directory repository.DirectoryRepository
	email     email.Service
	logger    *logger.Logger
}

func NewNotifier(
	broker messaging.Broker,
	directory repository.DirectoryRepository,
	email email.Service,
	logger *logger.Logger,
) *Notifier {
	return &Notifier{
		broker:    broker,
		directory: directory,
		email:     email,
		logger:    logger,
	}
}

func (n *Notifier) Start(ctx context.Context) error {
	channels := []string{
		model.EventAppointmentCreated,
		model.EventAppointmentStatusChanged,
		model.EventAppointmentRescheduled,
	}

	for _, channel := range channels {
		msgs, err := n.broker.Subscribe(ctx, channel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		go n.consume(ctx, channel, msgs)
	}

	n.logger.Info("Notifier started", "channels", channels)
	<-ctx.Done()
	return nil
}

func (n *Notifier) consume(ctx context.Context, channel string, msgs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			if err := n.handle(ctx, raw); err != nil {
				n.logger.Error(err, "Failed to handle event", "channel", channel)
			}
		}
	}
}

func (n *Notifier) handle(ctx context.Context, raw []byte) error {
	var evt model.AppointmentEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if evt.Appointment == nil {
		return fmt.Errorf("event %s has no appointment", evt.Type)
	}

	patient, err := n.directory.GetPatient(ctx, evt.Appointment.PatientID)
	if err != nil {
		return fmt.Errorf("failed to resolve patient: %w", err)
	}
	if patient.Email == "" {
		n.logger.Debug("Patient has no email, skipping notification",
			"patient_id", patient.ID.String())
		return nil
	}

	name := patient.FirstName + " " + patient.LastName
	appt := evt.Appointment

	switch evt.Type {
	case model.EventAppointmentCreated:
		return n.email.SendAppointmentBooked(ctx, patient.Email, name, appt.AppointmentDate, appt.AppointmentTime)
	case model.EventAppointmentRescheduled:
		return n.email.SendRescheduled(ctx, patient.Email, name, appt.AppointmentDate, appt.AppointmentTime)
	case model.EventAppointmentStatusChanged:
		reason := ""
		if appt.CancellationReason != nil {
			reason = *appt.CancellationReason
		}
		return n.email.SendStatusChanged(ctx, patient.Email, name, string(appt.Status), reason)
	default:
		n.logger.Warn("Unknown event type", "type", evt.Type)
		return nil
	}
}
