package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/careops/scheduler-api/pkg/logger"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Service sends appointment notifications to patients and doctors.
type Service interface {
	SendAppointmentBooked(ctx context.Context, to, patientName, date, timeOfDay string) error
	SendStatusChanged(ctx context.Context, to, patientName, status, reason string) error
	SendRescheduled(ctx context.Context, to, patientName, newDate, newTime string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

func NewSMTPService(cfg Config, logger *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpService) SendAppointmentBooked(ctx context.Context, to, patientName, date, timeOfDay string) error {
	subject := "Appointment booked"
	body := fmt.Sprintf("Hello %s,\n\nYour appointment has been booked for %s at %s. You will be notified once the doctor confirms it.\n", patientName, date, timeOfDay)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendStatusChanged(ctx context.Context, to, patientName, status, reason string) error {
	subject := fmt.Sprintf("Appointment %s", status)
	body := fmt.Sprintf("Hello %s,\n\nYour appointment is now %s.", patientName, status)
	if reason != "" {
		body += fmt.Sprintf("\nReason: %s", reason)
	}
	body += "\n"
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendRescheduled(ctx context.Context, to, patientName, newDate, newTime string) error {
	subject := "Appointment rescheduled"
	body := fmt.Sprintf("Hello %s,\n\nYour appointment has been moved to %s at %s and is awaiting confirmation.\n", patientName, newDate, newTime)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error(err, "failed to send email", "to", to, "subject", subject)
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
