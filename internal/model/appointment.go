package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// Valid reports whether s is a known status value.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusBooked, AppointmentStatusConfirmed, AppointmentStatusRejected,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusRejected, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Blocking reports whether an appointment in s still occupies its slot.
// Cancelled and rejected appointments free the slot for rebooking.
func (s AppointmentStatus) Blocking() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusRejected
}

// Appointment date/time are opaque local values: a calendar date and a
// time-of-day with no timezone attached, compared by equality only.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Appointment struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	AppointmentNumber  string            `db:"appointment_number" json:"appointment_number"`
	PatientID          uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	AppointmentDate    string            `db:"appointment_date" json:"appointment_date"`
	AppointmentTime    string            `db:"appointment_time" json:"appointment_time"`
	Reason             string            `db:"reason" json:"reason,omitempty"`
	Symptoms           string            `db:"symptoms" json:"symptoms,omitempty"`
	DoctorNotes        string            `db:"doctor_notes" json:"doctor_notes,omitempty"`
	Status             AppointmentStatus `db:"status" json:"status"`
	CancellationReason *string           `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	StatusUpdatedAt    time.Time         `db:"status_updated_at" json:"status_updated_at"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentListItem carries the display fields joined in for list views.
type AppointmentListItem struct {
	Appointment
	PatientFirstName string `db:"patient_first_name" json:"patient_first_name"`
	PatientLastName  string `db:"patient_last_name" json:"patient_last_name"`
	DoctorFirstName  string `db:"doctor_first_name" json:"doctor_first_name"`
	DoctorLastName   string `db:"doctor_last_name" json:"doctor_last_name"`
	Specialization   string `db:"specialization" json:"specialization"`
}

// One strict input schema per operation. Unknown aliases like patient_id are
// rejected by binding, not coalesced.
type CreateAppointmentRequest struct {
	PatientID       uuid.UUID `json:"patientId" binding:"required"`
	DoctorID        uuid.UUID `json:"doctorId" binding:"required"`
	AppointmentDate string    `json:"appointmentDate" binding:"required,datetime=2006-01-02"`
	AppointmentTime string    `json:"appointmentTime" binding:"required,datetime=15:04"`
	Reason          string    `json:"reason" binding:"max=1000"`
	Symptoms        string    `json:"symptoms" binding:"max=1000"`
}

type TransitionRequest struct {
	Status      AppointmentStatus `json:"status" binding:"required,appointment_status"`
	Reason      string            `json:"reason" binding:"max=1000"`
	DoctorNotes string            `json:"notes" binding:"max=2000"`
}

type RescheduleRequest struct {
	NewDate string `json:"newDate" binding:"required,datetime=2006-01-02"`
	NewTime string `json:"newTime" binding:"required,datetime=15:04"`
	Reason  string `json:"reason" binding:"max=1000"`
}

// AppointmentFilter narrows list queries; nil/empty fields are omitted and
// the rest are AND-combined.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    AppointmentStatus
	Date      string
	Limit     int
	Offset    int
}
