package model

import (
	"github.com/google/uuid"
)

// PatientRef and DoctorRef are the minimal display projections of entities
// owned elsewhere. The scheduler only needs existence plus a name.

type PatientRef struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email,omitempty"`
}

type DoctorRef struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Specialization string    `db:"specialization" json:"specialization,omitempty"`
	Email          string    `db:"email" json:"email,omitempty"`
}
