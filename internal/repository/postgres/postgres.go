package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/careops/scheduler-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type directoryRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewDirectoryRepository(db *sqlx.DB) repository.DirectoryRepository {
	return &directoryRepository{db: db}
}
