package scheduler

import (
	"github.com/careops/scheduler-api/internal/model"
)

// transitions is the full appointment state machine. Anything not listed is
// rejected, so terminal statuses simply have no entry.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusBooked: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusRejected,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
