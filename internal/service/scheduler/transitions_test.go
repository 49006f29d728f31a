package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/careops/scheduler-api/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    model.AppointmentStatus
		to      model.AppointmentStatus
		allowed bool
	}{
		{model.AppointmentStatusBooked, model.AppointmentStatusConfirmed, true},
		{model.AppointmentStatusBooked, model.AppointmentStatusRejected, true},
		{model.AppointmentStatusBooked, model.AppointmentStatusCancelled, true},
		{model.AppointmentStatusBooked, model.AppointmentStatusCompleted, false},
		{model.AppointmentStatusBooked, model.AppointmentStatusNoShow, false},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, true},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled, true},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusNoShow, true},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusRejected, false},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusBooked, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.from, tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	terminals := []model.AppointmentStatus{
		model.AppointmentStatusRejected,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	}
	all := []model.AppointmentStatus{
		model.AppointmentStatusBooked,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusRejected,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	}

	for _, from := range terminals {
		assert.True(t, from.Terminal())
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s should be closed", from, to)
		}
	}
}

func TestSelfTransitionsRejected(t *testing.T) {
	all := []model.AppointmentStatus{
		model.AppointmentStatusBooked,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusRejected,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	}
	for _, s := range all {
		assert.False(t, CanTransition(s, s), "%s -> %s should be rejected", s, s)
	}
}
