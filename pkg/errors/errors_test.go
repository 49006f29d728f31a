package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{InvalidTransition("completed", "confirmed"), http.StatusBadRequest},
		{NotFound("patient"), http.StatusNotFound},
		{SlotConflict(), http.StatusConflict},
		{Unauthorized(fmt.Errorf("no token")), http.StatusUnauthorized},
		{Timeout(), http.StatusGatewayTimeout},
		{Storage(fmt.Errorf("connection refused")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode(), "kind %s", tt.err.Kind)
	}
}

func TestKindDetection(t *testing.T) {
	err := SlotConflict()
	assert.True(t, IsKind(err, KindSlotConflict))
	assert.False(t, IsKind(err, KindNotFound))

	wrapped := fmt.Errorf("while booking: %w", err)
	assert.True(t, IsKind(wrapped, KindSlotConflict))

	appErr, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindSlotConflict, appErr.Kind)

	assert.False(t, IsKind(fmt.Errorf("plain"), KindStorage))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "patient not found", NotFound("patient").Error())
	assert.Equal(t,
		"cannot transition appointment from completed to confirmed",
		InvalidTransition("completed", "confirmed").Error())

	cause := fmt.Errorf("connection refused")
	storage := Storage(cause)
	assert.Contains(t, storage.Error(), "connection refused")
	assert.Equal(t, cause, storage.Unwrap())
}
