package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careops/scheduler-api/internal/model"
	"github.com/careops/scheduler-api/internal/service/scheduler"
	apperrors "github.com/careops/scheduler-api/pkg/errors"
	"github.com/careops/scheduler-api/pkg/logger"
	"github.com/careops/scheduler-api/pkg/metrics"
)

type memRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (r *memRepo) Create(ctx context.Context, a *model.Appointment) error {
	if r.taken(a.DoctorID, a.AppointmentDate, a.AppointmentTime, nil) {
		return apperrors.SlotConflict()
	}
	copied := *a
	r.appointments[a.ID] = &copied
	return nil
}

func (r *memRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment")
	}
	copied := *a
	return &copied, nil
}

func (r *memRepo) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.AppointmentListItem, error) {
	items := []*model.AppointmentListItem{}
	for _, a := range r.appointments {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.Date != "" && a.AppointmentDate != filter.Date {
			continue
		}
		items = append(items, &model.AppointmentListItem{Appointment: *a})
	}
	return items, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, a *model.Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return apperrors.NotFound("appointment")
	}
	copied := *a
	r.appointments[a.ID] = &copied
	return nil
}

func (r *memRepo) HasConflict(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) (bool, error) {
	return r.taken(doctorID, date, timeOfDay, excludeID), nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func (r *memRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Appointment, error) {
	return r.Get(ctx, id)
}

func (r *memRepo) HasConflictTx(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) (bool, error) {
	return r.taken(doctorID, date, timeOfDay, excludeID), nil
}

func (r *memRepo) UpdateScheduleTx(ctx context.Context, tx *sqlx.Tx, a *model.Appointment) error {
	return r.UpdateStatus(ctx, a)
}

func (r *memRepo) taken(doctorID uuid.UUID, date, timeOfDay string, excludeID *uuid.UUID) bool {
	for _, a := range r.appointments {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.AppointmentDate == date && a.AppointmentTime == timeOfDay && a.Status.Blocking() {
			return true
		}
	}
	return false
}

type memDirectory struct {
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func (d *memDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*model.PatientRef, error) {
	if id != d.patientID {
		return nil, apperrors.NotFound("patient")
	}
	return &model.PatientRef{ID: id, FirstName: "Ada", LastName: "Lin"}, nil
}

func (d *memDirectory) GetDoctor(ctx context.Context, id uuid.UUID) (*model.DoctorRef, error) {
	if id != d.doctorID {
		return nil, apperrors.NotFound("doctor")
	}
	return &model.DoctorRef{ID: id, FirstName: "Sam", LastName: "Ortiz"}, nil
}

type noopEmitter struct{}

func (noopEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return nil
}

type testEnv struct {
	engine    *gin.Engine
	repo      *memRepo
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		require.NoError(t, model.RegisterValidations(v))
	}

	repo := &memRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
	patientID := uuid.New()
	doctorID := uuid.New()

	svc := scheduler.NewService(
		repo,
		&memDirectory{patientID: patientID, doctorID: doctorID},
		noopEmitter{},
		logger.NewLogger(nil),
		metrics.NewWith(prometheus.NewRegistry(), "test"),
	)

	engine := gin.New()
	group := engine.Group("/api/v1")
	group.Use(func(c *gin.Context) {
		c.Set("principal", &model.Principal{UserID: patientID, Role: model.RolePatient})
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(group)

	return &testEnv{engine: engine, repo: repo, patientID: patientID, doctorID: doctorID}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createPayload() map[string]interface{} {
	return map[string]interface{}{
		"patientId":       e.patientID.String(),
		"doctorId":        e.doctorID.String(),
		"appointmentDate": "2026-10-01",
		"appointmentTime": "09:30",
		"reason":          "follow-up",
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Appointment created successfully", body["message"])
	assert.NotEmpty(t, body["id"])
	appt := body["appointment"].(map[string]interface{})
	assert.Equal(t, "booked", appt["status"])
}

func TestCreateAppointmentUnknownPatientEndpoint(t *testing.T) {
	env := setup(t)

	payload := env.createPayload()
	payload["patientId"] = uuid.New().String()
	w := env.do(t, http.MethodPost, "/api/v1/appointments", payload)

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "patient not found", body["message"])
}

func TestCreateAppointmentUnknownDoctorEndpoint(t *testing.T) {
	env := setup(t)

	payload := env.createPayload()
	payload["doctorId"] = uuid.New().String()
	w := env.do(t, http.MethodPost, "/api/v1/appointments", payload)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "doctor not found", decode(t, w)["message"])
}

func TestCreateAppointmentConflictEndpoint(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload())
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_conflict", decode(t, w)["error"])
}

func TestCreateAppointmentBadDate(t *testing.T) {
	env := setup(t)

	payload := env.createPayload()
	payload["appointmentDate"] = "10/01/2026"
	w := env.do(t, http.MethodPost, "/api/v1/appointments", payload)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["error"])
}

func TestCreateAppointmentMissingFields(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"patientId": env.patientID.String(),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAppointmentEndpoint(t *testing.T) {
	env := setup(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()))
	id := created["id"].(string)

	w := env.do(t, http.MethodGet, "/api/v1/appointments/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	appt := decode(t, w)["appointment"].(map[string]interface{})
	assert.Equal(t, id, appt["id"])
}

func TestGetAppointmentNotFoundEndpoint(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/appointments/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionStatusEndpoint(t *testing.T) {
	env := setup(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()))
	id := created["id"].(string)

	w := env.do(t, http.MethodPatch, "/api/v1/appointments/"+id, map[string]interface{}{
		"status": "confirmed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Appointment updated successfully", body["message"])
	appt := body["appointment"].(map[string]interface{})
	assert.Equal(t, "confirmed", appt["status"])
}

func TestTransitionStatusInvalidEndpoint(t *testing.T) {
	env := setup(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()))
	id := created["id"].(string)

	w := env.do(t, http.MethodPatch, "/api/v1/appointments/"+id, map[string]interface{}{
		"status": "completed",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_transition", decode(t, w)["error"])
}

func TestTransitionStatusRejectWithoutReason(t *testing.T) {
	env := setup(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()))
	id := created["id"].(string)

	w := env.do(t, http.MethodPatch, "/api/v1/appointments/"+id, map[string]interface{}{
		"status": "rejected",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["error"])
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	env := setup(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()))
	id := created["id"].(string)

	w := env.do(t, http.MethodDelete, "/api/v1/appointments/"+id+"?reason=travel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Appointment cancelled", decode(t, w)["message"])

	// the row survives as a cancelled appointment
	w = env.do(t, http.MethodGet, "/api/v1/appointments/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	appt := decode(t, w)["appointment"].(map[string]interface{})
	assert.Equal(t, "cancelled", appt["status"])
	assert.Equal(t, "travel", appt["cancellation_reason"])
}

func TestRescheduleEndpoint(t *testing.T) {
	env := setup(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()))
	id := created["id"].(string)

	w := env.do(t, http.MethodPost, "/api/v1/appointments/"+id+"/reschedule", map[string]interface{}{
		"newDate": "2026-10-02",
		"newTime": "11:00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Appointment rescheduled successfully", body["message"])
	appt := body["appointment"].(map[string]interface{})
	assert.Equal(t, "2026-10-02", appt["appointment_date"])
	assert.Equal(t, "11:00", appt["appointment_time"])
	assert.Equal(t, "booked", appt["status"])
}

func TestRescheduleConflictEndpoint(t *testing.T) {
	env := setup(t)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()).Code)

	payload := env.createPayload()
	payload["appointmentTime"] = "10:30"
	second := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", payload))

	w := env.do(t, http.MethodPost, "/api/v1/appointments/"+second["id"].(string)+"/reschedule", map[string]interface{}{
		"newDate": "2026-10-01",
		"newTime": "09:30",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_conflict", decode(t, w)["error"])
}

func TestRescheduleCancelledEndpoint(t *testing.T) {
	env := setup(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()))
	id := created["id"].(string)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/v1/appointments/"+id, nil).Code)

	w := env.do(t, http.MethodPost, "/api/v1/appointments/"+id+"/reschedule", map[string]interface{}{
		"newDate": "2026-10-02",
		"newTime": "11:00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_transition", decode(t, w)["error"])
}

func TestListAppointmentsEndpoint(t *testing.T) {
	env := setup(t)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/appointments", env.createPayload()).Code)

	payload := env.createPayload()
	payload["appointmentDate"] = "2026-10-02"
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/appointments", payload).Code)

	w := env.do(t, http.MethodGet, "/api/v1/appointments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	appts := decode(t, w)["appointments"].([]interface{})
	assert.Len(t, appts, 2)

	w = env.do(t, http.MethodGet, "/api/v1/appointments?date=2026-10-02", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["appointments"].([]interface{}), 1)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/appointments?doctorId=%s&status=booked", env.doctorID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["appointments"].([]interface{}), 2)
}

func TestListAppointmentsBadFilters(t *testing.T) {
	env := setup(t)

	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/appointments?patientId=abc", nil).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/appointments?status=archived", nil).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/appointments?limit=abc", nil).Code)
}
