package appointment

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/handler/handlertest"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/appointment"
)

func TestAppointmentLifecycle(t *testing.T) {
	env := handlertest.New(t)
	env.Mount(NewHandler(appointment.NewService(env.Store.Appointments(), env.Store.Users(), env.Notifier)))

	patient := env.Store.Seed(model.RolePatient, "pat")
	doctor := env.Store.Seed(model.RoleDoctor, "doc")
	outsider := env.Store.Seed(model.RolePatient, "other")

	create := map[string]interface{}{
		"doctor_id": doctor.ID,
		"date":      "2026-11-02",
		"time":      "09:30",
		"reason":    "checkup",
	}

	w, body := env.Do(t, http.MethodPost, "/api/v1/appointments/create", doctor, create)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only patients can create appointments", body.Message)

	w, _ = env.Do(t, http.MethodPost, "/api/v1/appointments/create", patient,
		map[string]interface{}{"doctor_id": doctor.ID, "date": "02/11/2026", "time": "09:30"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.Do(t, http.MethodPost, "/api/v1/appointments/create", patient,
		map[string]interface{}{"doctor_id": doctor.ID, "date": "", "time": "09:30"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	appointments, err := env.Store.Appointments().ListByPatient(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Empty(t, appointments)

	w, body = env.Do(t, http.MethodPost, "/api/v1/appointments/create", patient, create)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var appt model.Appointment
	handlertest.DecodeData(t, body, &appt)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, patient.ID, appt.PatientID)
	assert.Len(t, env.Store.NotificationsFor(doctor.ID), 1)

	w, body = env.Do(t, http.MethodGet, "/api/v1/appointments/list", doctor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []model.Appointment
	handlertest.DecodeData(t, body, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, appt.ID, listed[0].ID)

	update := fmt.Sprintf("/api/v1/appointments/update/%d", appt.ID)
	w, _ = env.Do(t, http.MethodPut, update, doctor, map[string]string{"status": "finished"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.Do(t, http.MethodPut, update, outsider, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unauthorized", body.Message)

	w, body = env.Do(t, http.MethodPut, update, doctor, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	handlertest.DecodeData(t, body, &appt)
	assert.Equal(t, model.AppointmentStatusConfirmed, appt.Status)

	notes := env.Store.NotificationsFor(patient.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Your appointment has been updated to 'confirmed'.", notes[0].Message)

	w, body = env.Do(t, http.MethodDelete, fmt.Sprintf("/api/v1/appointments/delete/%d", appt.ID), patient, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Appointment deleted successfully", body.Message)

	w, _ = env.Do(t, http.MethodDelete, fmt.Sprintf("/api/v1/appointments/delete/%d", appt.ID), patient, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAppointmentsRejectsStaff(t *testing.T) {
	env := handlertest.New(t)
	env.Mount(NewHandler(appointment.NewService(env.Store.Appointments(), env.Store.Users(), env.Notifier)))
	cashier := env.Store.Seed(model.RoleCashier, "cash")

	w, body := env.Do(t, http.MethodGet, "/api/v1/appointments/list", cashier, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unauthorized", body.Message)

	w, _ = env.Do(t, http.MethodGet, "/api/v1/appointments/list", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
