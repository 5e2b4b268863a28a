package appointment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

func setup(t *testing.T) (*Service, *repotest.Store) {
	t.Helper()
	store := repotest.NewStore()
	notifier := notification.NewService(store.Notifications(), store.Users(), store.EmailOutbox(), nil, notification.Options{})
	return NewService(store.Appointments(), store.Users(), notifier), store
}

func date(s string) *model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	patient := store.Seed(model.RolePatient, "pat")
	doctor := store.Seed(model.RoleDoctor, "doc")
	cashier := store.Seed(model.RoleCashier, "cash")

	appt, err := svc.Create(ctx, patient, &model.CreateAppointmentRequest{
		DoctorID: doctor.ID,
		Date:     date("2026-11-02"),
		Time:     "09:30",
		Reason:   "checkup",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, model.Clock("09:30:00"), appt.Time)
	assert.Equal(t, patient.ID, appt.PatientID)

	notes := store.NotificationsFor(doctor.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "New appointment request from pat@hospital.test on 2026-11-02 at 09:30:00.", notes[0].Message)

	t.Run("non patient", func(t *testing.T) {
		_, err := svc.Create(ctx, doctor, &model.CreateAppointmentRequest{DoctorID: doctor.ID, Date: date("2026-11-02"), Time: "10:00"})
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrRoleDenied, appErr.Code)
		assert.Equal(t, "Only patients can create appointments", appErr.Message)
	})

	t.Run("doctor must be a doctor", func(t *testing.T) {
		_, err := svc.Create(ctx, patient, &model.CreateAppointmentRequest{DoctorID: cashier.ID, Date: date("2026-11-02"), Time: "10:00"})
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
		assert.Equal(t, "Doctor not found", appErr.Message)
	})

	t.Run("bad time", func(t *testing.T) {
		_, err := svc.Create(ctx, patient, &model.CreateAppointmentRequest{DoctorID: doctor.ID, Date: date("2026-11-02"), Time: "25:99"})
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	p1 := store.Seed(model.RolePatient, "p1")
	p2 := store.Seed(model.RolePatient, "p2")
	doctor := store.Seed(model.RoleDoctor, "doc")
	pharm := store.Seed(model.RolePharmacist, "ph")

	for _, p := range []*model.User{p1, p2, p1} {
		_, err := svc.Create(ctx, p, &model.CreateAppointmentRequest{DoctorID: doctor.ID, Date: date("2026-11-03"), Time: "11:00"})
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, p1)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.List(ctx, doctor)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = svc.List(ctx, pharm)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Unauthorized", appErr.Message)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	patient := store.Seed(model.RolePatient, "pat")
	doctor := store.Seed(model.RoleDoctor, "doc")
	stranger := store.Seed(model.RolePatient, "other")

	appt, err := svc.Create(ctx, patient, &model.CreateAppointmentRequest{DoctorID: doctor.ID, Date: date("2026-11-04"), Time: "08:00"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, doctor, appt.ID, &model.UpdateAppointmentRequest{
		Status: strPtr(model.AppointmentStatusConfirmed),
		Time:   strPtr("08:45"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, updated.Status)
	assert.Equal(t, model.Clock("08:45:00"), updated.Time)

	notes := store.NotificationsFor(patient.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Your appointment has been updated to 'confirmed'.", notes[0].Message)

	_, err = svc.Update(ctx, doctor, appt.ID, &model.UpdateAppointmentRequest{Status: strPtr("done")})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = svc.Update(ctx, stranger, appt.ID, &model.UpdateAppointmentRequest{Reason: strPtr("x")})
	assert.True(t, apperrors.Is(err, apperrors.ErrRoleDenied))

	_, err = svc.Update(ctx, doctor, 9999, &model.UpdateAppointmentRequest{})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	require.Error(t, svc.Delete(ctx, stranger, appt.ID))
	require.NoError(t, svc.Delete(ctx, patient, appt.ID))

	doctorNotes := store.NotificationsFor(doctor.ID)
	require.Len(t, doctorNotes, 2)
	assert.Equal(t, "Your appointment scheduled for 2026-11-04 has been canceled.", doctorNotes[1].Message)

	_, err = store.Appointments().Get(ctx, appt.ID)
	assert.Error(t, err)
}
