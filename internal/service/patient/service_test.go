package patient

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

func setup(t *testing.T) (*Service, *repotest.Store, *notification.Service) {
	t.Helper()
	store := repotest.NewStore()
	notifier := notification.NewService(store.Notifications(), store.Users(), store.EmailOutbox(), nil, notification.Options{})
	svc := NewService(Repositories{
		Users:         store.Users(),
		Appointments:  store.Appointments(),
		LabTests:      store.LabTests(),
		Prescriptions: store.Prescriptions(),
		Invoices:      store.Invoices(),
		Notifications: store.Notifications(),
		Comments:      store.Comments(),
	}, notifier)
	return svc, store, notifier
}

func TestPatientOnlyViews(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	doctor := store.Seed(model.RoleDoctor, "doc")

	calls := map[string]func() error{
		"profile":   func() error { _, err := svc.Profile(ctx, doctor); return err },
		"history":   func() error { _, err := svc.MedicalHistory(ctx, doctor); return err },
		"billing":   func() error { _, err := svc.BillingHistory(ctx, doctor); return err },
		"unread":    func() error { _, err := svc.UnreadNotifications(ctx, doctor); return err },
		"mark read": func() error { return svc.MarkAllNotificationsRead(ctx, doctor) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			appErr, ok := apperrors.As(call())
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrRoleDenied, appErr.Code)
			assert.Equal(t, "Unauthorized", appErr.Message)
		})
	}
}

func TestMedicalAndBillingHistory(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	patient := store.Seed(model.RolePatient, "pat")
	other := store.Seed(model.RolePatient, "other")
	doctor := store.Seed(model.RoleDoctor, "doc")

	clock, err := model.ParseClock("10:00")
	require.NoError(t, err)
	require.NoError(t, store.Appointments().Create(ctx, &model.Appointment{PatientID: patient.ID, DoctorID: doctor.ID, Time: clock, Status: model.AppointmentStatusPending}))
	require.NoError(t, store.Appointments().Create(ctx, &model.Appointment{PatientID: other.ID, DoctorID: doctor.ID, Time: clock, Status: model.AppointmentStatusPending}))
	require.NoError(t, store.LabTests().Create(ctx, &model.LabTest{PatientID: patient.ID, DoctorID: doctor.ID, TestName: "CBC", Status: model.LabStatusPending}))
	require.NoError(t, store.Invoices().Create(ctx, &model.Invoice{PatientID: patient.ID, Amount: 20, Status: model.InvoiceStatusPending}))

	history, err := svc.MedicalHistory(ctx, patient)
	require.NoError(t, err)
	assert.Len(t, history.Appointments, 1)
	assert.Len(t, history.LabTests, 1)
	assert.NotNil(t, history.Prescriptions)
	assert.Empty(t, history.Prescriptions)

	billing, err := svc.BillingHistory(ctx, patient)
	require.NoError(t, err)
	require.Len(t, billing.Invoices, 1)
	assert.Equal(t, 20.0, billing.Invoices[0].Amount)

	profile, err := svc.Profile(ctx, patient)
	require.NoError(t, err)
	assert.NotNil(t, profile.Patient)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := setup(t)
	patient := store.Seed(model.RolePatient, "pat")

	require.NoError(t, notifier.Notify(ctx, patient, "one"))
	require.NoError(t, notifier.Notify(ctx, patient, "two"))

	unread, err := svc.UnreadNotifications(ctx, patient)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	require.NoError(t, svc.MarkAllNotificationsRead(ctx, patient))
	unread, err = svc.UnreadNotifications(ctx, patient)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestComment(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	patient := store.Seed(model.RolePatient, "pat")
	manager := store.Seed(model.RoleManager, "boss")

	c, err := svc.Comment(ctx, patient, "  Great service at reception  ")
	require.NoError(t, err)
	assert.Equal(t, "Great service at reception", c.Message)

	notes := store.NotificationsFor(manager.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "New patient comment received.", notes[0].Message)

	for _, msg := range []string{"hey", strings.Repeat("a", 501)} {
		_, err := svc.Comment(ctx, patient, msg)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	}

	_, err = svc.Comment(ctx, manager, "manager speaking")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Only patients can submit comments", appErr.Message)
}
