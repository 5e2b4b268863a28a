package lab

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
	return NewService(store.LabTests(), store.Users(), notifier), store
}

func TestOrderAndComplete(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	doctor := store.Seed(model.RoleDoctor, "house")
	patient := store.Seed(model.RolePatient, "pat")
	tech := store.Seed(model.RoleLabTechnician, "tech")

	test, err := svc.Order(ctx, doctor, &model.OrderLabTestRequest{PatientID: patient.ID, TestName: "CBC"})
	require.NoError(t, err)
	assert.Equal(t, model.LabStatusPending, test.Status)

	techNotes := store.NotificationsFor(tech.ID)
	require.Len(t, techNotes, 1)
	assert.Equal(t, "New lab test ordered: CBC by Dr. house.", techNotes[0].Message)

	status, result := model.LabStatusCompleted, "normal"
	updated, err := svc.Update(ctx, tech, test.ID, &model.UpdateLabTestRequest{Status: &status, Result: &result})
	require.NoError(t, err)
	assert.Equal(t, model.LabStatusCompleted, updated.Status)
	require.NotNil(t, updated.Result)
	assert.Equal(t, "normal", *updated.Result)

	docNotes := store.NotificationsFor(doctor.ID)
	require.Len(t, docNotes, 1)
	assert.Equal(t, "Lab result for CBC is now available.", docNotes[0].Message)
}

func TestOrderErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	doctor := store.Seed(model.RoleDoctor, "doc")
	nurse := store.Seed(model.RoleCashier, "cash")

	_, err := svc.Order(ctx, nurse, &model.OrderLabTestRequest{PatientID: 1, TestName: "CBC"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Only doctors can order lab tests", appErr.Message)

	_, err = svc.Order(ctx, doctor, &model.OrderLabTestRequest{PatientID: nurse.ID, TestName: "CBC"})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Patient not found", appErr.Message)
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	doctor := store.Seed(model.RoleDoctor, "doc")
	tech := store.Seed(model.RoleLabTechnician, "tech")

	_, err := svc.Update(ctx, doctor, 1, &model.UpdateLabTestRequest{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Only lab technicians can update test results", appErr.Message)

	_, err = svc.Update(ctx, tech, 404, &model.UpdateLabTestRequest{})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Equal(t, "Lab test not found", appErr.Message)
}

func TestListByRole(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	d1 := store.Seed(model.RoleDoctor, "d1")
	d2 := store.Seed(model.RoleDoctor, "d2")
	p := store.Seed(model.RolePatient, "p")
	tech := store.Seed(model.RoleLabTechnician, "tech")
	cashier := store.Seed(model.RoleCashier, "cash")

	for _, d := range []*model.User{d1, d2, d2} {
		_, err := svc.Order(ctx, d, &model.OrderLabTestRequest{PatientID: p.ID, TestName: "Lipid panel"})
		require.NoError(t, err)
	}

	tests := []struct {
		actor *model.User
		want  int
	}{
		{d1, 1},
		{d2, 2},
		{p, 3},
		{tech, 3},
		{cashier, 0},
	}
	for _, tt := range tests {
		items, err := svc.List(ctx, tt.actor)
		require.NoError(t, err)
		assert.Len(t, items, tt.want, tt.actor.Username)
	}
}
