package message

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
	return NewService(store.Messages(), store.Users(), notifier), store
}

func TestSendStaff(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	doctor := store.Seed(model.RoleDoctor, "doc")
	nurse := store.Seed(model.RoleCashier, "cash")
	patient := store.Seed(model.RolePatient, "pat")

	msg, err := svc.SendStaff(ctx, doctor, &model.SendMessageRequest{ReceiverID: nurse.ID, Message: "shift swap?"})
	require.NoError(t, err)
	assert.Equal(t, model.MessageKindStaff, msg.Kind)

	notes := store.NotificationsFor(nurse.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "New message from doc: shift swap?", notes[0].Message)

	inbox, err := svc.Inbox(ctx, nurse, model.MessageKindStaff)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, doctor.ID, inbox[0].SenderID)

	tests := []struct {
		name  string
		actor *model.User
		to    int64
		code  apperrors.ErrorCode
		msg   string
	}{
		{"patient sender", patient, nurse.ID, apperrors.ErrRoleDenied, "Only staff members can send staff messages"},
		{"patient receiver", doctor, patient.ID, apperrors.ErrBadRequest, "Receiver must be a staff member"},
		{"missing receiver", doctor, 999, apperrors.ErrNotFound, "Receiver not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendStaff(ctx, tt.actor, &model.SendMessageRequest{ReceiverID: tt.to, Message: "hi"})
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.msg, appErr.Message)
		})
	}
}

func TestSendManager(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	manager := store.Seed(model.RoleManager, "boss")
	cashier := store.Seed(model.RoleCashier, "cash")

	_, err := svc.SendManager(ctx, manager, &model.SendMessageRequest{ReceiverID: cashier.ID, Subject: "Audit", Message: "Please send the ledger"})
	require.NoError(t, err)

	notes := store.NotificationsFor(cashier.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "New message from boss: Audit", notes[0].Message)

	inbox, err := svc.Inbox(ctx, cashier, model.MessageKindManager)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
	staff, err := svc.Inbox(ctx, cashier, model.MessageKindStaff)
	require.NoError(t, err)
	assert.Empty(t, staff)

	_, err = svc.SendManager(ctx, cashier, &model.SendMessageRequest{ReceiverID: manager.ID, Message: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrRoleDenied))
}
