package patient

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

const (
	msgUnauthorized  = "Unauthorized"
	minCommentLength = 5
	maxCommentLength = 500
)

// Repositories groups the tables a patient's self-service views read from.
type Repositories struct {
	Users         repository.UserRepository
	Appointments  repository.AppointmentRepository
	LabTests      repository.LabTestRepository
	Prescriptions repository.PrescriptionRepository
	Invoices      repository.InvoiceRepository
	Notifications repository.NotificationRepository
	Comments      repository.PatientCommentRepository
}

type Service struct {
	repos    Repositories
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewService(repos Repositories, notifier notification.Notifier) *Service {
	return &Service{
		repos:    repos,
		notifier: notifier,
		logger:   log.With().Str("component", "patient").Logger(),
	}
}

func requirePatient(actor *model.User) error {
	if actor.Role != model.RolePatient {
		return apperrors.RoleDenied(msgUnauthorized)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, actor *model.User) (*model.Profile, error) {
	if err := requirePatient(actor); err != nil {
		return nil, err
	}
	profile, err := s.repos.Users.GetPatientProfile(ctx, actor.ID)
	if err != nil {
		return nil, service.MapNotFound(err, "Profile")
	}
	return &model.Profile{User: actor, Patient: profile}, nil
}

func (s *Service) MedicalHistory(ctx context.Context, actor *model.User) (*model.MedicalHistory, error) {
	if err := requirePatient(actor); err != nil {
		return nil, err
	}
	appointments, err := s.repos.Appointments.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	tests, err := s.repos.LabTests.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	prescriptions, err := s.repos.Prescriptions.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	history := &model.MedicalHistory{
		Appointments:  make([]model.Appointment, 0, len(appointments)),
		LabTests:      make([]model.LabTest, 0, len(tests)),
		Prescriptions: make([]model.Prescription, 0, len(prescriptions)),
	}
	for _, a := range appointments {
		history.Appointments = append(history.Appointments, *a)
	}
	for _, t := range tests {
		history.LabTests = append(history.LabTests, *t)
	}
	for _, p := range prescriptions {
		history.Prescriptions = append(history.Prescriptions, *p)
	}
	return history, nil
}

func (s *Service) BillingHistory(ctx context.Context, actor *model.User) (*model.BillingHistory, error) {
	if err := requirePatient(actor); err != nil {
		return nil, err
	}
	invoices, err := s.repos.Invoices.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	history := &model.BillingHistory{Invoices: make([]model.Invoice, 0, len(invoices))}
	for _, inv := range invoices {
		history.Invoices = append(history.Invoices, *inv)
	}
	return history, nil
}

func (s *Service) UnreadNotifications(ctx context.Context, actor *model.User) ([]*model.Notification, error) {
	if err := requirePatient(actor); err != nil {
		return nil, err
	}
	items, err := s.repos.Notifications.ListByRecipient(ctx, actor.ID, model.NotificationStatusUnread)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor *model.User) error {
	if err := requirePatient(actor); err != nil {
		return err
	}
	if _, err := s.repos.Notifications.MarkAllRead(ctx, actor.ID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Comment records patient feedback for managers.
func (s *Service) Comment(ctx context.Context, actor *model.User, message string) (*model.PatientComment, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.RoleDenied("Only patients can submit comments")
	}
	message = strings.TrimSpace(message)
	if n := utf8.RuneCountInString(message); n < minCommentLength || n > maxCommentLength {
		return nil, apperrors.BadRequest("Comment must be between 5 and 500 characters", nil)
	}

	comment := &model.PatientComment{PatientID: actor.ID, Message: message}
	if err := s.repos.Comments.Create(ctx, comment); err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.notifier.NotifyRole(ctx, model.RoleManager, "New patient comment received."); err != nil {
		s.logger.Warn().Err(err).Int64("comment_id", comment.ID).Msg("failed to notify managers")
	}
	return comment, nil
}
