package referral

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

type Service struct {
	repo     repository.ReferralRepository
	users    repository.UserRepository
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewService(repo repository.ReferralRepository, users repository.UserRepository, notifier notification.Notifier) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		logger:   log.With().Str("component", "referral").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, actor *model.User, req *model.CreateReferralRequest) (*model.Referral, error) {
	if actor.Role != model.RoleDoctor {
		return nil, apperrors.RoleDenied("Only doctors can refer patients")
	}
	if req.ReferredDoctorID == actor.ID {
		return nil, apperrors.BadRequest("You cannot refer a patient to yourself", nil)
	}
	patient, err := service.RequireUser(ctx, s.users, req.PatientID, model.RolePatient, "Patient")
	if err != nil {
		return nil, err
	}
	referred, err := service.RequireUser(ctx, s.users, req.ReferredDoctorID, model.RoleDoctor, "Doctor")
	if err != nil {
		return nil, err
	}

	ref := &model.Referral{
		PatientID:         patient.ID,
		ReferringDoctorID: actor.ID,
		ReferredDoctorID:  referred.ID,
		Department:        req.Department,
		Reason:            req.Reason,
		Status:            model.ReferralStatusPending,
	}
	if err := s.repo.Create(ctx, ref); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.notify(ctx, referred, fmt.Sprintf("You have a new referral from Dr. %s for patient %s.", actor.Username, patient.Username))
	s.notify(ctx, patient, fmt.Sprintf("You have been referred to Dr. %s (%s).", referred.Username, ref.Department))
	return ref, nil
}

func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.Referral, error) {
	var (
		items []*model.Referral
		err   error
	)
	switch actor.Role {
	case model.RoleDoctor:
		items, err = s.repo.ListForDoctor(ctx, actor.ID)
	case model.RolePatient:
		items, err = s.repo.ListForPatient(ctx, actor.ID)
	default:
		return nil, apperrors.RoleDenied("Unauthorized")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

// UpdateStatus lets the referred doctor accept or decline.
func (s *Service) UpdateStatus(ctx context.Context, actor *model.User, id int64, status string) (*model.Referral, error) {
	ref, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapNotFound(err, "Referral")
	}
	if actor.ID != ref.ReferredDoctorID {
		return nil, apperrors.RoleDenied("Unauthorized")
	}
	if status != model.ReferralStatusAccepted && status != model.ReferralStatusDeclined {
		return nil, apperrors.BadRequest("Invalid status", nil)
	}
	if err := s.repo.UpdateStatus(ctx, ref.ID, status); err != nil {
		return nil, service.MapNotFound(err, "Referral")
	}
	ref.Status = status

	referring, err := s.users.Get(ctx, ref.ReferringDoctorID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("referral_id", ref.ID).Msg("referring doctor not found")
		return ref, nil
	}
	s.notify(ctx, referring, fmt.Sprintf("Your referral #%d has been %s by Dr. %s.", ref.ID, status, actor.Username))
	return ref, nil
}

func (s *Service) notify(ctx context.Context, recipient *model.User, message string) {
	if err := s.notifier.Notify(ctx, recipient, message); err != nil {
		s.logger.Warn().Err(err).Int64("recipient_id", recipient.ID).Msg("failed to send referral notification")
	}
}
