package appointment

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

const msgUnauthorized = "Unauthorized"

type Service struct {
	repo     repository.AppointmentRepository
	users    repository.UserRepository
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewService(repo repository.AppointmentRepository, users repository.UserRepository, notifier notification.Notifier) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		logger:   log.With().Str("component", "appointment").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, actor *model.User, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.RoleDenied("Only patients can create appointments")
	}
	if req.Date == nil {
		return nil, apperrors.BadRequest("date is required", nil)
	}
	clock, err := model.ParseClock(req.Time)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	doctor, err := service.RequireUser(ctx, s.users, req.DoctorID, model.RoleDoctor, "Doctor")
	if err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		PatientID: actor.ID,
		DoctorID:  doctor.ID,
		Date:      *req.Date,
		Time:      clock,
		Status:    model.AppointmentStatusPending,
		Reason:    req.Reason,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.notify(ctx, doctor, fmt.Sprintf("New appointment request from %s on %s at %s.", actor.Email, appt.Date, appt.Time))
	return appt, nil
}

// List returns the caller's appointments. Only patients and doctors have any.
func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.Appointment, error) {
	var (
		items []*model.Appointment
		err   error
	)
	switch actor.Role {
	case model.RolePatient:
		items, err = s.repo.ListByPatient(ctx, actor.ID)
	case model.RoleDoctor:
		items, err = s.repo.ListByDoctor(ctx, actor.ID)
	default:
		return nil, apperrors.RoleDenied(msgUnauthorized)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, actor *model.User, id int64, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appt, err := s.participantAppointment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		appt.Date = *req.Date
	}
	if req.Time != nil {
		clock, err := model.ParseClock(*req.Time)
		if err != nil {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		appt.Time = clock
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, apperrors.BadRequest("Invalid status", nil)
		}
		appt.Status = *req.Status
	}
	if req.Reason != nil {
		appt.Reason = *req.Reason
	}

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, service.MapNotFound(err, "Appointment")
	}

	s.notifyOtherParty(ctx, actor, appt, fmt.Sprintf("Your appointment has been updated to '%s'.", appt.Status))
	return appt, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.User, id int64) error {
	appt, err := s.participantAppointment(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, appt.ID); err != nil {
		return service.MapNotFound(err, "Appointment")
	}
	s.notifyOtherParty(ctx, actor, appt, fmt.Sprintf("Your appointment scheduled for %s has been canceled.", appt.Date))
	return nil
}

// participantAppointment loads an appointment the actor is the doctor or patient of.
func (s *Service) participantAppointment(ctx context.Context, actor *model.User, id int64) (*model.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapNotFound(err, "Appointment")
	}
	if actor.ID != appt.DoctorID && actor.ID != appt.PatientID {
		return nil, apperrors.RoleDenied(msgUnauthorized)
	}
	return appt, nil
}

func (s *Service) notifyOtherParty(ctx context.Context, actor *model.User, appt *model.Appointment, message string) {
	otherID := appt.DoctorID
	if actor.ID == appt.DoctorID {
		otherID = appt.PatientID
	}
	other, err := s.users.Get(ctx, otherID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", otherID).Msg("appointment party not found")
		return
	}
	s.notify(ctx, other, message)
}

func (s *Service) notify(ctx context.Context, recipient *model.User, message string) {
	if err := s.notifier.Notify(ctx, recipient, message); err != nil {
		s.logger.Warn().Err(err).Int64("recipient_id", recipient.ID).Msg("failed to send appointment notification")
	}
}

func validStatus(status string) bool {
	for _, st := range model.AppointmentStatuses {
		if st == status {
			return true
		}
	}
	return false
}
