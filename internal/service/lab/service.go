package lab

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
	repo     repository.LabTestRepository
	users    repository.UserRepository
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewService(repo repository.LabTestRepository, users repository.UserRepository, notifier notification.Notifier) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		logger:   log.With().Str("component", "lab").Logger(),
	}
}

func (s *Service) Order(ctx context.Context, actor *model.User, req *model.OrderLabTestRequest) (*model.LabTest, error) {
	if actor.Role != model.RoleDoctor {
		return nil, apperrors.RoleDenied("Only doctors can order lab tests")
	}
	patient, err := service.RequireUser(ctx, s.users, req.PatientID, model.RolePatient, "Patient")
	if err != nil {
		return nil, err
	}

	test := &model.LabTest{
		DoctorID:  actor.ID,
		PatientID: patient.ID,
		TestName:  req.TestName,
		Status:    model.LabStatusPending,
	}
	if err := s.repo.Create(ctx, test); err != nil {
		return nil, apperrors.Internal(err)
	}

	msg := fmt.Sprintf("New lab test ordered: %s by Dr. %s.", test.TestName, actor.Username)
	if err := s.notifier.NotifyRole(ctx, model.RoleLabTechnician, msg); err != nil {
		s.logger.Warn().Err(err).Int64("lab_test_id", test.ID).Msg("failed to notify lab technicians")
	}
	return test, nil
}

// List scopes lab tests by role; roles with no view get an empty list.
func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.LabTest, error) {
	var (
		tests []*model.LabTest
		err   error
	)
	switch actor.Role {
	case model.RoleDoctor:
		tests, err = s.repo.ListByDoctor(ctx, actor.ID)
	case model.RolePatient:
		tests, err = s.repo.ListByPatient(ctx, actor.ID)
	case model.RoleLabTechnician:
		tests, err = s.repo.ListAll(ctx)
	default:
		return []*model.LabTest{}, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return tests, nil
}

func (s *Service) Update(ctx context.Context, actor *model.User, id int64, req *model.UpdateLabTestRequest) (*model.LabTest, error) {
	if actor.Role != model.RoleLabTechnician {
		return nil, apperrors.RoleDenied("Only lab technicians can update test results")
	}
	test, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapNotFound(err, "Lab test")
	}

	if req.Status != nil {
		if *req.Status != model.LabStatusPending && *req.Status != model.LabStatusCompleted {
			return nil, apperrors.BadRequest("Invalid status", nil)
		}
		test.Status = *req.Status
	}
	if req.Result != nil {
		test.Result = req.Result
	}
	if err := s.repo.Update(ctx, test); err != nil {
		return nil, service.MapNotFound(err, "Lab test")
	}

	doctor, err := s.users.Get(ctx, test.DoctorID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("lab_test_id", test.ID).Msg("ordering doctor not found")
		return test, nil
	}
	if err := s.notifier.Notify(ctx, doctor, fmt.Sprintf("Lab result for %s is now available.", test.TestName)); err != nil {
		s.logger.Warn().Err(err).Int64("lab_test_id", test.ID).Msg("failed to notify ordering doctor")
	}
	return test, nil
}
