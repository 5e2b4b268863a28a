package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

type Service struct {
	prescriptions repository.PrescriptionRepository
	drugs         repository.DrugRepository
	users         repository.UserRepository
	notifier      notification.Notifier
	logger        zerolog.Logger
}

func NewService(prescriptions repository.PrescriptionRepository, drugs repository.DrugRepository,
	users repository.UserRepository, notifier notification.Notifier) *Service {
	return &Service{
		prescriptions: prescriptions,
		drugs:         drugs,
		users:         users,
		notifier:      notifier,
		logger:        log.With().Str("component", "pharmacy").Logger(),
	}
}

func (s *Service) Prescribe(ctx context.Context, actor *model.User, req *model.PrescribeRequest) (*model.Prescription, error) {
	if actor.Role != model.RoleDoctor {
		return nil, apperrors.RoleDenied("Only doctors can prescribe medication")
	}
	patient, err := service.RequireUser(ctx, s.users, req.PatientID, model.RolePatient, "Patient")
	if err != nil {
		return nil, err
	}

	p := &model.Prescription{
		DoctorID:       actor.ID,
		PatientID:      patient.ID,
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		Instructions:   req.Instructions,
		Status:         model.PrescriptionStatusPending,
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}

	msg := fmt.Sprintf("New prescription for %s: %s.", patient.Username, p.MedicationName)
	if err := s.notifier.NotifyRole(ctx, model.RolePharmacist, msg); err != nil {
		s.logger.Warn().Err(err).Int64("prescription_id", p.ID).Msg("failed to notify pharmacists")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.Prescription, error) {
	var (
		items []*model.Prescription
		err   error
	)
	switch actor.Role {
	case model.RoleDoctor:
		items, err = s.prescriptions.ListByDoctor(ctx, actor.ID)
	case model.RolePatient:
		items, err = s.prescriptions.ListByPatient(ctx, actor.ID)
	case model.RolePharmacist:
		items, err = s.prescriptions.ListAll(ctx)
	default:
		return []*model.Prescription{}, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, actor *model.User, id int64, req *model.UpdatePrescriptionRequest) (*model.Prescription, error) {
	if actor.Role != model.RolePharmacist {
		return nil, apperrors.RoleDenied("Only pharmacists can update prescription status")
	}
	p, err := s.prescriptions.Get(ctx, id)
	if err != nil {
		return nil, service.MapNotFound(err, "Prescription")
	}

	dispensed := false
	if req.Status != nil {
		if *req.Status != model.PrescriptionStatusPending && *req.Status != model.PrescriptionStatusDispensed {
			return nil, apperrors.BadRequest("Invalid status", nil)
		}
		dispensed = *req.Status == model.PrescriptionStatusDispensed && p.Status != model.PrescriptionStatusDispensed
		p.Status = *req.Status
	}
	if req.Dosage != nil {
		p.Dosage = *req.Dosage
	}
	if req.Instructions != nil {
		p.Instructions = *req.Instructions
	}
	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, service.MapNotFound(err, "Prescription")
	}

	if dispensed {
		patient, err := s.users.Get(ctx, p.PatientID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("prescription_id", p.ID).Msg("prescription patient not found")
			return p, nil
		}
		msg := fmt.Sprintf("Your prescription for %s is ready for pickup.", p.MedicationName)
		if err := s.notifier.Notify(ctx, patient, msg); err != nil {
			s.logger.Warn().Err(err).Int64("prescription_id", p.ID).Msg("failed to notify patient")
		}
	}
	return p, nil
}

func (s *Service) CreateDrug(ctx context.Context, actor *model.User, req *model.DrugRequest) (*model.Drug, error) {
	if actor.Role != model.RolePharmacist {
		return nil, apperrors.RoleDenied("Only pharmacists can add drugs")
	}
	drug := &model.Drug{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         model.RoundCents(req.Price),
		StockQuantity: req.StockQuantity,
	}
	if err := s.drugs.Create(ctx, drug); err != nil {
		return nil, drugError(err)
	}
	return drug, nil
}

func (s *Service) UpdateDrug(ctx context.Context, actor *model.User, id int64, req *model.UpdateDrugRequest) (*model.Drug, error) {
	if actor.Role != model.RolePharmacist {
		return nil, apperrors.RoleDenied("Only pharmacists can update drug details")
	}
	drug, err := s.drugs.Get(ctx, id)
	if err != nil {
		return nil, service.MapNotFound(err, "Drug")
	}
	if req.Name != nil {
		drug.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		drug.Description = *req.Description
	}
	if req.Price != nil {
		drug.Price = model.RoundCents(*req.Price)
	}
	if req.StockQuantity != nil {
		drug.StockQuantity = *req.StockQuantity
	}
	if err := s.drugs.Update(ctx, drug); err != nil {
		return nil, drugError(err)
	}
	return drug, nil
}

func (s *Service) DeleteDrug(ctx context.Context, actor *model.User, id int64) error {
	if actor.Role != model.RolePharmacist {
		return apperrors.RoleDenied("Only pharmacists can delete drugs")
	}
	if err := s.drugs.Delete(ctx, id); err != nil {
		return service.MapNotFound(err, "Drug")
	}
	return nil
}

func (s *Service) ListDrugs(ctx context.Context) ([]*model.Drug, error) {
	drugs, err := s.drugs.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return drugs, nil
}

func (s *Service) SearchDrugs(ctx context.Context, actor *model.User, name string) ([]*model.Drug, error) {
	if actor.Role != model.RolePharmacist {
		return nil, apperrors.RoleDenied("not allowed")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.BadRequest("name query parameter is required", nil)
	}
	drugs, err := s.drugs.SearchByName(ctx, name)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(drugs) == 0 {
		return nil, apperrors.BadRequest("No matching drugs found; please report to manager to add it", nil)
	}
	return drugs, nil
}

func drugError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.BadRequest("A drug with this name already exists", err)
	}
	return service.MapNotFound(err, "Drug")
}
