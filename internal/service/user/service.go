package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/security"
	"github.com/jwalitptl/hospital-api/pkg/storage"
)

// Upload is a file received with a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CacheInvalidator drops cached copies of a user after it changes.
type CacheInvalidator interface {
	Invalidate(userID int64)
}

type Service struct {
	repo     repository.UserRepository
	hasher   security.PasswordHasher
	notifier notification.Notifier
	store    storage.ObjectStore
	cache    CacheInvalidator
	logger   zerolog.Logger
}

// NewService builds the user service. store may be nil, in which case
// uploaded profile pictures are dropped.
func NewService(repo repository.UserRepository, hasher security.PasswordHasher,
	notifier notification.Notifier, store storage.ObjectStore) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		store:    store,
		logger:   log.With().Str("component", "user").Logger(),
	}
}

// WithCache registers the cache to invalidate on profile changes.
func (s *Service) WithCache(cache CacheInvalidator) *Service {
	s.cache = cache
	return s
}

func (s *Service) invalidate(userID int64) {
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
}

// Signup registers an inactive patient awaiting record officer approval.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest, picture *Upload) (*model.User, error) {
	exists, err := s.repo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if exists {
		return nil, apperrors.BadRequest("Username already exists", nil)
	}

	user, err := s.newUser(req.Username, req.Password, req.Email, req.FirstName, req.MiddleName, req.LastName,
		req.PhoneNumber, req.Address, req.Gender, req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	user.Role = model.RolePatient
	user.IsActive = false

	profile := &model.PatientProfile{
		Region:      req.Region,
		Town:        req.Town,
		Kebele:      req.Kebele,
		HouseNumber: req.HouseNumber,
	}
	if err := s.repo.CreatePatient(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.BadRequest("Username or email already exists", err)
		}
		return nil, apperrors.Internal(err)
	}

	// The picture is stored only once the account exists, so a rejected
	// signup never leaves an object behind.
	if picture != nil {
		url, err := s.uploadPicture(ctx, user.Username, picture)
		if err != nil {
			return nil, err
		}
		if url != "" {
			user.ProfilePicture = &url
			if err := s.repo.Update(ctx, user); err != nil {
				return nil, apperrors.Internal(err)
			}
		}
	}

	msg := fmt.Sprintf("New patient registration pending approval: %s", user.Username)
	if err := s.notifier.NotifyRole(ctx, model.RoleRecordOfficer, msg); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to notify record officers")
	}
	return user, nil
}

func (s *Service) uploadPicture(ctx context.Context, username string, picture *Upload) (string, error) {
	if s.store == nil {
		s.logger.Warn().Str("username", username).Msg("object storage disabled, dropping profile picture")
		return "", nil
	}
	key := storage.ProfilePictureKey(username, picture.Filename)
	url, err := s.store.Put(ctx, key, picture.Body, picture.ContentType)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("failed to store profile picture: %w", err))
	}
	return url, nil
}

func (s *Service) newUser(username, password, email, first, middle, last, phone, address, gender, dob string) (*model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) || errors.Is(err, security.ErrPasswordTooLong) {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		FirstName:    first,
		LastName:     last,
		MiddleName:   optional(middle),
		PhoneNumber:  optional(phone),
		Address:      optional(address),
		Gender:       optional(gender),
	}
	if dob != "" {
		d, err := model.ParseDate(dob)
		if err != nil {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		user.DateOfBirth = &d
	}
	return user, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// CreateEmployee lets a manager open an active staff account.
func (s *Service) CreateEmployee(ctx context.Context, actor *model.User, req *model.CreateEmployeeRequest) (*model.User, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can create employee accounts.")
	}
	if req.Role == model.RoleManager {
		return nil, apperrors.RoleDenied("Managers cannot create other managers.")
	}
	if !isEmployeeRole(req.Role) {
		return nil, apperrors.BadRequest("Invalid role", nil)
	}

	exists, err := s.repo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if exists {
		return nil, apperrors.BadRequest("username already exists", nil)
	}

	user, err := s.newUser(req.Username, req.Password, req.Email, req.FirstName, req.MiddleName, req.LastName,
		req.PhoneNumber, req.Address, req.Gender, req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	user.Role = req.Role
	user.IsActive = true
	user.SSN = optional(req.SSN)

	if req.Role == model.RoleDoctor {
		err = s.repo.CreateDoctor(ctx, user, &model.DoctorProfile{
			SSN:        req.SSN,
			Department: req.Department,
			Level:      req.Level,
		})
	} else {
		err = s.repo.CreateEmployee(ctx, user, &model.EmployeeProfile{SSN: req.SSN})
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.BadRequest("username, email or SSN already exists", err)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func isEmployeeRole(role string) bool {
	for _, r := range model.EmployeeRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Service) PendingPatients(ctx context.Context) ([]*model.PendingPatient, error) {
	patients, err := s.repo.ListPendingPatients(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}

func (s *Service) ApprovePatient(ctx context.Context, actor *model.User, userID int64) error {
	if actor.Role != model.RoleRecordOfficer {
		return apperrors.RoleDenied("Only record officers can approve patients.")
	}
	if err := s.repo.ActivatePatient(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest("Patient not found or already approved.", err)
		}
		return apperrors.Internal(err)
	}
	s.invalidate(userID)

	patient, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("approved patient could not be reloaded")
		return nil
	}
	if err := s.notifier.Notify(ctx, patient, "Your registration has been approved. You can now log in."); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to notify approved patient")
	}
	return nil
}

// Profile returns the role-specific profile of user. Managers created from
// the command line have no profile row and get the user alone.
func (s *Service) Profile(ctx context.Context, user *model.User) (*model.Profile, error) {
	profile := &model.Profile{User: user}
	var err error
	switch user.Role {
	case model.RoleDoctor:
		profile.Doctor, err = s.repo.GetDoctorProfile(ctx, user.ID)
	case model.RolePatient:
		profile.Patient, err = s.repo.GetPatientProfile(ctx, user.ID)
	default:
		profile.Employee, err = s.repo.GetEmployeeProfile(ctx, user.ID)
		if errors.Is(err, repository.ErrNotFound) && user.Role == model.RoleManager {
			err = nil
		}
	}
	if err != nil {
		return nil, service.MapNotFound(err, "Profile")
	}
	return profile, nil
}

// UpdateProfile applies the non-nil fields of req to the user and its
// role-specific profile.
func (s *Service) UpdateProfile(ctx context.Context, user *model.User, req *model.UpdateProfileRequest) (*model.Profile, error) {
	if user.Role != model.RolePatient && (req.SSN == nil || strings.TrimSpace(*req.SSN) == "") {
		return nil, apperrors.BadRequest("SSN is required for employee profiles", nil)
	}

	updated := *user
	setString(&updated.Email, req.Email)
	setString(&updated.FirstName, req.FirstName)
	setString(&updated.LastName, req.LastName)
	setOptional(&updated.MiddleName, req.MiddleName)
	setOptional(&updated.PhoneNumber, req.PhoneNumber)
	setOptional(&updated.Address, req.Address)
	setOptional(&updated.Gender, req.Gender)
	if user.Role != model.RolePatient {
		setOptional(&updated.SSN, req.SSN)
	}

	var err error
	switch user.Role {
	case model.RolePatient:
		profile, getErr := s.repo.GetPatientProfile(ctx, user.ID)
		if getErr != nil {
			return nil, service.MapNotFound(getErr, "Profile")
		}
		setString(&profile.Region, req.Region)
		setString(&profile.Town, req.Town)
		setString(&profile.Kebele, req.Kebele)
		setString(&profile.HouseNumber, req.HouseNumber)
		setOptional(&profile.RoomNumber, req.RoomNumber)
		err = s.repo.UpdatePatientWith(ctx, &updated, profile)
	case model.RoleDoctor:
		profile, getErr := s.repo.GetDoctorProfile(ctx, user.ID)
		if getErr != nil {
			if !errors.Is(getErr, repository.ErrNotFound) {
				return nil, apperrors.Internal(getErr)
			}
			profile = &model.DoctorProfile{UserID: user.ID}
		}
		profile.SSN = strings.TrimSpace(*req.SSN)
		setString(&profile.Department, req.Department)
		setString(&profile.Level, req.Level)
		err = s.repo.UpdateDoctorWith(ctx, &updated, profile)
	default:
		profile := &model.EmployeeProfile{UserID: user.ID, SSN: strings.TrimSpace(*req.SSN)}
		err = s.repo.UpdateEmployeeWith(ctx, &updated, profile)
	}
	if err != nil {
		return nil, profileWriteError(err)
	}
	s.invalidate(user.ID)

	return s.Profile(ctx, &updated)
}

func profileWriteError(err error) error {
	if !errors.Is(err, repository.ErrDuplicate) {
		return service.MapNotFound(err, "Profile")
	}
	switch repository.DuplicateColumn(err) {
	case "email":
		return apperrors.BadRequest("Email already in use", err)
	case "ssn":
		return apperrors.BadRequest("SSN already exists", err)
	case "room_number":
		return apperrors.BadRequest("Room number is already assigned", err)
	default:
		return apperrors.BadRequest("Email or SSN already in use", err)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setOptional(dst **string, v *string) {
	if v != nil {
		*dst = optional(*v)
	}
}

// Doctors lists active doctors for patients picking one to book.
func (s *Service) Doctors(ctx context.Context) ([]*model.DoctorSummary, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

// CreateManager bootstraps a manager account from the command line.
func (s *Service) CreateManager(ctx context.Context, username, password, email, first, last string) (*model.User, error) {
	user, err := s.newUser(username, password, email, first, "", last, "", "", "", "")
	if err != nil {
		return nil, err
	}
	user.Role = model.RoleManager
	user.IsActive = true
	if err := s.repo.CreateManager(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("username or email already exists", err)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}
