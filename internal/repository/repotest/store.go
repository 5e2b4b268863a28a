// Package repotest provides in-memory implementations of the repository
// interfaces for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

// Store holds every table in memory. The zero value is not usable; call NewStore.
type Store struct {
	mu     sync.Mutex
	nextID int64
	now    func() time.Time

	users         map[int64]*model.User
	doctors       map[int64]*model.DoctorProfile
	employees     map[int64]*model.EmployeeProfile
	patients      map[int64]*model.PatientProfile
	revoked       map[string]*model.RevokedToken
	appointments  map[int64]*model.Appointment
	labTests      map[int64]*model.LabTest
	prescriptions map[int64]*model.Prescription
	drugs         map[int64]*model.Drug
	invoices      map[int64]*model.Invoice
	notifications map[int64]*model.Notification
	chat          []*model.ChatMessage
	comments      []*model.PatientComment
	referrals     map[int64]*model.Referral
	attendance    map[int64]*model.Attendance
	services      map[string]*model.ServicePrice
	messages      []*model.Message
	emails        map[int64]*model.EmailOutbox
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         map[int64]*model.User{},
		doctors:       map[int64]*model.DoctorProfile{},
		employees:     map[int64]*model.EmployeeProfile{},
		patients:      map[int64]*model.PatientProfile{},
		revoked:       map[string]*model.RevokedToken{},
		appointments:  map[int64]*model.Appointment{},
		labTests:      map[int64]*model.LabTest{},
		prescriptions: map[int64]*model.Prescription{},
		drugs:         map[int64]*model.Drug{},
		invoices:      map[int64]*model.Invoice{},
		notifications: map[int64]*model.Notification{},
		referrals:     map[int64]*model.Referral{},
		attendance:    map[int64]*model.Attendance{},
		services:      map[string]*model.ServicePrice{},
		emails:        map[int64]*model.EmailOutbox{},
	}
}

// SetClock replaces the time source used for timestamps and due checks.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser inserts a user directly, bypassing uniqueness checks.
func (s *Store) AddUser(u *model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	u.CreatedAt, u.UpdatedAt = s.now(), s.now()
	cp := *u
	s.users[u.ID] = &cp
	return u
}

// Seed adds an active user with role and a matching empty profile.
func (s *Store) Seed(role, username string) *model.User {
	u := s.AddUser(&model.User{
		Username:  username,
		Email:     username + "@hospital.test",
		FirstName: username,
		LastName:  "Test",
		Role:      role,
		IsActive:  true,
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	switch role {
	case model.RoleDoctor:
		s.doctors[u.ID] = &model.DoctorProfile{UserID: u.ID, SSN: "ssn-" + username}
	case model.RolePatient:
		s.patients[u.ID] = &model.PatientProfile{UserID: u.ID}
	case model.RoleManager:
	default:
		s.employees[u.ID] = &model.EmployeeProfile{UserID: u.ID, SSN: "ssn-" + username}
	}
	cp := *u
	return &cp
}

// NotificationsFor returns every stored notification for recipient, oldest first.
func (s *Store) NotificationsFor(recipientID int64) []*model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Emails returns every queued email.
func (s *Store) Emails() []*model.EmailOutbox {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.EmailOutbox, 0, len(s.emails))
	for _, e := range s.emails {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Users() repository.UserRepository                 { return (*userRepo)(s) }
func (s *Store) Tokens() repository.TokenRepository               { return (*tokenRepo)(s) }
func (s *Store) Appointments() repository.AppointmentRepository   { return (*appointmentRepo)(s) }
func (s *Store) LabTests() repository.LabTestRepository           { return (*labRepo)(s) }
func (s *Store) Prescriptions() repository.PrescriptionRepository { return (*prescriptionRepo)(s) }
func (s *Store) Drugs() repository.DrugRepository                 { return (*drugRepo)(s) }
func (s *Store) Invoices() repository.InvoiceRepository           { return (*invoiceRepo)(s) }
func (s *Store) Notifications() repository.NotificationRepository { return (*notificationRepo)(s) }
func (s *Store) Chat() repository.ChatRepository                  { return (*chatRepo)(s) }
func (s *Store) Comments() repository.PatientCommentRepository    { return (*commentRepo)(s) }
func (s *Store) Referrals() repository.ReferralRepository         { return (*referralRepo)(s) }
func (s *Store) Attendance() repository.AttendanceRepository      { return (*attendanceRepo)(s) }
func (s *Store) ServicePrices() repository.ServicePriceRepository { return (*serviceRepo)(s) }
func (s *Store) Messages() repository.MessageRepository           { return (*messageRepo)(s) }
func (s *Store) EmailOutbox() repository.EmailOutboxRepository    { return (*emailRepo)(s) }

// users

type userRepo Store

func (r *userRepo) st() *Store { return (*Store)(r) }

func (r *userRepo) insert(u *model.User, ssn string) error {
	s := r.st()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if ssn != "" && s.ssnTaken(ssn, 0) {
		return repository.ErrDuplicate
	}
	u.ID = s.id()
	u.CreatedAt, u.UpdatedAt = s.now(), s.now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) ssnTaken(ssn string, except int64) bool {
	for id, d := range s.doctors {
		if d.SSN == ssn && id != except {
			return true
		}
	}
	for id, e := range s.employees {
		if e.SSN == ssn && id != except {
			return true
		}
	}
	return false
}

func (r *userRepo) CreatePatient(_ context.Context, u *model.User, p *model.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insert(u, ""); err != nil {
		return err
	}
	p.UserID = u.ID
	cp := *p
	r.patients[u.ID] = &cp
	return nil
}

func (r *userRepo) CreateDoctor(_ context.Context, u *model.User, p *model.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insert(u, p.SSN); err != nil {
		return err
	}
	p.UserID = u.ID
	cp := *p
	r.doctors[u.ID] = &cp
	return nil
}

func (r *userRepo) CreateEmployee(_ context.Context, u *model.User, p *model.EmployeeProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insert(u, p.SSN); err != nil {
		return err
	}
	p.UserID = u.ID
	cp := *p
	r.employees[u.ID] = &cp
	return nil
}

func (r *userRepo) CreateManager(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(u, "")
}

func (r *userRepo) Get(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *userRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUpdate(u); err != nil {
		return err
	}
	r.applyUpdate(u)
	return nil
}

func (r *userRepo) checkUpdate(u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range r.users {
		if other.ID == u.ID {
			continue
		}
		if other.Email == u.Email {
			return &repository.DuplicateError{Column: "email"}
		}
		if u.SSN != nil && other.SSN != nil && *other.SSN == *u.SSN {
			return &repository.DuplicateError{Column: "ssn"}
		}
	}
	return nil
}

func (r *userRepo) applyUpdate(u *model.User) {
	existing := r.users[u.ID]
	cp := *u
	cp.Role, cp.IsActive, cp.PasswordHash, cp.Username = existing.Role, existing.IsActive, existing.PasswordHash, existing.Username
	cp.UpdatedAt = r.now()
	r.users[u.ID] = &cp
}

func (r *userRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r *userRepo) ActivatePatient(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Role != model.RolePatient || u.IsActive {
		return repository.ErrNotFound
	}
	u.IsActive = true
	return nil
}

func (r *userRepo) sorted(filter func(*model.User) bool) []*model.User {
	var out []*model.User
	for _, u := range r.users {
		if filter(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *userRepo) ListByRole(_ context.Context, role string) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(u *model.User) bool { return u.Role == role }), nil
}

func (r *userRepo) ListPendingPatients(_ context.Context) ([]*model.PendingPatient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.PendingPatient{}
	for _, u := range r.sorted(func(u *model.User) bool { return u.Role == model.RolePatient && !u.IsActive }) {
		p := r.patients[u.ID]
		pp := &model.PendingPatient{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, CreatedAt: u.CreatedAt}
		if p != nil {
			pp.Region, pp.Town, pp.Kebele, pp.HouseNumber = p.Region, p.Town, p.Kebele, p.HouseNumber
		}
		out = append(out, pp)
	}
	return out, nil
}

func (r *userRepo) ListDoctors(_ context.Context) ([]*model.DoctorSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.DoctorSummary{}
	for _, u := range r.sorted(func(u *model.User) bool { return u.Role == model.RoleDoctor && u.IsActive }) {
		d := &model.DoctorSummary{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
		if p := r.doctors[u.ID]; p != nil {
			d.Department, d.Level = p.Department, p.Level
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *userRepo) ListEmployees(_ context.Context, role string) ([]*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Employee{}
	for _, u := range r.sorted(func(u *model.User) bool { return u.Role == role }) {
		out = append(out, &model.Employee{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: u.Role, IsActive: u.IsActive})
	}
	return out, nil
}

func (r *userRepo) CountActivePatients(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sorted(func(u *model.User) bool { return u.Role == model.RolePatient && u.IsActive })), nil
}

func (r *userRepo) CountEmployees(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sorted(func(u *model.User) bool { return u.Role != model.RolePatient })), nil
}

func (r *userRepo) GetDoctorProfile(_ context.Context, id int64) (*model.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.doctors[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetEmployeeProfile(_ context.Context, id int64) (*model.EmployeeProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.employees[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetPatientProfile(_ context.Context, id int64) (*model.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.patients[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) UpdatePatientWith(_ context.Context, u *model.User, p *model.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.UserID]; !ok {
		return repository.ErrNotFound
	}
	if p.RoomNumber != nil {
		for id, other := range r.patients {
			if id != p.UserID && other.RoomNumber != nil && *other.RoomNumber == *p.RoomNumber {
				return &repository.DuplicateError{Column: "room_number"}
			}
		}
	}
	if err := r.checkUpdate(u); err != nil {
		return err
	}
	cp := *p
	r.patients[p.UserID] = &cp
	r.applyUpdate(u)
	return nil
}

func (r *userRepo) UpdateDoctorWith(_ context.Context, u *model.User, p *model.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.st().ssnTaken(p.SSN, p.UserID) {
		return &repository.DuplicateError{Column: "ssn"}
	}
	if err := r.checkUpdate(u); err != nil {
		return err
	}
	cp := *p
	r.doctors[p.UserID] = &cp
	r.applyUpdate(u)
	return nil
}

func (r *userRepo) UpdateEmployeeWith(_ context.Context, u *model.User, p *model.EmployeeProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.st().ssnTaken(p.SSN, p.UserID) {
		return &repository.DuplicateError{Column: "ssn"}
	}
	if err := r.checkUpdate(u); err != nil {
		return err
	}
	cp := *p
	r.employees[p.UserID] = &cp
	r.applyUpdate(u)
	return nil
}

// tokens

type tokenRepo Store

func (r *tokenRepo) Revoke(_ context.Context, t *model.RevokedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.revoked[t.JTI] = &cp
	return nil
}

func (r *tokenRepo) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for jti, t := range r.revoked {
		if t.ExpiresAt.Before(before) {
			delete(r.revoked, jti)
			n++
		}
	}
	return n, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
