// Package management implements manager and cashier reporting, staff
// attendance and the service price list.
package management

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

const summaryWindow = 30 * 24 * time.Hour

type Repositories struct {
	Users         repository.UserRepository
	Appointments  repository.AppointmentRepository
	LabTests      repository.LabTestRepository
	Prescriptions repository.PrescriptionRepository
	Invoices      repository.InvoiceRepository
	Notifications repository.NotificationRepository
	Comments      repository.PatientCommentRepository
	Attendance    repository.AttendanceRepository
	ServicePrices repository.ServicePriceRepository
}

type Service struct {
	repos Repositories
	now   func() time.Time
}

func NewService(repos Repositories) *Service {
	return &Service{repos: repos, now: time.Now}
}

func hasRole(actor *model.User, roles ...string) bool {
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

// FinancialSummary totals approved and pending invoices created between
// start and end inclusive. A missing start defaults to 30 days ago and a
// missing end to today.
func (s *Service) FinancialSummary(ctx context.Context, actor *model.User, start, end *model.Date) (*model.FinancialSummary, error) {
	if !hasRole(actor, model.RoleManager, model.RoleCashier) {
		return nil, apperrors.RoleDenied("Only managers and cashiers can view financial reports")
	}

	now := s.now()
	to := model.NewDate(now)
	if end != nil {
		to = *end
	}
	from := model.NewDate(now.Add(-summaryWindow))
	if start != nil {
		from = *start
	}
	if from.After(to.Time) {
		return nil, apperrors.BadRequest("start_date must not be after end_date", nil)
	}

	lower, upper := from.Time, to.AddDate(0, 0, 1)
	revenue, err := s.repos.Invoices.SumByStatus(ctx, model.InvoiceStatusApproved, lower, upper)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	pending, err := s.repos.Invoices.SumByStatus(ctx, model.InvoiceStatusPending, lower, upper)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.FinancialSummary{
		StartDate:       from,
		EndDate:         to,
		TotalRevenue:    model.RoundCents(revenue),
		PendingPayments: model.RoundCents(pending),
	}, nil
}

func (s *Service) AppointmentStats(ctx context.Context, actor *model.User, doctorID *int64) (*model.AppointmentStats, error) {
	if !hasRole(actor, model.RoleManager, model.RoleDoctor) {
		return nil, apperrors.RoleDenied("Only managers and doctors can view appointment statistics")
	}
	total, err := s.repos.Appointments.Count(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.AppointmentStats{DoctorID: doctorID, TotalAppointments: total}, nil
}

func (s *Service) SystemOverview(ctx context.Context, actor *model.User) (*model.SystemOverview, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can view the system overview")
	}
	patients, err := s.repos.Users.CountActivePatients(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	employees, err := s.repos.Users.CountEmployees(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	unread, err := s.repos.Notifications.CountUnread(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.SystemOverview{
		ActivePatients:      patients,
		EmployeeCount:       employees,
		UnreadNotifications: unread,
	}, nil
}

func (s *Service) MostUsedServices(ctx context.Context, actor *model.User) (*model.ServiceUsage, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can view service usage")
	}
	appointments, err := s.repos.Appointments.Count(ctx, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	tests, err := s.repos.LabTests.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	prescriptions, err := s.repos.Prescriptions.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.ServiceUsage{Appointments: appointments, LabTests: tests, Prescriptions: prescriptions}, nil
}

func (s *Service) PatientComments(ctx context.Context, actor *model.User) ([]*model.PatientComment, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can view patient comments")
	}
	comments, err := s.repos.Comments.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return comments, nil
}

// RecordAttendance stamps today's check-in or check-out for an employee.
// Each may be recorded once per day.
func (s *Service) RecordAttendance(ctx context.Context, actor *model.User, req *model.AttendanceRequest) (*model.AttendanceView, error) {
	if !model.IsEmployeeRole(actor.Role) {
		return nil, apperrors.RoleDenied("Only employees can record attendance")
	}
	at, err := model.ParseClock(req.Time)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	row, err := s.repos.Attendance.GetOrCreate(ctx, actor.ID, model.NewDate(s.now()))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	switch req.Action {
	case model.AttendanceCheckIn:
		if err := s.repos.Attendance.SetCheckIn(ctx, row.ID, at); err != nil {
			return nil, alreadyRecorded(err, "Check-in already recorded for today")
		}
	case model.AttendanceCheckOut:
		if row.CheckIn == nil {
			return nil, apperrors.BadRequest("You must check in before checking out", nil)
		}
		if err := s.repos.Attendance.SetCheckOut(ctx, row.ID, at); err != nil {
			return nil, alreadyRecorded(err, "Check-out already recorded for today")
		}
	default:
		return nil, apperrors.BadRequest("Invalid action", nil)
	}

	row, err = s.repos.Attendance.Get(ctx, row.ID)
	if err != nil {
		return nil, service.MapNotFound(err, "Attendance")
	}
	return &model.AttendanceView{Attendance: *row, Username: actor.Username, TotalHours: row.TotalHours()}, nil
}

func alreadyRecorded(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.BadRequest(msg, err)
	}
	return apperrors.Internal(err)
}

func (s *Service) Attendance(ctx context.Context, actor *model.User) ([]*model.AttendanceView, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can view attendance records")
	}
	rows, err := s.repos.Attendance.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

func (s *Service) UpsertServicePrice(ctx context.Context, actor *model.User, req *model.ServicePriceRequest) (*model.ServicePrice, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can manage service prices")
	}
	sp := &model.ServicePrice{ServiceName: req.ServiceName, Price: model.RoundCents(req.Price)}
	if err := s.repos.ServicePrices.Upsert(ctx, sp); err != nil {
		return nil, apperrors.Internal(err)
	}
	return sp, nil
}

func (s *Service) ServicePrices(ctx context.Context) ([]*model.ServicePrice, error) {
	items, err := s.repos.ServicePrices.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) Employees(ctx context.Context, actor *model.User, role string) ([]*model.Employee, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can view employees")
	}
	valid := false
	for _, r := range model.EmployeeRoles {
		if r == role {
			valid = true
			break
		}
	}
	if !valid {
		return nil, apperrors.BadRequest("Invalid role", nil)
	}
	items, err := s.repos.Users.ListEmployees(ctx, role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}
