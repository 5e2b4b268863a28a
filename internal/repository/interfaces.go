package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/hospital-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// DuplicateError names the unique column that rejected a write. It matches
// ErrDuplicate under errors.Is.
type DuplicateError struct {
	Column string
}

func (e *DuplicateError) Error() string {
	if e.Column == "" {
		return ErrDuplicate.Error()
	}
	return ErrDuplicate.Error() + ": " + e.Column
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// DuplicateColumn returns the column of a DuplicateError in err's chain, or "".
func DuplicateColumn(err error) string {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Column
	}
	return ""
}

// All repository interfaces in one file
type (
	UserRepository interface {
		// CreatePatient inserts the user and its patient profile in one transaction.
		CreatePatient(ctx context.Context, user *model.User, profile *model.PatientProfile) error
		CreateDoctor(ctx context.Context, user *model.User, profile *model.DoctorProfile) error
		CreateEmployee(ctx context.Context, user *model.User, profile *model.EmployeeProfile) error
		// CreateManager inserts a manager account with no profile row.
		CreateManager(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		UsernameExists(ctx context.Context, username string) (bool, error)
		Update(ctx context.Context, user *model.User) error
		UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
		// ActivatePatient flips is_active on an inactive patient. ErrNotFound
		// covers both a missing user and one that is already active.
		ActivatePatient(ctx context.Context, id int64) error
		ListByRole(ctx context.Context, role string) ([]*model.User, error)
		ListPendingPatients(ctx context.Context) ([]*model.PendingPatient, error)
		ListDoctors(ctx context.Context) ([]*model.DoctorSummary, error)
		ListEmployees(ctx context.Context, role string) ([]*model.Employee, error)
		CountActivePatients(ctx context.Context) (int, error)
		CountEmployees(ctx context.Context) (int, error)

		GetDoctorProfile(ctx context.Context, userID int64) (*model.DoctorProfile, error)
		GetEmployeeProfile(ctx context.Context, userID int64) (*model.EmployeeProfile, error)
		GetPatientProfile(ctx context.Context, userID int64) (*model.PatientProfile, error)
		// The Update*With methods write the users row and the role profile in
		// one transaction; a failure leaves both untouched.
		UpdatePatientWith(ctx context.Context, user *model.User, profile *model.PatientProfile) error
		UpdateDoctorWith(ctx context.Context, user *model.User, profile *model.DoctorProfile) error
		UpdateEmployeeWith(ctx context.Context, user *model.User, profile *model.EmployeeProfile) error
	}

	TokenRepository interface {
		Revoke(ctx context.Context, token *model.RevokedToken) error
		IsRevoked(ctx context.Context, jti string) (bool, error)
		DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id int64) error
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error)
		ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error)
		// Count counts all appointments, or those of one doctor when doctorID is set.
		Count(ctx context.Context, doctorID *int64) (int, error)
	}

	LabTestRepository interface {
		Create(ctx context.Context, test *model.LabTest) error
		Get(ctx context.Context, id int64) (*model.LabTest, error)
		Update(ctx context.Context, test *model.LabTest) error
		ListByDoctor(ctx context.Context, doctorID int64) ([]*model.LabTest, error)
		ListByPatient(ctx context.Context, patientID int64) ([]*model.LabTest, error)
		ListAll(ctx context.Context) ([]*model.LabTest, error)
		Count(ctx context.Context) (int, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, p *model.Prescription) error
		Get(ctx context.Context, id int64) (*model.Prescription, error)
		Update(ctx context.Context, p *model.Prescription) error
		ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Prescription, error)
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Prescription, error)
		ListAll(ctx context.Context) ([]*model.Prescription, error)
		Count(ctx context.Context) (int, error)
	}

	DrugRepository interface {
		Create(ctx context.Context, drug *model.Drug) error
		Get(ctx context.Context, id int64) (*model.Drug, error)
		Update(ctx context.Context, drug *model.Drug) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.Drug, error)
		// SearchByName is a case-insensitive substring match.
		SearchByName(ctx context.Context, name string) ([]*model.Drug, error)
	}

	InvoiceRepository interface {
		Create(ctx context.Context, invoice *model.Invoice) error
		Get(ctx context.Context, id int64) (*model.Invoice, error)
		// GetPending returns the invoice only while it is still pending.
		GetPending(ctx context.Context, id int64) (*model.Invoice, error)
		GetByTxRef(ctx context.Context, txRef string) (*model.Invoice, error)
		SetTxRef(ctx context.Context, id int64, txRef string) error
		SetPaymentURL(ctx context.Context, id int64, url string) error
		// ApplyPayment subtracts paid from the invoice's balance unless it is
		// already paid, marking it paid once the balance reaches zero. It
		// reports whether a row was changed.
		ApplyPayment(ctx context.Context, id int64, paid float64) (bool, error)
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Invoice, error)
		ListAll(ctx context.Context) ([]*model.Invoice, error)
		ListByPatientAndStatus(ctx context.Context, patientID int64, status string) ([]*model.Invoice, error)
		// UpdateStatus moves every listed invoice currently in from to to.
		UpdateStatus(ctx context.Context, ids []int64, from, to string) (int64, error)
		SumByStatus(ctx context.Context, status string, start, end time.Time) (float64, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListByRecipient(ctx context.Context, recipientID int64, status string) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, recipientID int64) error
		MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
		Delete(ctx context.Context, id, recipientID int64) error
		CountUnread(ctx context.Context) (int, error)
		DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	}

	ChatRepository interface {
		Create(ctx context.Context, msg *model.ChatMessage) error
		// Conversation returns messages between two users in timestamp order.
		Conversation(ctx context.Context, userA, userB int64) ([]*model.ChatMessage, error)
	}

	PatientCommentRepository interface {
		Create(ctx context.Context, c *model.PatientComment) error
		List(ctx context.Context) ([]*model.PatientComment, error)
	}

	ReferralRepository interface {
		Create(ctx context.Context, r *model.Referral) error
		Get(ctx context.Context, id int64) (*model.Referral, error)
		UpdateStatus(ctx context.Context, id int64, status string) error
		ListForDoctor(ctx context.Context, doctorID int64) ([]*model.Referral, error)
		ListForPatient(ctx context.Context, patientID int64) ([]*model.Referral, error)
	}

	AttendanceRepository interface {
		// GetOrCreate returns the employee's row for date, creating an absent one if needed.
		GetOrCreate(ctx context.Context, employeeID int64, date model.Date) (*model.Attendance, error)
		// SetCheckIn and SetCheckOut only write a column that is still NULL and
		// return ErrNotFound otherwise.
		SetCheckIn(ctx context.Context, id int64, at model.Clock) error
		SetCheckOut(ctx context.Context, id int64, at model.Clock) error
		Get(ctx context.Context, id int64) (*model.Attendance, error)
		List(ctx context.Context) ([]*model.AttendanceView, error)
	}

	ServicePriceRepository interface {
		Upsert(ctx context.Context, s *model.ServicePrice) error
		List(ctx context.Context) ([]*model.ServicePrice, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, m *model.Message) error
		Inbox(ctx context.Context, receiverID int64, kind string) ([]*model.Message, error)
	}

	EmailOutboxRepository interface {
		Enqueue(ctx context.Context, email *model.EmailOutbox) error
		// ClaimPending locks up to limit due rows for the duration of fn's
		// transaction so concurrent workers skip them.
		ClaimPending(ctx context.Context, limit int, fn func(ctx context.Context, emails []*model.EmailOutbox, mark MarkFunc) error) error
		DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// MarkFunc records the outcome of one delivery attempt inside a claim.
	MarkFunc func(id int64, status model.EmailStatus, lastErr *string, nextRetry *time.Time) error
)
