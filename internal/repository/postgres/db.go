package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/hospital-api/internal/config"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Repositories bundles every Postgres-backed repository.
type Repositories struct {
	Users         repository.UserRepository
	Tokens        repository.TokenRepository
	Appointments  repository.AppointmentRepository
	LabTests      repository.LabTestRepository
	Prescriptions repository.PrescriptionRepository
	Drugs         repository.DrugRepository
	Invoices      repository.InvoiceRepository
	Notifications repository.NotificationRepository
	Chat          repository.ChatRepository
	Comments      repository.PatientCommentRepository
	Referrals     repository.ReferralRepository
	Attendance    repository.AttendanceRepository
	ServicePrices repository.ServicePriceRepository
	Messages      repository.MessageRepository
	EmailOutbox   repository.EmailOutboxRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	base := NewBaseRepository(db)
	return &Repositories{
		Users:         NewUserRepository(base),
		Tokens:        NewTokenRepository(base),
		Appointments:  NewAppointmentRepository(base),
		LabTests:      NewLabTestRepository(base),
		Prescriptions: NewPrescriptionRepository(base),
		Drugs:         NewDrugRepository(base),
		Invoices:      NewInvoiceRepository(base),
		Notifications: NewNotificationRepository(base),
		Chat:          NewChatRepository(base),
		Comments:      NewPatientCommentRepository(base),
		Referrals:     NewReferralRepository(base),
		Attendance:    NewAttendanceRepository(base),
		ServicePrices: NewServicePriceRepository(base),
		Messages:      NewMessageRepository(base),
		EmailOutbox:   NewEmailOutboxRepository(base),
	}
}
