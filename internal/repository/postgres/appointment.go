package postgres

import (
	"context"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const appointmentColumns = `id, patient_id, doctor_id, date, time, status, reason, created_at, updated_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (patient_id, doctor_id, date, time, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, a.PatientID, a.DoctorID, a.Date, a.Time, a.Status, a.Reason).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return wrap("create appointment", err)
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.GetContext(ctx, &a, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id); err != nil {
		return nil, wrap("get appointment", err)
	}
	return &a, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE appointments
		SET date = $1, time = $2, status = $3, reason = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, a.Date, a.Time, a.Status, a.Reason, a.ID).Scan(&a.UpdatedAt)
	return wrap("update appointment", err)
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return wrap("delete appointment", err)
	}
	return requireRows(result, "delete appointment")
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error) {
	appointments := []*model.Appointment{}
	err := r.db.SelectContext(ctx, &appointments,
		`SELECT `+appointmentColumns+` FROM appointments WHERE patient_id = $1 ORDER BY date DESC, time DESC`, patientID)
	return appointments, wrap("list patient appointments", err)
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	appointments := []*model.Appointment{}
	err := r.db.SelectContext(ctx, &appointments,
		`SELECT `+appointmentColumns+` FROM appointments WHERE doctor_id = $1 ORDER BY date DESC, time DESC`, doctorID)
	return appointments, wrap("list doctor appointments", err)
}

func (r *appointmentRepository) Count(ctx context.Context, doctorID *int64) (int, error) {
	if doctorID != nil {
		return r.count(ctx, "count appointments", `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1`, *doctorID)
	}
	return r.count(ctx, "count appointments", `SELECT COUNT(*) FROM appointments`)
}
