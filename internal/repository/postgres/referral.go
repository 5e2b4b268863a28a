package postgres

import (
	"context"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const referralColumns = `id, patient_id, referring_doctor_id, referred_doctor_id, department, reason, status, created_at, updated_at`

type referralRepository struct {
	BaseRepository
}

func NewReferralRepository(base BaseRepository) repository.ReferralRepository {
	return &referralRepository{base}
}

func (r *referralRepository) Create(ctx context.Context, ref *model.Referral) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO patient_referrals (patient_id, referring_doctor_id, referred_doctor_id, department, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, ref.PatientID, ref.ReferringDoctorID, ref.ReferredDoctorID, ref.Department, ref.Reason, ref.Status).
		Scan(&ref.ID, &ref.CreatedAt, &ref.UpdatedAt)
	return wrap("create referral", err)
}

func (r *referralRepository) Get(ctx context.Context, id int64) (*model.Referral, error) {
	var ref model.Referral
	if err := r.db.GetContext(ctx, &ref, `SELECT `+referralColumns+` FROM patient_referrals WHERE id = $1`, id); err != nil {
		return nil, wrap("get referral", err)
	}
	return &ref, nil
}

func (r *referralRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE patient_referrals SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return wrap("update referral", err)
	}
	return requireRows(result, "update referral")
}

func (r *referralRepository) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.Referral, error) {
	refs := []*model.Referral{}
	err := r.db.SelectContext(ctx, &refs, `
		SELECT `+referralColumns+` FROM patient_referrals
		WHERE referring_doctor_id = $1 OR referred_doctor_id = $1
		ORDER BY created_at DESC
	`, doctorID)
	return refs, wrap("list doctor referrals", err)
}

func (r *referralRepository) ListForPatient(ctx context.Context, patientID int64) ([]*model.Referral, error) {
	refs := []*model.Referral{}
	err := r.db.SelectContext(ctx, &refs, `
		SELECT `+referralColumns+` FROM patient_referrals WHERE patient_id = $1 ORDER BY created_at DESC
	`, patientID)
	return refs, wrap("list patient referrals", err)
}
