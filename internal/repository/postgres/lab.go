package postgres

import (
	"context"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const labTestColumns = `id, doctor_id, patient_id, test_name, status, result, ordered_at, updated_at`

type labTestRepository struct {
	BaseRepository
}

func NewLabTestRepository(base BaseRepository) repository.LabTestRepository {
	return &labTestRepository{base}
}

func (r *labTestRepository) Create(ctx context.Context, t *model.LabTest) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO lab_tests (doctor_id, patient_id, test_name, status, result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, ordered_at, updated_at
	`, t.DoctorID, t.PatientID, t.TestName, t.Status, t.Result).Scan(&t.ID, &t.OrderedAt, &t.UpdatedAt)
	return wrap("create lab test", err)
}

func (r *labTestRepository) Get(ctx context.Context, id int64) (*model.LabTest, error) {
	var t model.LabTest
	if err := r.db.GetContext(ctx, &t, `SELECT `+labTestColumns+` FROM lab_tests WHERE id = $1`, id); err != nil {
		return nil, wrap("get lab test", err)
	}
	return &t, nil
}

func (r *labTestRepository) Update(ctx context.Context, t *model.LabTest) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE lab_tests SET status = $1, result = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, t.Status, t.Result, t.ID).Scan(&t.UpdatedAt)
	return wrap("update lab test", err)
}

func (r *labTestRepository) list(ctx context.Context, op, where string, args ...interface{}) ([]*model.LabTest, error) {
	tests := []*model.LabTest{}
	err := r.db.SelectContext(ctx, &tests, `SELECT `+labTestColumns+` FROM lab_tests `+where+` ORDER BY ordered_at DESC`, args...)
	return tests, wrap(op, err)
}

func (r *labTestRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.LabTest, error) {
	return r.list(ctx, "list doctor lab tests", `WHERE doctor_id = $1`, doctorID)
}

func (r *labTestRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.LabTest, error) {
	return r.list(ctx, "list patient lab tests", `WHERE patient_id = $1`, patientID)
}

func (r *labTestRepository) ListAll(ctx context.Context) ([]*model.LabTest, error) {
	return r.list(ctx, "list lab tests", "")
}

func (r *labTestRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "count lab tests", `SELECT COUNT(*) FROM lab_tests`)
}
