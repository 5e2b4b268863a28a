package postgres

import (
	"context"
	"strings"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const prescriptionColumns = `id, doctor_id, patient_id, medication_name, dosage, instructions, status, prescribed_at, updated_at`

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO prescriptions (doctor_id, patient_id, medication_name, dosage, instructions, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, prescribed_at, updated_at
	`, p.DoctorID, p.PatientID, p.MedicationName, p.Dosage, p.Instructions, p.Status).
		Scan(&p.ID, &p.PrescribedAt, &p.UpdatedAt)
	return wrap("create prescription", err)
}

func (r *prescriptionRepository) Get(ctx context.Context, id int64) (*model.Prescription, error) {
	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id); err != nil {
		return nil, wrap("get prescription", err)
	}
	return &p, nil
}

func (r *prescriptionRepository) Update(ctx context.Context, p *model.Prescription) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE prescriptions SET status = $1, dosage = $2, instructions = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, p.Status, p.Dosage, p.Instructions, p.ID).Scan(&p.UpdatedAt)
	return wrap("update prescription", err)
}

func (r *prescriptionRepository) list(ctx context.Context, op, where string, args ...interface{}) ([]*model.Prescription, error) {
	items := []*model.Prescription{}
	err := r.db.SelectContext(ctx, &items, `SELECT `+prescriptionColumns+` FROM prescriptions `+where+` ORDER BY prescribed_at DESC`, args...)
	return items, wrap(op, err)
}

func (r *prescriptionRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Prescription, error) {
	return r.list(ctx, "list doctor prescriptions", `WHERE doctor_id = $1`, doctorID)
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Prescription, error) {
	return r.list(ctx, "list patient prescriptions", `WHERE patient_id = $1`, patientID)
}

func (r *prescriptionRepository) ListAll(ctx context.Context) ([]*model.Prescription, error) {
	return r.list(ctx, "list prescriptions", "")
}

func (r *prescriptionRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "count prescriptions", `SELECT COUNT(*) FROM prescriptions`)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const drugColumns = `id, name, description, price, stock_quantity, created_at, updated_at`

type drugRepository struct {
	BaseRepository
}

func NewDrugRepository(base BaseRepository) repository.DrugRepository {
	return &drugRepository{base}
}

func (r *drugRepository) Create(ctx context.Context, d *model.Drug) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO drugs (name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, d.Name, d.Description, d.Price, d.StockQuantity).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return wrap("create drug", err)
}

func (r *drugRepository) Get(ctx context.Context, id int64) (*model.Drug, error) {
	var d model.Drug
	if err := r.db.GetContext(ctx, &d, `SELECT `+drugColumns+` FROM drugs WHERE id = $1`, id); err != nil {
		return nil, wrap("get drug", err)
	}
	return &d, nil
}

func (r *drugRepository) Update(ctx context.Context, d *model.Drug) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE drugs SET name = $1, description = $2, price = $3, stock_quantity = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, d.Name, d.Description, d.Price, d.StockQuantity, d.ID).Scan(&d.UpdatedAt)
	return wrap("update drug", err)
}

func (r *drugRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM drugs WHERE id = $1`, id)
	if err != nil {
		return wrap("delete drug", err)
	}
	return requireRows(result, "delete drug")
}

func (r *drugRepository) List(ctx context.Context) ([]*model.Drug, error) {
	drugs := []*model.Drug{}
	err := r.db.SelectContext(ctx, &drugs, `SELECT `+drugColumns+` FROM drugs ORDER BY name`)
	return drugs, wrap("list drugs", err)
}

func (r *drugRepository) SearchByName(ctx context.Context, name string) ([]*model.Drug, error) {
	drugs := []*model.Drug{}
	err := r.db.SelectContext(ctx, &drugs,
		`SELECT `+drugColumns+` FROM drugs WHERE name ILIKE '%' || $1 || '%' ORDER BY name`, likeEscaper.Replace(name))
	return drugs, wrap("search drugs", err)
}
