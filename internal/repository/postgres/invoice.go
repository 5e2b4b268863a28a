package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const invoiceColumns = `i.id, i.patient_id, i.amount, i.description, i.status, i.payment_url, i.tx_ref,
	i.created_at, i.updated_at, u.username AS patient_username`

const invoiceFrom = ` FROM invoices i JOIN users u ON u.id = i.patient_id `

type invoiceRepository struct {
	BaseRepository
}

func NewInvoiceRepository(base BaseRepository) repository.InvoiceRepository {
	return &invoiceRepository{base}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *model.Invoice) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO invoices (patient_id, amount, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, inv.PatientID, inv.Amount, inv.Description, inv.Status).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	return wrap("create invoice", err)
}

func (r *invoiceRepository) getWhere(ctx context.Context, op, where string, args ...interface{}) (*model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.GetContext(ctx, &inv, `SELECT `+invoiceColumns+invoiceFrom+where, args...); err != nil {
		return nil, wrap(op, err)
	}
	return &inv, nil
}

func (r *invoiceRepository) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	return r.getWhere(ctx, "get invoice", `WHERE i.id = $1`, id)
}

func (r *invoiceRepository) GetPending(ctx context.Context, id int64) (*model.Invoice, error) {
	return r.getWhere(ctx, "get pending invoice", `WHERE i.id = $1 AND i.status = $2`, id, model.InvoiceStatusPending)
}

func (r *invoiceRepository) GetByTxRef(ctx context.Context, txRef string) (*model.Invoice, error) {
	return r.getWhere(ctx, "get invoice by tx_ref", `WHERE i.tx_ref = $1`, txRef)
}

func (r *invoiceRepository) SetTxRef(ctx context.Context, id int64, txRef string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE invoices SET tx_ref = $1, updated_at = NOW() WHERE id = $2`, txRef, id)
	if err != nil {
		return wrap("set invoice tx_ref", err)
	}
	return requireRows(result, "set invoice tx_ref")
}

func (r *invoiceRepository) SetPaymentURL(ctx context.Context, id int64, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE invoices SET payment_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return wrap("set invoice payment url", err)
	}
	return requireRows(result, "set invoice payment url")
}

func (r *invoiceRepository) ApplyPayment(ctx context.Context, id int64, paid float64) (bool, error) {
	// Single statement so concurrent callbacks serialize on the row lock and
	// none can apply after the paid transition.
	result, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET
			amount = GREATEST(amount - $1, 0),
			status = CASE WHEN amount - $1 <= 0 THEN $2 ELSE status END,
			updated_at = NOW()
		WHERE id = $3 AND status <> $2
	`, paid, model.InvoiceStatusPaid, id)
	if err != nil {
		return false, wrap("apply invoice payment", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, wrap("apply invoice payment", err)
	}
	return rows > 0, nil
}

func (r *invoiceRepository) list(ctx context.Context, op, where string, args ...interface{}) ([]*model.Invoice, error) {
	invoices := []*model.Invoice{}
	err := r.db.SelectContext(ctx, &invoices, `SELECT `+invoiceColumns+invoiceFrom+where+` ORDER BY i.created_at DESC`, args...)
	return invoices, wrap(op, err)
}

func (r *invoiceRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Invoice, error) {
	return r.list(ctx, "list patient invoices", `WHERE i.patient_id = $1`, patientID)
}

func (r *invoiceRepository) ListAll(ctx context.Context) ([]*model.Invoice, error) {
	return r.list(ctx, "list invoices", "")
}

func (r *invoiceRepository) ListByPatientAndStatus(ctx context.Context, patientID int64, status string) ([]*model.Invoice, error) {
	return r.list(ctx, "list patient invoices by status", `WHERE i.patient_id = $1 AND i.status = $2`, patientID, status)
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, ids []int64, from, to string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3
	`, to, pq.Array(ids), from)
	if err != nil {
		return 0, wrap("update invoice status", err)
	}
	return result.RowsAffected()
}

func (r *invoiceRepository) SumByStatus(ctx context.Context, status string, start, end time.Time) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM invoices
		WHERE status = $1 AND created_at >= $2 AND created_at < $3
	`, status, start, end)
	return total, wrap("sum invoices", err)
}
