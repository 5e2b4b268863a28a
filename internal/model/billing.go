package model

const (
	InvoiceStatusPending  = "pending"
	InvoiceStatusPaid     = "paid"
	InvoiceStatusApproved = "approved"
)

// Invoice moves pending -> paid (gateway webhook) -> approved (cashier).
type Invoice struct {
	Base
	PatientID   int64   `json:"patient_id" db:"patient_id"`
	Amount      float64 `json:"amount" db:"amount"`
	Description string  `json:"description" db:"description"`
	Status      string  `json:"status" db:"status"`
	PaymentURL  *string `json:"payment_url,omitempty" db:"payment_url"`
	TxRef       *string `json:"tx_ref,omitempty" db:"tx_ref"`

	PatientUsername string `json:"patient_username,omitempty" db:"patient_username"`
}

type CreateInvoiceRequest struct {
	PatientID   int64   `json:"patient_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description"`
}

type PaymentLinkResponse struct {
	PaymentURL string `json:"payment_url"`
	TxRef      string `json:"tx_ref"`
}

type ApprovePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type ApprovePaymentResponse struct {
	ApprovedInvoices int     `json:"approved_invoices"`
	Total            float64 `json:"total"`
}

// PaymentEvent is the gateway webhook body.
type PaymentEvent struct {
	Event  string `json:"event"`
	Status string `json:"status"`
	TxRef  string `json:"tx_ref"`
}
