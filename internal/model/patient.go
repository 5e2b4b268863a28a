package model

import "time"

type PatientComment struct {
	ID        int64     `json:"id" db:"id"`
	PatientID int64     `json:"patient_id" db:"patient_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CommentRequest struct {
	Message string `json:"message" binding:"required,min=5,max=500"`
}

type MedicalHistory struct {
	Appointments  []Appointment  `json:"appointments"`
	LabTests      []LabTest      `json:"lab_tests"`
	Prescriptions []Prescription `json:"prescriptions"`
}

type BillingHistory struct {
	Invoices []Invoice `json:"invoices"`
}
