package model

import "time"

const (
	PrescriptionStatusPending   = "pending"
	PrescriptionStatusDispensed = "dispensed"
)

var PrescriptionStatuses = []string{PrescriptionStatusPending, PrescriptionStatusDispensed}

type Prescription struct {
	ID             int64     `json:"id" db:"id"`
	DoctorID       int64     `json:"doctor_id" db:"doctor_id"`
	PatientID      int64     `json:"patient_id" db:"patient_id"`
	MedicationName string    `json:"medication_name" db:"medication_name"`
	Dosage         string    `json:"dosage" db:"dosage"`
	Instructions   string    `json:"instructions" db:"instructions"`
	Status         string    `json:"status" db:"status"`
	PrescribedAt   time.Time `json:"prescribed_at" db:"prescribed_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type PrescribeRequest struct {
	PatientID      int64  `json:"patient_id" binding:"required"`
	MedicationName string `json:"medication_name" binding:"required,max=255"`
	Dosage         string `json:"dosage" binding:"required"`
	Instructions   string `json:"instructions"`
}

type UpdatePrescriptionRequest struct {
	Status       *string `json:"status" binding:"omitempty,prescription_status"`
	Dosage       *string `json:"dosage"`
	Instructions *string `json:"instructions"`
}

type Drug struct {
	Base
	Name          string  `json:"name" db:"name"`
	Description   string  `json:"description" db:"description"`
	Price         float64 `json:"price" db:"price"`
	StockQuantity int     `json:"stock_quantity" db:"stock_quantity"`
}

type DrugRequest struct {
	Name          string  `json:"name" binding:"required,max=255"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"gte=0"`
	StockQuantity int     `json:"stock_quantity" binding:"gte=0"`
}

type UpdateDrugRequest struct {
	Name          *string  `json:"name" binding:"omitempty,max=255"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" binding:"omitempty,gte=0"`
	StockQuantity *int     `json:"stock_quantity" binding:"omitempty,gte=0"`
}
