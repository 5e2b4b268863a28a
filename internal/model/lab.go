package model

import "time"

const (
	LabStatusPending   = "pending"
	LabStatusCompleted = "completed"
)

var LabStatuses = []string{LabStatusPending, LabStatusCompleted}

type LabTest struct {
	ID        int64     `json:"id" db:"id"`
	DoctorID  int64     `json:"doctor_id" db:"doctor_id"`
	PatientID int64     `json:"patient_id" db:"patient_id"`
	TestName  string    `json:"test_name" db:"test_name"`
	Status    string    `json:"status" db:"status"`
	Result    *string   `json:"result" db:"result"`
	OrderedAt time.Time `json:"ordered_at" db:"ordered_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type OrderLabTestRequest struct {
	PatientID int64  `json:"patient_id" binding:"required"`
	TestName  string `json:"test_name" binding:"required,max=255"`
}

type UpdateLabTestRequest struct {
	Status *string `json:"status" binding:"omitempty,lab_status"`
	Result *string `json:"result"`
}
