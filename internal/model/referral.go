package model

const (
	ReferralStatusPending  = "pending"
	ReferralStatusAccepted = "accepted"
	ReferralStatusDeclined = "declined"
)

type Referral struct {
	Base
	PatientID         int64  `json:"patient_id" db:"patient_id"`
	ReferringDoctorID int64  `json:"referring_doctor_id" db:"referring_doctor_id"`
	ReferredDoctorID  int64  `json:"referred_doctor_id" db:"referred_doctor_id"`
	Department        string `json:"department" db:"department"`
	Reason            string `json:"reason" db:"reason"`
	Status            string `json:"status" db:"status"`
}

type CreateReferralRequest struct {
	PatientID        int64  `json:"patient_id" binding:"required"`
	ReferredDoctorID int64  `json:"referred_doctor_id" binding:"required"`
	Department       string `json:"department" binding:"required"`
	Reason           string `json:"reason" binding:"required"`
}

type UpdateReferralRequest struct {
	Status string `json:"status" binding:"required,referral_status"`
}
