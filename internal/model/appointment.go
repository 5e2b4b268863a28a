package model

const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCanceled  = "canceled"
)

var AppointmentStatuses = []string{AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCanceled}

type Appointment struct {
	Base
	PatientID int64  `json:"patient_id" db:"patient_id"`
	DoctorID  int64  `json:"doctor_id" db:"doctor_id"`
	Date      Date   `json:"date" db:"date"`
	Time      Clock  `json:"time" db:"time"`
	Status    string `json:"status" db:"status"`
	Reason    string `json:"reason" db:"reason"`
}

type CreateAppointmentRequest struct {
	DoctorID int64  `json:"doctor_id" binding:"required"`
	Date     *Date  `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required,clock"`
	Reason   string `json:"reason"`
}

type UpdateAppointmentRequest struct {
	Date   *Date   `json:"date"`
	Time   *string `json:"time" binding:"omitempty,clock"`
	Status *string `json:"status" binding:"omitempty,appointment_status"`
	Reason *string `json:"reason"`
}
