package model

import "time"

const (
	AttendanceCheckIn  = "check_in"
	AttendanceCheckOut = "check_out"

	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

type Attendance struct {
	ID         int64  `json:"id" db:"id"`
	EmployeeID int64  `json:"employee_id" db:"employee_id"`
	Date       Date   `json:"date" db:"date"`
	CheckIn    *Clock `json:"check_in" db:"check_in"`
	CheckOut   *Clock `json:"check_out" db:"check_out"`
	Status     string `json:"status" db:"status"`
}

// TotalHours is nil until both check-in and check-out are recorded.
func (a *Attendance) TotalHours() *float64 {
	if a.CheckIn == nil || a.CheckOut == nil {
		return nil
	}
	secs := a.CheckOut.Seconds() - a.CheckIn.Seconds()
	if secs < 0 {
		secs += 24 * 3600
	}
	hours := RoundCents(float64(secs) / 3600)
	return &hours
}

// AttendanceView adds the derived total_hours to a row.
type AttendanceView struct {
	Attendance
	Username   string   `json:"username,omitempty" db:"username"`
	TotalHours *float64 `json:"total_hours" db:"-"`
}

type AttendanceRequest struct {
	Action string `json:"action" binding:"required,oneof=check_in check_out"`
	Time   string `json:"time" binding:"required,clock"`
}

type ServicePrice struct {
	ID          int64   `json:"id" db:"id"`
	ServiceName string  `json:"service_name" db:"service_name"`
	Price       float64 `json:"price" db:"price"`
}

type ServicePriceRequest struct {
	ServiceName string  `json:"service_name" binding:"required,max=255"`
	Price       float64 `json:"price" binding:"gte=0"`
}

const (
	MessageKindManager = "manager"
	MessageKindStaff   = "staff"
)

// Message is a free-form note between staff members.
type Message struct {
	ID         int64     `json:"id" db:"id"`
	Kind       string    `json:"kind" db:"kind"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	Subject    string    `json:"subject" db:"subject"`
	Message    string    `json:"message" db:"message"`
	IsRead     bool      `json:"is_read" db:"is_read"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" binding:"required"`
	Subject    string `json:"subject" binding:"max=255"`
	Message    string `json:"message" binding:"required"`
}

type FinancialSummary struct {
	StartDate       Date    `json:"start_date"`
	EndDate         Date    `json:"end_date"`
	TotalRevenue    float64 `json:"total_revenue"`
	PendingPayments float64 `json:"pending_payments"`
}

type AppointmentStats struct {
	DoctorID          *int64 `json:"doctor_id,omitempty"`
	TotalAppointments int    `json:"total_appointments"`
}

type SystemOverview struct {
	ActivePatients      int `json:"active_patients"`
	EmployeeCount       int `json:"employee_count"`
	UnreadNotifications int `json:"unread_notifications"`
}

type ServiceUsage struct {
	Appointments  int `json:"appointments"`
	LabTests      int `json:"lab_tests"`
	Prescriptions int `json:"prescriptions"`
}

// Employee is a staff member as listed to managers.
type Employee struct {
	ID        int64  `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"`
	Role      string `json:"role" db:"role"`
	IsActive  bool   `json:"is_active" db:"is_active"`
}
