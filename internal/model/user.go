package model

import (
	"time"
)

// User role constants
const (
	RoleManager       = "manager"
	RoleDoctor        = "doctor"
	RolePatient       = "patient"
	RolePharmacist    = "pharmacist"
	RoleLabTechnician = "lab_technician"
	RoleCashier       = "cashier"
	RoleRecordOfficer = "record_officer"
)

// Roles lists every valid role.
var Roles = []string{RoleManager, RoleDoctor, RolePatient, RolePharmacist, RoleLabTechnician, RoleCashier, RoleRecordOfficer}

// EmployeeRoles are the roles a manager may create.
var EmployeeRoles = []string{RoleDoctor, RolePharmacist, RoleLabTechnician, RoleCashier, RoleRecordOfficer}

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// IsEmployeeRole reports whether role belongs to hospital staff.
func IsEmployeeRole(role string) bool {
	return role != "" && role != RolePatient
}

// User represents a system user
type User struct {
	Base
	Username       string     `json:"username" db:"username"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Email          string     `json:"email" db:"email"`
	FirstName      string     `json:"first_name" db:"first_name"`
	MiddleName     *string    `json:"middle_name,omitempty" db:"middle_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Role           string     `json:"role" db:"role"`
	PhoneNumber    *string    `json:"phone_number,omitempty" db:"phone_number"`
	Address        *string    `json:"address,omitempty" db:"address"`
	Gender         *string    `json:"gender,omitempty" db:"gender"`
	DateOfBirth    *Date      `json:"date_of_birth,omitempty" db:"date_of_birth"`
	SSN            *string    `json:"ssn,omitempty" db:"ssn"`
	ProfilePicture *string    `json:"profile_picture,omitempty" db:"profile_picture"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type DoctorProfile struct {
	UserID     int64  `json:"user_id" db:"user_id"`
	SSN        string `json:"ssn" db:"ssn"`
	Department string `json:"department" db:"department"`
	Level      string `json:"level" db:"level"`
}

type EmployeeProfile struct {
	UserID int64  `json:"user_id" db:"user_id"`
	SSN    string `json:"ssn" db:"ssn"`
}

type PatientProfile struct {
	UserID      int64   `json:"user_id" db:"user_id"`
	Region      string  `json:"region" db:"region"`
	Town        string  `json:"town" db:"town"`
	Kebele      string  `json:"kebele" db:"kebele"`
	HouseNumber string  `json:"house_number" db:"house_number"`
	RoomNumber  *string `json:"room_number,omitempty" db:"room_number"`
}

// SignupRequest registers a new patient. It binds from JSON or a multipart form.
type SignupRequest struct {
	Username    string `json:"username" form:"username" binding:"required,min=3,max=150"`
	Password    string `json:"password" form:"password" binding:"required,min=8"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	FirstName   string `json:"first_name" form:"first_name" binding:"required"`
	MiddleName  string `json:"middle_name" form:"middle_name"`
	LastName    string `json:"last_name" form:"last_name" binding:"required"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
	Address     string `json:"address" form:"address"`
	Gender      string `json:"gender" form:"gender" binding:"omitempty,gender"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Region      string `json:"region" form:"region" binding:"required"`
	Town        string `json:"town" form:"town" binding:"required"`
	Kebele      string `json:"kebele" form:"kebele" binding:"required"`
	HouseNumber string `json:"house_number" form:"house_number" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Message string    `json:"message"`
	User    LoginUser `json:"user"`
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
}

type LoginUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// CreateEmployeeRequest is submitted by a manager. Department and level apply
// to doctors only.
type CreateEmployeeRequest struct {
	Username    string `json:"username" form:"username" binding:"required,min=3,max=150"`
	Password    string `json:"password" form:"password" binding:"required,min=8"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	FirstName   string `json:"first_name" form:"first_name" binding:"required"`
	MiddleName  string `json:"middle_name" form:"middle_name"`
	LastName    string `json:"last_name" form:"last_name" binding:"required"`
	Role        string `json:"role" form:"role" binding:"required,role"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
	Address     string `json:"address" form:"address"`
	Gender      string `json:"gender" form:"gender" binding:"omitempty,gender"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	SSN         string `json:"ssn" form:"ssn" binding:"required"`
	Department  string `json:"department" form:"department"`
	Level       string `json:"level" form:"level"`
}

type ApprovePatientRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// PendingPatient is an inactive patient awaiting record officer approval.
type PendingPatient struct {
	ID          int64     `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	Email       string    `json:"email" db:"email"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Region      string    `json:"region" db:"region"`
	Town        string    `json:"town" db:"town"`
	Kebele      string    `json:"kebele" db:"kebele"`
	HouseNumber string    `json:"house_number" db:"house_number"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DoctorSummary lists a doctor with their department.
type DoctorSummary struct {
	ID         int64  `json:"id" db:"id"`
	Username   string `json:"username" db:"username"`
	FirstName  string `json:"first_name" db:"first_name"`
	LastName   string `json:"last_name" db:"last_name"`
	Email      string `json:"email" db:"email"`
	Department string `json:"department" db:"department"`
	Level      string `json:"level" db:"level"`
}

// Profile is the role-specific view of the current user.
type Profile struct {
	User     *User            `json:"user"`
	Doctor   *DoctorProfile   `json:"doctor_profile,omitempty"`
	Employee *EmployeeProfile `json:"employee_profile,omitempty"`
	Patient  *PatientProfile  `json:"patient_profile,omitempty"`
}

// UpdateProfileRequest carries partial updates; nil fields are left unchanged.
type UpdateProfileRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	FirstName   *string `json:"first_name"`
	MiddleName  *string `json:"middle_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Gender      *string `json:"gender" binding:"omitempty,gender"`
	SSN         *string `json:"ssn"`
	Department  *string `json:"department"`
	Level       *string `json:"level"`
	Region      *string `json:"region"`
	Town        *string `json:"town"`
	Kebele      *string `json:"kebele"`
	HouseNumber *string `json:"house_number"`
	RoomNumber  *string `json:"room_number"`
}
