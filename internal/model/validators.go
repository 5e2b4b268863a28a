package model

import (
	"sync"

	"github.com/jwalitptl/hospital-api/pkg/validator"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the domain binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, err := validator.Engine()
		if err != nil {
			registerErr = err
			return
		}

		enums := map[string][]string{
			"role":                Roles,
			"employee_role":       EmployeeRoles,
			"appointment_status":  AppointmentStatuses,
			"lab_status":          LabStatuses,
			"prescription_status": PrescriptionStatuses,
			"gender":              {GenderMale, GenderFemale},
			"referral_status":     {ReferralStatusAccepted, ReferralStatusDeclined},
		}
		for tag, values := range enums {
			if err := validator.RegisterEnum(v, tag, values...); err != nil {
				registerErr = err
				return
			}
		}
		registerErr = validator.RegisterClock(v)
	})
	return registerErr
}
