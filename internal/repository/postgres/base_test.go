package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/hospital-api/internal/repository"
)

func TestConstraintColumn(t *testing.T) {
	tests := []struct {
		constraint string
		want       string
	}{
		{"users_email_key", "email"},
		{"users_username_key", "username"},
		{"users_ssn_key", "ssn"},
		{"doctor_profiles_ssn_key", "ssn"},
		{"patient_profiles_room_number_key", "room_number"},
		{"service_prices_service_name_key", "service_name"},
		{"drugs_name_key", "name"},
		{"invoices_tx_ref_key", "tx_ref"},
		{"employee_attendance_employee_id_date_key", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			assert.Equal(t, tt.want, constraintColumn(tt.constraint))
		})
	}
}

func TestWrapUniqueViolation(t *testing.T) {
	err := wrap("update user", &pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})

	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Equal(t, "email", repository.DuplicateColumn(err))
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}
