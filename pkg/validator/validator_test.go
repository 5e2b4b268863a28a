package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Role  string `validate:"required,role"`
	Time  string `validate:"omitempty,clock"`
	Email string `validate:"omitempty,email"`
}

func newValidate(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, RegisterEnum(v, "role", "doctor", "patient"))
	require.NoError(t, RegisterClock(v))
	return v
}

func TestRegisterEnum(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(sample{Role: "doctor"}))
	assert.Error(t, v.Struct(sample{Role: "janitor"}))
}

func TestRegisterClock(t *testing.T) {
	v := newValidate(t)

	for _, ok := range []string{"08:30", "23:59:59", "00:00"} {
		assert.NoError(t, v.Struct(sample{Role: "doctor", Time: ok}), ok)
	}
	for _, bad := range []string{"24:00", "8:30", "12:60", "noon"} {
		assert.Error(t, v.Struct(sample{Role: "doctor", Time: bad}), bad)
	}
}

func TestDescribe(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(sample{Email: "nope"})
	require.Error(t, err)

	msg := Describe(err)
	assert.Contains(t, msg, "role is required")
	assert.Contains(t, msg, "email must be a valid email")
}
