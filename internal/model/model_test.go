package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSONAndScan(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01"`), &d))
	assert.Equal(t, "2024-05-01", d.String())

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01"`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`"01/05/2024"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`""`), &d))
	assert.Equal(t, "2024-05-01", d.String())

	var req CreateAppointmentRequest
	assert.Error(t, json.Unmarshal([]byte(`{"date": ""}`), &req))
	require.NoError(t, json.Unmarshal([]byte(`{"date": null}`), &req))
	assert.Nil(t, req.Date)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-01", scanned.String())
	require.NoError(t, scanned.Scan([]byte("2024-06-02T00:00:00Z")))
	assert.Equal(t, "2024-06-02", scanned.String())
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, Clock("08:30:00"), c)

	c, err = ParseClock("17:05:10")
	require.NoError(t, err)
	assert.Equal(t, 17*3600+5*60+10, c.Seconds())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

func TestAttendance_TotalHours(t *testing.T) {
	in, out := Clock("08:00:00"), Clock("16:30:00")

	a := Attendance{CheckIn: &in}
	assert.Nil(t, a.TotalHours())

	a.CheckOut = &out
	require.NotNil(t, a.TotalHours())
	assert.Equal(t, 8.5, *a.TotalHours())
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 10.13, RoundCents(10.125000001))
	assert.Equal(t, 0.3, RoundCents(0.1+0.2))
}

func TestRegisterValidators_Idempotent(t *testing.T) {
	require.NoError(t, RegisterValidators())
	require.NoError(t, RegisterValidators())
}
