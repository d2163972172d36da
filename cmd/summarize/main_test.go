package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

func TestBuildParams(t *testing.T) {
	p, err := buildParams("BROOKLYN, QUEENS", "7-19", "truck,Car")
	require.NoError(t, err)

	assert.Equal(t, []string{"BROOKLYN", "QUEENS"}, p.Regions)
	assert.Equal(t, &query.HourRange{Min: 7, Max: 19}, p.HourRange)
	assert.Equal(t, []domain.VehicleCategory{domain.VehicleTruck, domain.VehicleCar}, p.Vehicles)
}

func TestBuildParams_Empty(t *testing.T) {
	p, err := buildParams("", "", "")
	require.NoError(t, err)
	assert.Equal(t, query.Params{}, p)
}

func TestBuildParams_SingleHour(t *testing.T) {
	p, err := buildParams("", "8", "")
	require.NoError(t, err)
	assert.Equal(t, &query.HourRange{Min: 8, Max: 8}, p.HourRange)
}

func TestBuildParams_Invalid(t *testing.T) {
	for _, tt := range []struct{ hours, vehicles string }{
		{"evening", ""},
		{"19-7", ""},
		{"0-24", ""},
		{"", "bus"},
	} {
		_, err := buildParams("", tt.hours, tt.vehicles)
		assert.ErrorIs(t, err, query.ErrInvalidParams, "hours=%q vehicles=%q", tt.hours, tt.vehicles)
	}
}

func TestPrintSummary(t *testing.T) {
	s := query.Aggregate(nil)

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "Collisions:")
	assert.Contains(t, out, query.NotApplicable)
	assert.Contains(t, out, "12am")
	assert.NotContains(t, out, "Region")
}
