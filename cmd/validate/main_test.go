package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
)

const sampleCSV = "../../internal/pipeline/testdata/collisions_sample.csv"

func TestRun_SampleDataPasses(t *testing.T) {
	assert.Equal(t, 0, run(sampleCSV, dataset.Options{}))
}

func TestRun_MissingSourceFails(t *testing.T) {
	assert.Equal(t, 1, run("testdata/missing.csv", dataset.Options{}))
}

func TestPhases_SampleData(t *testing.T) {
	rows, err := loadRows(context.Background(), sampleCSV, dataset.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 11)

	var records []domain.Record
	for _, r := range rows {
		if r.kept {
			records = append(records, r.rec)
		}
	}

	for _, p := range []*phase{
		validateCoordinates(rows),
		validateDominantFactor(records),
		validateVehicleCategories(records),
		validateFactorLabels(records),
		validateValueRanges(records),
		validateSummary(records),
	} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func validRecord(t *testing.T) domain.Record {
	t.Helper()
	raw := domain.RawRecord{
		Latitude:  "40.6782",
		Longitude: "-73.9442",
		CrashTime: "8:15",
		Borough:   "BROOKLYN",
	}
	raw.Factors[0] = "Unsafe Speed"
	raw.Vehicles[0] = "Sedan"
	rec, ok := domain.Normalize(raw)
	require.True(t, ok)
	return rec
}

func TestPhases_DetectViolations(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(*domain.Record)
		check   func([]domain.Record) *phase
	}{
		{
			name:    "dominant factor without any slot",
			corrupt: func(r *domain.Record) { r.Factors[0] = "" },
			check:   validateDominantFactor,
		},
		{
			name:    "dominant factor not the first slot",
			corrupt: func(r *domain.Record) { r.Factors[0], r.Factors[1] = "Other", "Unsafe Speed" },
			check:   validateDominantFactor,
		},
		{
			name:    "unknown category",
			corrupt: func(r *domain.Record) { r.VehicleCategories[2] = "bus" },
			check:   validateVehicleCategories,
		},
		{
			name:    "missing label",
			corrupt: func(r *domain.Record) { r.FactorShort = "" },
			check:   validateFactorLabels,
		},
		{
			name:    "hour out of range",
			corrupt: func(r *domain.Record) { h := 24; r.Hour = &h },
			check:   validateValueRanges,
		},
		{
			name:    "negative count",
			corrupt: func(r *domain.Record) { r.Injured.Cyclists = -1 },
			check:   validateValueRanges,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := validRecord(t)
			require.True(t, tt.check([]domain.Record{good}).passed())

			bad := good
			tt.corrupt(&bad)
			p := tt.check([]domain.Record{good, bad})
			assert.False(t, p.passed())
			assert.Len(t, p.errors, 1)
		})
	}
}

func TestValidateCoordinates_KeptWithoutCoordinates(t *testing.T) {
	rows := []row{
		{line: 2, raw: domain.RawRecord{Latitude: "", Longitude: "-73.9"}, kept: true},
		{line: 3, raw: domain.RawRecord{Latitude: "40.7", Longitude: "-73.9"}, kept: false},
		{line: 4, raw: domain.RawRecord{Latitude: "NaN", Longitude: "-73.9"}, kept: false},
	}
	p := validateCoordinates(rows)
	assert.Len(t, p.errors, 2)
}
