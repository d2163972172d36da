package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestBackfillRegion_NilGeocoder(t *testing.T) {
	rec := Record{Geo: Geo{Lat: 40.7, Lon: -73.9}}

	result := BackfillRegion(context.Background(), rec, nil, discardLogger())

	assert.Empty(t, result.Region)
	assert.Empty(t, result.RegionSource)
}

func TestBackfillRegion_KeepsExistingRegion(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{PlaceName: "Queens"}}
	rec := Record{Geo: Geo{Lat: 40.7, Lon: -73.9}, Region: "BROOKLYN", RegionSource: "original"}

	result := BackfillRegion(context.Background(), rec, geo, discardLogger())

	assert.Equal(t, "BROOKLYN", result.Region)
	assert.Equal(t, "original", result.RegionSource)
	assert.Equal(t, 0, geo.calls)
}

func TestBackfillRegion_Reverse(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{
		PlaceName:        "Brooklyn",
		FormattedAddress: "Brooklyn, New York, United States",
		Confidence:       1,
	}}
	rec := Record{Geo: Geo{Lat: 40.6782, Lon: -73.9442}}

	result := BackfillRegion(context.Background(), rec, geo, discardLogger())

	assert.Equal(t, "BROOKLYN", result.Region)
	assert.Equal(t, "reverse", result.RegionSource)
	assert.Equal(t, 1, geo.calls)
}

func TestBackfillRegion_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	rec := Record{Geo: Geo{Lat: 40.6782, Lon: -73.9442}}

	result := BackfillRegion(context.Background(), rec, geo, discardLogger())

	assert.Empty(t, result.Region)
	assert.Empty(t, result.RegionSource)
}

func TestBackfillRegion_Error(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("timeout")}
	rec := Record{Geo: Geo{Lat: 40.6782, Lon: -73.9442}}

	result := BackfillRegion(context.Background(), rec, geo, discardLogger())

	assert.Empty(t, result.Region)
	assert.Equal(t, "failed", result.RegionSource)
}
