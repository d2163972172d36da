package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func newCached(t *testing.T, inner domain.Geocoder, size int) (*CachedGeocoder, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	cached, err := NewCachedGeocoder(inner, size, metrics)
	require.NoError(t, err)
	return cached, metrics
}

func TestCachedGeocoder_HitWithinSameCell(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Brooklyn"}}
	cached, metrics := newCached(t, inner, 10)

	r1, err := cached.ReverseGeocode(context.Background(), 40.68358, -73.92402)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), 40.68361, -73.92419)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "nearby points share a cell")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_MissInDifferentCell(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Brooklyn"}}
	cached, _ := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 40.683, -73.924)
	_, _ = cached.ReverseGeocode(context.Background(), 40.690, -73.924)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestCachedGeocoder_EmptyResultCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached, _ := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 40.5, -73.5)
	_, _ = cached.ReverseGeocode(context.Background(), 40.5, -73.5)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("timeout")}
	cached, _ := newCached(t, inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 40.7, -73.9)
	require.Error(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 40.7, -73.9)
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Queens"}}
	cached, _ := newCached(t, inner, 2)

	_, _ = cached.ReverseGeocode(context.Background(), 40.1, -73.9)
	_, _ = cached.ReverseGeocode(context.Background(), 40.2, -73.9)
	_, _ = cached.ReverseGeocode(context.Background(), 40.1, -73.9) // refresh first cell
	_, _ = cached.ReverseGeocode(context.Background(), 40.3, -73.9) // evicts 40.2
	assert.Equal(t, 3, inner.calls)

	_, _ = cached.ReverseGeocode(context.Background(), 40.1, -73.9)
	assert.Equal(t, 3, inner.calls, "recently used cell survives")
	_, _ = cached.ReverseGeocode(context.Background(), 40.2, -73.9)
	assert.Equal(t, 4, inner.calls, "least recently used cell was evicted")
}

func TestNewCachedGeocoder_InvalidSize(t *testing.T) {
	_, err := NewCachedGeocoder(&countingGeocoder{}, 0, observability.NewMetricsForTesting())
	assert.Error(t, err)
}

func TestCellOf(t *testing.T) {
	assert.Equal(t, cellOf(40.68358, -73.92402), cellOf(40.6836, -73.924))
	assert.NotEqual(t, cellOf(40.6831, -73.924), cellOf(40.6849, -73.924))
}
