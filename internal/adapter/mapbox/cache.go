package mapbox

import (
	"context"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
)

// cellPrecision rounds coordinates to 3 decimals (about 110 m), so crashes
// at the same intersection share one lookup.
const cellPrecision = 1000

type cell struct {
	lat, lon int64
}

func cellOf(lat, lon float64) cell {
	return cell{
		lat: int64(math.Round(lat * cellPrecision)),
		lon: int64(math.Round(lon * cellPrecision)),
	}
}

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed on
// rounded coordinates.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[cell, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New[cell, domain.GeocodingResult](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := cellOf(lat, lon)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Empty answers are cached too: a point in the water stays in the water.
	c.cache.Add(key, result)
	return result, nil
}

// Len returns the number of cached cells.
func (c *CachedGeocoder) Len() int { return c.cache.Len() }
