package domain

import "context"

// GeocodingResult is the place a coordinate resolves to. The zero value means
// the provider found no locality there.
type GeocodingResult struct {
	// PlaceName is the locality's short name ("Brooklyn"); BackfillRegion
	// upper-cases it into a region label.
	PlaceName        string
	FormattedAddress string
	Confidence       float64 // provider relevance, 0-1
}

// Geocoder looks up the locality containing a point. Region backfill uses it
// for records that arrive without a borough.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
