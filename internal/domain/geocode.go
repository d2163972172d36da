package domain

import (
	"context"
	"log/slog"
	"strings"
)

// BackfillRegion fills a missing region by reverse geocoding the record's
// coordinates. Records that already carry a region are returned untouched.
// If geocoder is nil the record is unchanged; on failure RegionSource is set
// to "failed" and the region stays empty (graceful degradation).
func BackfillRegion(ctx context.Context, rec Record, geocoder Geocoder, logger *slog.Logger) Record {
	if geocoder == nil || rec.Region != "" {
		return rec
	}

	result, err := geocoder.ReverseGeocode(ctx, rec.Geo.Lat, rec.Geo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", rec.Geo.Lat,
			"lon", rec.Geo.Lon,
			"error", err,
		)
		rec.RegionSource = "failed"
		return rec
	}

	// Borough labels in the source are upper case ("BROOKLYN").
	if name := strings.TrimSpace(result.PlaceName); name != "" {
		rec.Region = strings.ToUpper(name)
		rec.RegionSource = "reverse"
	}
	return rec
}
