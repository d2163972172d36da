package query

import (
	"io"
	"log/slog"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

func hourPtr(h int) *int { return &h }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rec builds a record with the given region, hour, factor, and first-slot
// vehicle category. Pass hour < 0 for a record without a parsed hour.
func rec(region string, hour int, factor string, vehicle domain.VehicleCategory) domain.Record {
	r := domain.Record{
		Geo:            domain.Geo{Lat: 40.7, Lon: -73.9},
		Region:         region,
		DominantFactor: factor,
		FactorShort:    domain.ShortenFactor(factor),
	}
	if hour >= 0 {
		r.Hour = hourPtr(hour)
	}
	if vehicle != "" {
		r.VehicleCategories[0] = vehicle
	}
	return r
}

func deref(recs []*domain.Record) []domain.Record {
	out := make([]domain.Record, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	return out
}

func ptrs(recs []domain.Record) []*domain.Record {
	out := make([]*domain.Record, len(recs))
	for i := range recs {
		out[i] = &recs[i]
	}
	return out
}
