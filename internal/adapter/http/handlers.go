package http

import (
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.Run(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, res.Summary)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.engine.Options(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, opts)
}

// handleRecords returns the filtered subset as a GeoJSON FeatureCollection.
// X-Total-Count carries the size of the subset before limit is applied.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := parseParams(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := parseLimit(q, s.recordsLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.Run(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records := res.Records[:min(limit, len(res.Records))]
	fc := geojson.NewFeatureCollection()
	for _, rec := range records {
		fc.AddFeature(recordFeature(rec))
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(res.Records)))
	sharedobs.WriteJSON(w, http.StatusOK, fc)
}

// recordFeature renders one collision as a point with its tooltip data.
func recordFeature(rec *domain.Record) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{rec.Geo.Lon, rec.Geo.Lat})
	f.SetProperty("street", rec.Street)
	f.SetProperty("region", rec.Region)
	f.SetProperty("total_injured", rec.TotalInjured)
	f.SetProperty("total_killed", rec.TotalKilled)
	f.SetProperty("factor", rec.FactorShort)
	if rec.HasHour() {
		f.SetProperty("hour", *rec.Hour)
	}
	return f
}
