package domain

import (
	"math"
	"strconv"
	"strings"
)

// Normalize derives a Record from a raw row. It returns false when either
// coordinate is missing or unparseable; that is the only rejection rule.
// Every other malformed field degrades to nil or zero.
func Normalize(raw RawRecord) (Record, bool) {
	lat, okLat := parseCoordinate(raw.Latitude)
	lon, okLon := parseCoordinate(raw.Longitude)
	if !okLat || !okLon {
		return Record{}, false
	}

	rec := Record{
		Geo:          Geo{Lat: lat, Lon: lon},
		Region:       strings.TrimSpace(raw.Borough),
		Street:       strings.TrimSpace(raw.Street),
		Hour:         parseHour(raw.CrashTime),
		TotalInjured: parseCount(raw.PersonsInjured),
		TotalKilled:  parseCount(raw.PersonsKilled),
		Injured: Casualties{
			Pedestrians: parseCount(raw.PedestriansInjured),
			Cyclists:     parseCount(raw.CyclistsInjured),
			Motorists:    parseCount(raw.MotoristsInjured),
		},
		Killed: Casualties{
			Pedestrians: parseCount(raw.PedestriansKilled),
			Cyclists:     parseCount(raw.CyclistsKilled),
			Motorists:    parseCount(raw.MotoristsKilled),
		},
	}
	if rec.Region != "" {
		rec.RegionSource = "original"
	}

	for i := range SlotCount {
		rec.Factors[i] = strings.TrimSpace(raw.Factors[i])
		rec.Vehicles[i] = strings.TrimSpace(raw.Vehicles[i])
		rec.VehicleCategories[i] = ClassifyVehicle(rec.Vehicles[i])
	}
	rec.DominantFactor = FirstNonEmpty(rec.Factors[:])
	rec.FactorShort = ShortenFactor(rec.DominantFactor)
	rec.categories = NewCategorySet(rec.VehicleCategories[:]...)

	return rec, true
}

// NormalizeAll normalizes a batch, returning the kept records and the number
// dropped for missing coordinates.
func NormalizeAll(raws []RawRecord) ([]Record, int) {
	out := make([]Record, 0, len(raws))
	dropped := 0
	for i := range raws {
		rec, ok := Normalize(raws[i])
		if !ok {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

// parseCoordinate parses a latitude or longitude. Blank, unparseable, and
// non-finite values count as missing.
func parseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseCount parses a person count, returning 0 for blank, unparseable, or
// negative values. Fractional values ("2.0") are truncated.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// parseHour extracts the hour from a 24-hour "HH:MM" time (a single-digit
// hour such as "9:05" is accepted). Returns nil if the value is not a valid
// clock time.
func parseHour(s string) *int {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return nil
	}
	hour, errH := strconv.Atoi(hh)
	mins, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || hour < 0 || hour > 23 || mins < 0 || mins > 59 {
		return nil
	}
	return &hour
}
