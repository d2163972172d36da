package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

// parseParams reads filter parameters from a query string:
//
//	region=BROOKLYN&region=QUEENS&hour_min=7&hour_max=19&vehicle=truck
//
// Either hour bound alone selects a range; the missing bound defaults to the
// edge of the day.
func parseParams(q url.Values) (query.Params, error) {
	var p query.Params

	for _, r := range q["region"] {
		if r = strings.TrimSpace(r); r != "" {
			p.Regions = append(p.Regions, r)
		}
	}

	if q.Has("hour_min") || q.Has("hour_max") {
		minHour, err := parseHour(q, "hour_min", query.MinHour)
		if err != nil {
			return query.Params{}, err
		}
		maxHour, err := parseHour(q, "hour_max", query.MaxHour)
		if err != nil {
			return query.Params{}, err
		}
		p.HourRange = &query.HourRange{Min: minHour, Max: maxHour}
	}

	for _, v := range q["vehicle"] {
		c, err := domain.ParseVehicleCategory(v)
		if err != nil {
			return query.Params{}, fmt.Errorf("%w: %w", query.ErrInvalidParams, err)
		}
		p.Vehicles = append(p.Vehicles, c)
	}

	return p, p.Validate()
}

func parseHour(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	h, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", query.ErrInvalidParams, key, s)
	}
	return h, nil
}

// parseLimit reads the records limit, defaulting to and capped at ceiling.
func parseLimit(q url.Values, ceiling int) (int, error) {
	s := q.Get("limit")
	if s == "" {
		return ceiling, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer, got %q", query.ErrInvalidParams, s)
	}
	return min(n, ceiling), nil
}
