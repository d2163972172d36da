package query

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

// ErrInvalidParams is wrapped by every validation failure from Params.Validate.
var ErrInvalidParams = errors.New("invalid filter parameters")

const (
	MinHour = 0
	MaxHour = 23
)

// HourRange is an inclusive hour-of-day interval. It encodes as a two-element
// JSON array, e.g. [7, 19].
type HourRange struct {
	Min int
	Max int
}

// FullDay is the hour range that matches every parsed hour.
var FullDay = HourRange{Min: MinHour, Max: MaxHour}

// Contains reports whether hour falls inside the range.
func (h HourRange) Contains(hour int) bool {
	return hour >= h.Min && hour <= h.Max
}

func (h HourRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{h.Min, h.Max})
}

func (h *HourRange) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("hour_range must be [min, max]: %w", err)
	}
	h.Min, h.Max = pair[0], pair[1]
	return nil
}

// Params are the user-selected constraints for one query. The zero value
// applies no constraint at all.
type Params struct {
	// Regions keeps records whose region is one of these labels. Empty means
	// no region constraint.
	Regions []string `json:"regions,omitempty"`

	// HourRange keeps records whose hour falls inside the range. Nil means
	// the full day.
	HourRange *HourRange `json:"hour_range,omitempty"`

	// Vehicles keeps records with at least one vehicle slot in one of these
	// categories. Empty means no vehicle constraint.
	Vehicles []domain.VehicleCategory `json:"vehicle_categories,omitempty"`
}

// Validate checks the hour bounds and vehicle categories.
func (p Params) Validate() error {
	if h := p.HourRange; h != nil {
		if h.Min < MinHour || h.Max > MaxHour || h.Min > h.Max {
			return fmt.Errorf("%w: hour range [%d, %d] must satisfy %d <= min <= max <= %d",
				ErrInvalidParams, h.Min, h.Max, MinHour, MaxHour)
		}
	}
	for _, v := range p.Vehicles {
		if _, err := domain.ParseVehicleCategory(string(v)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}
	return nil
}

// hours returns the effective hour range.
func (p Params) hours() HourRange {
	if p.HourRange == nil {
		return FullDay
	}
	return *p.HourRange
}
