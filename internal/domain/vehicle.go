package domain

import (
	"fmt"
	"strings"
)

// VehicleCategory is the coarse class assigned to a free-text vehicle type.
type VehicleCategory string

const (
	VehicleCar        VehicleCategory = "car"
	VehicleMotorcycle VehicleCategory = "motorcycle"
	VehicleTruck      VehicleCategory = "truck"
	VehicleOther      VehicleCategory = "other"
)

// VehicleCategories lists every category in the order the dashboard offers them.
func VehicleCategories() []VehicleCategory {
	return []VehicleCategory{VehicleCar, VehicleMotorcycle, VehicleTruck, VehicleOther}
}

// ParseVehicleCategory validates a category name (case-insensitive).
func ParseVehicleCategory(s string) (VehicleCategory, error) {
	c := VehicleCategory(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case VehicleCar, VehicleMotorcycle, VehicleTruck, VehicleOther:
		return c, nil
	default:
		return "", fmt.Errorf("unknown vehicle category %q", s)
	}
}

// vehicleRule pairs a category with the substrings that select it.
type vehicleRule struct {
	category VehicleCategory
	keywords []string
}

// vehicleRules is evaluated top to bottom; the first rule with a matching
// keyword wins. Motorcycle precedes truck, which precedes car.
var vehicleRules = [...]vehicleRule{
	{
		category: VehicleMotorcycle,
		keywords: []string{
			"motorcycle", "motorbike", "scooter", "moped", "dirt", "bike",
			"bicycle", "citibike", "mini", "hover", "skate", "unic", "one wheel",
			"e-bike", "ebike", "e bike", "e-scooter", "escooter", "e scooter",
			"kick", "stand", "razor",
		},
	},
	{
		category: VehicleTruck,
		keywords: []string{
			"truck", "van", "bus", "ambul", "fire", "fdny", "usps", "box",
			"freight", "dump", "tractor", "semi", "delivery", "tow",
			"sweep", "cement", "mixer", "fork", "lift", "backhoe",
			"construction", "cargo", "commercial", "flat", "pick", "pickup",
			"uhaul", "sanitation", "loader", "bobcat", "plow", "snow",
			"armored", "atv", "toolcat",
		},
	},
	{
		category: VehicleCar,
		keywords: []string{
			"sedan", "station wagon", "sport utility", "suv", "suburban",
			"passenger", "4 dr", "2 dr", "coupe", "convertible", "hatch",
			"minivan", "wagon",
		},
	},
}

// ClassifyVehicle maps a free-text vehicle type code to a category using
// case-insensitive substring matching. Empty input classifies as other.
func ClassifyVehicle(descriptor string) VehicleCategory {
	v := strings.ToLower(strings.TrimSpace(descriptor))
	if v == "" {
		return VehicleOther
	}
	for _, rule := range vehicleRules {
		for _, k := range rule.keywords {
			if strings.Contains(v, k) {
				return rule.category
			}
		}
	}
	return VehicleOther
}

// CategorySet is a bitset over VehicleCategory values.
type CategorySet uint8

func categoryBit(c VehicleCategory) CategorySet {
	switch c {
	case VehicleCar:
		return 1 << 0
	case VehicleMotorcycle:
		return 1 << 1
	case VehicleTruck:
		return 1 << 2
	case VehicleOther:
		return 1 << 3
	default:
		return 0
	}
}

// NewCategorySet builds a set from the given categories. Unknown values are ignored.
func NewCategorySet(cats ...VehicleCategory) CategorySet {
	var s CategorySet
	for _, c := range cats {
		s |= categoryBit(c)
	}
	return s
}

// Has reports whether c is in the set.
func (s CategorySet) Has(c VehicleCategory) bool {
	b := categoryBit(c)
	return b != 0 && s&b != 0
}

// Intersects reports whether the two sets share any category.
func (s CategorySet) Intersects(o CategorySet) bool { return s&o != 0 }

// Empty reports whether the set has no members.
func (s CategorySet) Empty() bool { return s == 0 }
