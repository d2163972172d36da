package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVehicle(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		expected   VehicleCategory
	}{
		{"sedan", "Sedan", VehicleCar},
		{"suv", "Station Wagon/Sport Utility Vehicle", VehicleCar},
		{"4 door", "4 dr sedan", VehicleCar},
		{"passenger", "PASSENGER VEHICLE", VehicleCar},
		{"motorcycle", "Motorcycle", VehicleMotorcycle},
		{"e-bike", "E-Bike", VehicleMotorcycle},
		{"bicycle", "Bike", VehicleMotorcycle},
		{"box truck", "Box Truck", VehicleTruck},
		{"pick-up", "Pick-up Truck", VehicleTruck},
		{"ambulance", "AMBULANCE", VehicleTruck},
		{"bus", "Bus", VehicleTruck},
		{"taxi", "Taxi", VehicleOther},
		{"unknown code", "UNKNOWN", VehicleOther},
		{"empty", "", VehicleOther},
		{"whitespace", "   ", VehicleOther},
		{"padded", "  sedan  ", VehicleCar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyVehicle(tt.descriptor))
		})
	}
}

func TestClassifyVehicle_Precedence(t *testing.T) {
	// Motorcycle keywords win over truck and car keywords.
	assert.Equal(t, VehicleMotorcycle, ClassifyVehicle("Motorcycle Tow Truck"))
	assert.Equal(t, VehicleMotorcycle, ClassifyVehicle("Scooter van"))
	assert.Equal(t, VehicleMotorcycle, ClassifyVehicle("Minivan")) // "mini" is a motorcycle keyword
	// Truck keywords win over car keywords.
	assert.Equal(t, VehicleTruck, ClassifyVehicle("Sedan delivery"))
	assert.Equal(t, VehicleTruck, ClassifyVehicle("Station Wagon Tow"))
}

func TestClassifyVehicle_EveryMotorcycleKeywordBeatsTruck(t *testing.T) {
	for _, k := range vehicleRules[0].keywords {
		got := ClassifyVehicle(k + " truck")
		assert.Equal(t, VehicleMotorcycle, got, "keyword %q", k)
	}
}

func TestClassifyVehicle_Deterministic(t *testing.T) {
	for _, d := range []string{"Sedan", "Box Truck", "Moped", "Taxi", ""} {
		assert.Equal(t, ClassifyVehicle(d), ClassifyVehicle(d))
	}
}

func TestParseVehicleCategory(t *testing.T) {
	c, err := ParseVehicleCategory(" Truck ")
	require.NoError(t, err)
	assert.Equal(t, VehicleTruck, c)

	_, err = ParseVehicleCategory("boat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boat")
}

func TestCategorySet(t *testing.T) {
	s := NewCategorySet(VehicleCar, VehicleOther, VehicleCar)

	assert.True(t, s.Has(VehicleCar))
	assert.True(t, s.Has(VehicleOther))
	assert.False(t, s.Has(VehicleTruck))
	assert.False(t, s.Has(VehicleCategory("boat")))
	assert.False(t, s.Empty())
	assert.True(t, NewCategorySet().Empty())

	assert.True(t, s.Intersects(NewCategorySet(VehicleTruck, VehicleOther)))
	assert.False(t, s.Intersects(NewCategorySet(VehicleMotorcycle)))
}
