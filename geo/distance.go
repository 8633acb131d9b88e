package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Matches the sphere radius MongoDB uses for 2dsphere distances so the
// in-memory stores agree with $near and $geoNear.
const earthRadiusMeters = 6378100.0

type Unit string

const (
	Miles      Unit = "mi"
	Kilometers Unit = "km"
)

const (
	metersPerMile      = 1609.34
	metersPerKilometer = 1000.0
)

func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case Miles, Kilometers:
		return Unit(s), nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// ToMeters converts a distance in the given unit to meters.
func (u Unit) ToMeters(distance float64) float64 {
	if u == Miles {
		return distance * metersPerMile
	}
	return distance * metersPerKilometer
}

// Multiplier converts meters to the unit.
func (u Unit) Multiplier() float64 {
	if u == Miles {
		return 0.000621371
	}
	return 0.001
}

func degToRad(d float64) float64 {
	return d * (math.Pi / 180)
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)

	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (lat, lng float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected lat,lng got %q", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return lat, lng, nil
}
