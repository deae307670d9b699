// Package geo scores donor proximity. Banding is deliberately coarse because
// donor locations are often approximate.
package geo

import (
	"math"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance, or nil when either
// point is unknown.
func DistanceKm(from, to *domain.Coordinate) *float64 {
	if from == nil || to == nil {
		return nil
	}

	lat1 := toRadians(from.Lat)
	lat2 := toRadians(to.Lat)
	dLat := toRadians(to.Lat - from.Lat)
	dLon := toRadians(to.Lon - from.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	distance := earthRadiusKm * c
	return &distance
}

// ProximityScore maps a distance onto the 0-100 proximity band. Unknown
// distance scores 0.
func ProximityScore(distanceKm *float64) float64 {
	if distanceKm == nil {
		return 0
	}

	switch d := *distanceKm; {
	case d <= 5:
		return 100
	case d <= 10:
		return 80
	case d <= 20:
		return 60
	case d <= 30:
		return 40
	default:
		return 20
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
