package core

import (
	"math"

	"github.com/fieldsignals/georange/model"
)

// EarthRadiusMeters is the mean Earth radius used for all great-circle
// distance calculations (metres).
const EarthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two
// coordinates in metres, using the haversine formula on a sphere of
// radius EarthRadiusMeters. Inputs are degrees; altitude never enters
// the calculation.
func HaversineMeters(a, b model.Coordinate) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
