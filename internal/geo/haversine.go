// Package geo provides great-circle calculations on store geolocations.
package geo

import (
	"math"

	"github.com/UnknownOlympus/storelens/internal/models"
)

// EarthRadiusKm is the mean radius of the Earth used by Distance.
const EarthRadiusKm = 6371

// precision is the number of decimal places Distance rounds to.
const precision = 1e4

// Distance returns the haversine distance between two points in kilometers,
// rounded to four decimal places.
func Distance(from, to models.Geolocation) float64 {
	lat1 := toRadians(float64(from.Lat))
	lat2 := toRadians(float64(to.Lat))
	dLat := toRadians(float64(to.Lat - from.Lat))
	dLon := toRadians(float64(to.Long - from.Long))

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Guard against values slightly above 1 caused by rounding.
	central := 2 * math.Asin(math.Sqrt(math.Min(1, a)))

	return math.Round(EarthRadiusKm*central*precision) / precision
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
