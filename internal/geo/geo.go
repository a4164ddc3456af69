// Package geo provides the great-circle distance and geohash helpers used
// when locating reports.
package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6371000

// GeohashPrecision is the number of characters stored on every report
// (cells of roughly 150 m).
const GeohashPrecision = 7

// DistanceMeters returns the haversine great-circle distance between two
// points given in decimal degrees.
func DistanceMeters(latA, lngA, latB, lngB float64) float64 {
	dLat := toRadians(latB - latA)
	dLng := toRadians(lngB - lngA)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(latA))*math.Cos(toRadians(latB))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Geohash encodes a coordinate at GeohashPrecision.
func Geohash(lat, lng float64) string {
	return GeohashWithPrecision(lat, lng, GeohashPrecision)
}

// GeohashWithPrecision encodes a coordinate using the given number of characters.
func GeohashWithPrecision(lat, lng float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lng, precision)
}

// ValidCoordinate reports whether lat/lng are finite and inside the
// geographic range.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Offset moves a point by the given north and east distances in meters using
// an equirectangular approximation. Good enough for seeding and tests at the
// scale of a few kilometers.
func Offset(lat, lng, northMeters, eastMeters float64) (float64, float64) {
	metersPerDegree := EarthRadiusMeters * math.Pi / 180
	dLat := northMeters / metersPerDegree
	dLng := eastMeters / (metersPerDegree * math.Cos(toRadians(lat)))
	return lat + dLat, lng + dLng
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
