// Package geo provides great-circle distance helpers and a grid index for
// matching telemetry positions against trackside reference coordinates.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for spherical distances.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsValid reports whether both coordinates are finite numbers.
func (p Point) IsValid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the surface distance in metres between two coordinates
// given in degrees. NaN inputs yield NaN.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// Rounding can push a marginally above 1 for antipodal points.
	a = math.Min(a, 1)

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(a))
}

// Distance returns the haversine distance in metres between a and b.
func Distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// DistancesFrom evaluates the distance from every (lats[i], lons[i]) to ref.
// The slices must be the same length; the shorter length wins otherwise.
func DistancesFrom(lats, lons []float64, ref Point) []float64 {
	n := len(lats)
	if len(lons) < n {
		n = len(lons)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = Haversine(lats[i], lons[i], ref.Lat, ref.Lon)
	}
	return out
}
