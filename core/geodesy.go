package core

import "math"

// EarthRadiusNM is the mean Earth radius in nautical miles, used for all
// great-circle calculations in the risk engine.
const EarthRadiusNM = 3440.065

// LatLon is a geographic position in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Distance returns the great-circle (haversine) distance between two
// positions in nautical miles. It is symmetric and zero for coincident
// points.
func Distance(a, b LatLon) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return EarthRadiusNM * 2 * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial great-circle bearing from a to b, normalized
// to [0,360) degrees. For coincident points the direction vector is zero;
// we return a stable 0 rather than letting NaN escape.
func Bearing(a, b LatLon) float64 {
	if a == b {
		return 0
	}

	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	x := math.Sin(dLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := degrees(math.Atan2(x, y))
	return math.Mod(deg+360, 360)
}

// BearingDelta returns the absolute angular difference between two
// bearings, normalized to [0,180].
func BearingDelta(a, b float64) float64 {
	diff := math.Abs(a - b)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
