package core

import (
	"math"
	"time"
)

// DeadReckon projects a position along a constant course and speed for the
// given duration, on the great circle. This is the single linear
// extrapolation the monitor performs; there is no multi-step trajectory
// model behind it.
func DeadReckon(pos LatLon, courseDeg, speedKnots float64, d time.Duration) LatLon {
	if speedKnots <= 0 || d <= 0 {
		return pos
	}

	distNM := speedKnots * d.Hours()
	angular := distNM / EarthRadiusNM

	lat1 := radians(pos.Lat)
	lon1 := radians(pos.Lon)
	course := radians(courseDeg)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(course))
	lon2 := lon1 + math.Atan2(
		math.Sin(course)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	lon2 = math.Mod(lon2+3*math.Pi, 2*math.Pi) - math.Pi

	return LatLon{Lat: degrees(lat2), Lon: degrees(lon2)}
}
