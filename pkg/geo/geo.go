package geo

import "math"

const earthRadiusMeters = 6_371_000.0

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := toRadians(lat1)
	lat2r := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Bearing returns the initial great-circle bearing in degrees from point 1
// to point 2, measured clockwise from north, in [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := toRadians(lat1)
	lat2r := toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(lat2r)
	x := math.Cos(lat1r)*math.Sin(lat2r) - math.Sin(lat1r)*math.Cos(lat2r)*math.Cos(dLon)

	bearing := toDegrees(math.Atan2(y, x))
	if bearing < 0 {
		bearing += 360
	}
	return bearing
}

// Destination returns the point reached by travelling distMeters along the
// given bearing (degrees clockwise from north) from the start point.
func Destination(lat, lon, bearingDeg, distMeters float64) (float64, float64) {
	latR := toRadians(lat)
	lonR := toRadians(lon)
	brgR := toRadians(bearingDeg)
	d := distMeters / earthRadiusMeters

	lat2 := math.Asin(math.Sin(latR)*math.Cos(d) +
		math.Cos(latR)*math.Sin(d)*math.Cos(brgR))
	lon2 := lonR + math.Atan2(
		math.Sin(brgR)*math.Sin(d)*math.Cos(latR),
		math.Cos(d)-math.Sin(latR)*math.Sin(lat2))

	return toDegrees(lat2), toDegrees(lon2)
}
