package junction

import (
	"math"
	"sort"

	"github.com/cozy-corner/y-junctions/pkg/geo"
)

// TJunctionAngle is the minimum-angle threshold separating Y-junctions from
// T-junctions: a junction whose smallest interior angle reaches this value
// is treated as a T and discarded.
const TJunctionAngle = 60

// Road is one arm of a junction: the neighbor node's coordinate plus the
// incident way's flags. Bearing is filled in by DecomposeAngles.
type Road struct {
	NodeID  int64
	Lat     float64
	Lon     float64
	Bridge  bool
	Tunnel  bool
	Bearing float64
}

// DecomposeAngles computes the three interior angles at the junction and
// the compass bearing of each arm. Roads are returned sorted by bearing
// ascending, which is clockwise order from north; flags and neighbor ids
// travel through the sort with their bearing. angles[0] spans
// sorted[0]→sorted[1], angles[1] spans sorted[1]→sorted[2], and angles[2]
// wraps from sorted[2] back to sorted[0].
//
// ok is false unless exactly three roads are given.
func DecomposeAngles(centerLat, centerLon float64, roads []Road) (angles [3]int16, sorted [3]Road, ok bool) {
	if len(roads) != 3 {
		return angles, sorted, false
	}

	copy(sorted[:], roads)
	for i := range sorted {
		sorted[i].Bearing = geo.Bearing(centerLat, centerLon, sorted[i].Lat, sorted[i].Lon)
	}
	sort.Slice(sorted[:], func(i, j int) bool {
		return sorted[i].Bearing < sorted[j].Bearing
	})

	angles[0] = int16(math.Round(sorted[1].Bearing - sorted[0].Bearing))
	angles[1] = int16(math.Round(sorted[2].Bearing - sorted[1].Bearing))
	angles[2] = int16(math.Round(360 - sorted[2].Bearing + sorted[0].Bearing))

	return angles, sorted, true
}

// MinAngleIndex returns the 1-based position of the smallest angle.
func MinAngleIndex(angles [3]int16) int16 {
	idx := 0
	for i := 1; i < 3; i++ {
		if angles[i] < angles[idx] {
			idx = i
		}
	}
	return int16(idx + 1)
}

// MinAngle returns the smallest of the three angles.
func MinAngle(angles [3]int16) int16 {
	min := angles[0]
	for _, a := range angles[1:] {
		if a < min {
			min = a
		}
	}
	return min
}
