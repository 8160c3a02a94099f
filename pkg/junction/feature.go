package junction

import (
	"fmt"
	"time"
)

// AngleType buckets a junction by the shape of its angles.
type AngleType string

const (
	AngleVerySharp AngleType = "verysharp"
	AngleSharp     AngleType = "sharp"
	AngleSkewed    AngleType = "skewed"
	AngleNormal    AngleType = "normal"
)

// ClassifyAngles buckets the three interior angles. A junction with one arm
// spanning more than 200 degrees is skewed regardless of its sharpest angle.
func ClassifyAngles(angles [3]int16) AngleType {
	min, max := angles[0], angles[0]
	for _, a := range angles[1:] {
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	switch {
	case max > 200:
		return AngleSkewed
	case min < 30:
		return AngleVerySharp
	case min < 45:
		return AngleSharp
	default:
		return AngleNormal
	}
}

// ParseAngleType validates an angle type string from a query parameter.
func ParseAngleType(s string) (AngleType, error) {
	switch AngleType(s) {
	case AngleVerySharp, AngleSharp, AngleSkewed, AngleNormal:
		return AngleType(s), nil
	}
	return "", fmt.Errorf("invalid angle type %q", s)
}

// ElevationBlock is the DEM enrichment attached to a feature when the
// junction node and all three neighbors resolve to elevation data.
type ElevationBlock struct {
	NeighborElevations [3]float64
	Diffs              [3]float64
	MinDiff            float64
	MaxDiff            float64
}

// Feature is one detected Y-junction, ready for insertion. Bearings, flags
// and the elevation block's neighbor slots are positional: index i of each
// refers to the same road, in clockwise bearing order.
type Feature struct {
	OSMNodeID int64
	Lat       float64
	Lon       float64
	Angles    [3]int16
	Bearings  [3]float64
	Bridges   [3]bool
	Tunnels   [3]bool

	MinAngleIndex int16 // 1-based

	// Elevation is set when the DEM covers the junction node.
	Elevation *float64
	// Block is set only when all three neighbor elevations also resolved.
	Block *ElevationBlock
}

// ElevationUpdate back-fills the elevation columns of a stored junction.
type ElevationUpdate struct {
	ID                 int64
	Elevation          float64
	NeighborElevations [3]float64
	Diffs              [3]float64
	MinAngleIndex      int16
	MinDiff            float64
	MaxDiff            float64
}

// Junction is a stored feature row as read back from the database.
type Junction struct {
	ID        int64
	OSMNodeID int64
	Lat       float64
	Lon       float64
	Angle1    int16
	Angle2    int16
	Angle3    int16
	Bearings  []float32
	CreatedAt time.Time

	Elevation             *float64
	MinElevationDiff      *float64
	MaxElevationDiff      *float64
	MinAngleElevationDiff *float64
}

// Angles returns the stored angles in clockwise order.
func (j *Junction) Angles() [3]int16 {
	return [3]int16{j.Angle1, j.Angle2, j.Angle3}
}

// AngleType classifies the stored junction.
func (j *Junction) AngleType() AngleType {
	return ClassifyAngles(j.Angles())
}

// StreetViewURL builds a Google Street View panorama link at the junction,
// headed into the middle of the sharpest wedge.
func (j *Junction) StreetViewURL() string {
	base := fmt.Sprintf(
		"https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=%v,%v",
		j.Lat, j.Lon,
	)

	if len(j.Bearings) != 3 {
		return base
	}

	// angles[i] is the arc from bearings[i] to bearings[i+1] (wrapping),
	// so the sharpest wedge sits between the two bearings around the
	// minimum angle.
	angles := j.Angles()
	min := MinAngle(angles)

	var b1, b2 float64
	switch {
	case angles[0] == min:
		b1, b2 = float64(j.Bearings[0]), float64(j.Bearings[1])
	case angles[1] == min:
		b1, b2 = float64(j.Bearings[1]), float64(j.Bearings[2])
	default:
		b1, b2 = float64(j.Bearings[2]), float64(j.Bearings[0])
	}

	var heading float64
	if diff := b2 - b1; diff > 180 || diff < -180 {
		heading = (b1 + b2 + 360) / 2
		if heading >= 360 {
			heading -= 360
		}
	} else {
		heading = (b1 + b2) / 2
	}

	return fmt.Sprintf("%s&heading=%.0f", base, heading)
}
