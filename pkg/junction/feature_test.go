package junction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAngles(t *testing.T) {
	tests := []struct {
		name   string
		angles [3]int16
		want   AngleType
	}{
		{name: "very sharp", angles: [3]int16{25, 155, 180}, want: AngleVerySharp},
		{name: "sharp", angles: [3]int16{30, 150, 180}, want: AngleSharp},
		{name: "normal", angles: [3]int16{60, 120, 180}, want: AngleNormal},
		{name: "skewed beats sharp", angles: [3]int16{40, 110, 210}, want: AngleSkewed},
		{name: "skewed beats very sharp", angles: [3]int16{20, 130, 210}, want: AngleSkewed},
		{name: "order does not matter", angles: [3]int16{180, 25, 155}, want: AngleVerySharp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAngles(tt.angles))
		})
	}
}

func TestParseAngleType(t *testing.T) {
	for _, valid := range []string{"verysharp", "sharp", "skewed", "normal"} {
		got, err := ParseAngleType(valid)
		assert.NoError(t, err)
		assert.Equal(t, AngleType(valid), got)
	}

	_, err := ParseAngleType("obtuse")
	assert.Error(t, err)
}

func testJunction() *Junction {
	return &Junction{
		ID:        1,
		OSMNodeID: 123456,
		Lat:       35.6812,
		Lon:       139.7671,
		Angle1:    30,
		Angle2:    150,
		Angle3:    180,
		Bearings:  []float32{10, 40, 190},
		CreatedAt: time.Now(),
	}
}

func TestJunctionAngleType(t *testing.T) {
	j := testJunction()
	assert.Equal(t, AngleSharp, j.AngleType())
}

func TestStreetViewURL(t *testing.T) {
	j := testJunction()

	url := j.StreetViewURL()
	assert.Contains(t, url, "api=1")
	assert.Contains(t, url, "map_action=pano")
	assert.Contains(t, url, "viewpoint=35.6812,139.7671")
	// Minimum angle is angle_1 between bearings 10 and 40: heading 25.
	assert.Contains(t, url, "heading=25")
}

func TestStreetViewURLWrapAround(t *testing.T) {
	j := testJunction()
	// The 20-degree wedge wraps through north between bearings 350 and 10,
	// so the heading bisects across 360 rather than pointing south.
	j.Angle1, j.Angle2, j.Angle3 = 170, 170, 20
	j.Bearings = []float32{10, 180, 350}

	url := j.StreetViewURL()
	assert.Contains(t, url, "heading=0")
}

func TestStreetViewURLWithoutBearings(t *testing.T) {
	j := testJunction()
	j.Bearings = nil

	url := j.StreetViewURL()
	assert.Contains(t, url, "viewpoint=")
	assert.NotContains(t, url, "heading=")
}
