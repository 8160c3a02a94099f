package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozy-corner/y-junctions/pkg/junction"
)

func sampleFeature(nodeID int64) junction.Feature {
	return junction.Feature{
		OSMNodeID:     nodeID,
		Lat:           35.0,
		Lon:           139.0,
		Angles:        [3]int16{30, 150, 180},
		Bearings:      [3]float64{10, 40, 190},
		Bridges:       [3]bool{false, true, false},
		Tunnels:       [3]bool{false, false, true},
		MinAngleIndex: 1,
	}
}

func TestBuildInsertSQL(t *testing.T) {
	elev := 100.0
	withBlock := sampleFeature(1)
	withBlock.Elevation = &elev
	withBlock.Block = &junction.ElevationBlock{
		NeighborElevations: [3]float64{95, 105, 100},
		Diffs:              [3]float64{5, 5, 0},
		MinDiff:            0,
		MaxDiff:            5,
	}

	sql, args := buildInsertSQL([]junction.Feature{withBlock, sampleFeature(2)})

	assert.Contains(t, sql, "INSERT INTO y_junctions")
	assert.Contains(t, sql, "ON CONFLICT (osm_node_id) DO NOTHING")
	assert.Contains(t, sql, "ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography")
	assert.Equal(t, 2*paramsPerInsertRow, len(args))
	assert.Equal(t, strings.Count(sql, "ST_MakePoint"), 2)

	// Longitude binds before latitude for ST_MakePoint.
	assert.Equal(t, 139.0, args[1])
	assert.Equal(t, 35.0, args[2])

	// Elevation block values are present for the first row...
	require.NotNil(t, args[16])
	assert.Equal(t, float32(100), *(args[16].(*float32)))

	// ...and null for the second.
	second := args[paramsPerInsertRow+16]
	assert.Nil(t, second.(*float32))
}

func TestBuildInsertSQLPartialElevation(t *testing.T) {
	elev := 42.0
	f := sampleFeature(1)
	f.Elevation = &elev

	_, args := buildInsertSQL([]junction.Feature{f})

	require.NotNil(t, args[16].(*float32))
	assert.Equal(t, float32(42), *(args[16].(*float32)))
	// Neighbor elevations stay null without the full block.
	assert.Nil(t, args[17].(*float32))
	assert.Nil(t, args[23].(*float32))
	assert.Nil(t, args[24].(*float32))
}

func TestBuildUpdateSQL(t *testing.T) {
	updates := []junction.ElevationUpdate{
		{
			ID:                 7,
			Elevation:          100,
			NeighborElevations: [3]float64{95, 105, 100},
			Diffs:              [3]float64{5, 5, 0},
			MinAngleIndex:      2,
			MinDiff:            0,
			MaxDiff:            5,
		},
	}

	sql, args := buildUpdateSQL(updates)

	assert.Contains(t, sql, "UPDATE y_junctions SET")
	assert.Contains(t, sql, "WHERE y_junctions.id = u.id")
	assert.NotContains(t, sql, "min_angle_elevation_diff",
		"the generated column must never be written")
	assert.Equal(t, paramsPerUpdateRow, len(args))
	assert.Equal(t, int64(7), args[0])
	assert.Equal(t, float32(100), args[1])
	assert.Equal(t, int16(2), args[8])
}

func TestAngleTypePredicate(t *testing.T) {
	tests := []struct {
		at       junction.AngleType
		contains string
	}{
		{at: junction.AngleSkewed, contains: "> 200"},
		{at: junction.AngleVerySharp, contains: "< 30"},
		{at: junction.AngleSharp, contains: ">= 30"},
		{at: junction.AngleNormal, contains: ">= 45"},
	}
	for _, tt := range tests {
		t.Run(string(tt.at), func(t *testing.T) {
			assert.Contains(t, angleTypePredicate(tt.at), tt.contains)
		})
	}

	// Sharpness buckets exclude skewed junctions, matching the domain
	// classification precedence.
	assert.Contains(t, angleTypePredicate(junction.AngleVerySharp), "<= 200")
	assert.Contains(t, angleTypePredicate(junction.AngleSharp), "<= 200")
	assert.Contains(t, angleTypePredicate(junction.AngleNormal), "<= 200")
}
