package api

import (
	"github.com/cozy-corner/y-junctions/pkg/junction"
)

// GeoJSONFeature is one junction rendered as a GeoJSON Feature.
type GeoJSONFeature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry is a GeoJSON point in longitude/latitude order.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Properties carries the junction attributes of a GeoJSON feature.
type Properties struct {
	ID            int64     `json:"id"`
	OSMNodeID     int64     `json:"osm_node_id"`
	Angles        [3]int16  `json:"angles"`
	AngleType     string    `json:"angle_type"`
	Bearings      []float32 `json:"bearings"`
	StreetViewURL string    `json:"streetview_url"`

	Elevation             *float64 `json:"elevation,omitempty"`
	MinElevationDiff      *float64 `json:"min_elevation_diff,omitempty"`
	MaxElevationDiff      *float64 `json:"max_elevation_diff,omitempty"`
	MinAngleElevationDiff *float64 `json:"min_angle_elevation_diff,omitempty"`
}

// FeatureCollection is the GeoJSON response for a junction query.
// TotalCount is the match count before the limit was applied.
type FeatureCollection struct {
	Type       string           `json:"type"`
	Features   []GeoJSONFeature `json:"features"`
	TotalCount int64            `json:"total_count"`
}

// StatsResponse is the JSON response for GET /api/stats.
type StatsResponse struct {
	TotalCount int64            `json:"total_count"`
	ByType     map[string]int64 `json:"by_type"`
}

// HealthResponse is the JSON response for GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toGeoJSON(j *junction.Junction) GeoJSONFeature {
	return GeoJSONFeature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: [2]float64{j.Lon, j.Lat},
		},
		Properties: Properties{
			ID:            j.ID,
			OSMNodeID:     j.OSMNodeID,
			Angles:        j.Angles(),
			AngleType:     string(j.AngleType()),
			Bearings:      j.Bearings,
			StreetViewURL: j.StreetViewURL(),

			Elevation:             j.Elevation,
			MinElevationDiff:      j.MinElevationDiff,
			MaxElevationDiff:      j.MaxElevationDiff,
			MinAngleElevationDiff: j.MinAngleElevationDiff,
		},
	}
}

func toFeatureCollection(junctions []junction.Junction, totalCount int64) FeatureCollection {
	features := make([]GeoJSONFeature, len(junctions))
	for i := range junctions {
		features[i] = toGeoJSON(&junctions[i])
	}
	return FeatureCollection{
		Type:       "FeatureCollection",
		Features:   features,
		TotalCount: totalCount,
	}
}
