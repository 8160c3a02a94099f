package importer

import (
	"context"
	"log/slog"

	"github.com/paulmach/osm"

	"github.com/cozy-corner/y-junctions/pkg/junction"
	osmstream "github.com/cozy-corner/y-junctions/pkg/osm"
)

// Sink persists completed features. Implementations batch internally.
type Sink interface {
	InsertJunctions(ctx context.Context, features []junction.Feature) error
}

// ElevationSource resolves a point elevation, reporting false for no data.
type ElevationSource interface {
	Elevation(lat, lon float64) (float64, bool)
}

// Stats summarizes one pipeline run.
type Stats struct {
	WaysAdmitted      int
	Candidates        int
	OutsideBBox       int
	NeighborsMissing  int
	TJunctionRejected int
	FeaturesEmitted   int

	ElevationFull    int
	ElevationPartial int
	ElevationAbsent  int
}

type coord struct {
	lat, lon float64
}

// Import runs the three-pass detection pipeline over the source and writes
// the resulting features to the sink. dem may be nil to skip elevation
// enrichment. Candidates outside the bbox are dropped; their neighbors are
// looked up without a bbox filter.
func Import(ctx context.Context, src osmstream.Source, bbox BBox, dem ElevationSource, sink Sink) (Stats, error) {
	var stats Stats
	if err := bbox.Validate(); err != nil {
		return stats, err
	}

	// Pass 1: admit highway ways and build the node-to-way adjacency.
	adj := junction.NewAdjacency()
	err := src.Ways(ctx, func(w *osm.Way) error {
		if !junction.AcceptedHighway(w.Tags.Find("highway")) {
			return nil
		}
		nodeIDs := make([]int64, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = int64(wn.ID)
		}
		bridge := osmstream.TagTruthy(w.Tags.Find("bridge"))
		tunnel := osmstream.TagTruthy(w.Tags.Find("tunnel"))
		adj.AddWay(int64(w.ID), nodeIDs, bridge, tunnel)
		return nil
	})
	if err != nil {
		return stats, err
	}
	stats.WaysAdmitted = adj.WayCount()
	slog.Info("pass 1 complete", "ways", adj.WayCount(), "nodes", adj.NodeCount())

	candidates := adj.Candidates()
	stats.Candidates = len(candidates)
	slog.Info("candidate enumeration complete", "candidates", len(candidates))
	if len(candidates) == 0 {
		return stats, nil
	}

	candidateIDs := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		candidateIDs[c.NodeID] = struct{}{}
	}

	// Pass 2: resolve candidate coordinates, keeping only those inside the
	// bbox (edges inclusive).
	candidateCoords := make(map[int64]coord, len(candidates))
	err = src.Nodes(ctx, func(n *osm.Node) error {
		if _, ok := candidateIDs[int64(n.ID)]; !ok {
			return nil
		}
		if !bbox.Contains(n.Lat, n.Lon) {
			return nil
		}
		candidateCoords[int64(n.ID)] = coord{lat: n.Lat, lon: n.Lon}
		return nil
	})
	if err != nil {
		return stats, err
	}
	stats.OutsideBBox = len(candidates) - len(candidateCoords)
	slog.Info("pass 2 complete", "in_bbox", len(candidateCoords), "dropped", stats.OutsideBBox)

	// Pass 3: resolve neighbor coordinates for the surviving candidates.
	// Neighbors may sit just outside the bbox, so no filter here.
	neighborIDs := make(map[int64]struct{})
	for _, c := range candidates {
		if _, ok := candidateCoords[c.NodeID]; !ok {
			continue
		}
		for _, road := range adj.NeighborRoads(c.NodeID) {
			neighborIDs[road.NodeID] = struct{}{}
		}
	}

	neighborCoords := make(map[int64]coord, len(neighborIDs))
	err = src.Nodes(ctx, func(n *osm.Node) error {
		if _, ok := neighborIDs[int64(n.ID)]; !ok {
			return nil
		}
		neighborCoords[int64(n.ID)] = coord{lat: n.Lat, lon: n.Lon}
		return nil
	})
	if err != nil {
		return stats, err
	}
	slog.Info("pass 3 complete", "neighbors", len(neighborCoords))

	// Assembly: angles, T-junction rejection, DEM enrichment.
	var features []junction.Feature
	for _, c := range candidates {
		center, ok := candidateCoords[c.NodeID]
		if !ok {
			continue
		}

		roads := adj.NeighborRoads(c.NodeID)
		if len(roads) != 3 {
			stats.NeighborsMissing++
			continue
		}

		arms := make([]junction.Road, 0, 3)
		for _, road := range roads {
			nc, ok := neighborCoords[road.NodeID]
			if !ok {
				break
			}
			arms = append(arms, junction.Road{
				NodeID: road.NodeID,
				Lat:    nc.lat,
				Lon:    nc.lon,
				Bridge: road.Bridge,
				Tunnel: road.Tunnel,
			})
		}
		if len(arms) != 3 {
			stats.NeighborsMissing++
			continue
		}

		angles, sorted, ok := junction.DecomposeAngles(center.lat, center.lon, arms)
		if !ok {
			stats.NeighborsMissing++
			continue
		}

		if junction.MinAngle(angles) >= junction.TJunctionAngle {
			stats.TJunctionRejected++
			continue
		}

		f := junction.Feature{
			OSMNodeID:     c.NodeID,
			Lat:           center.lat,
			Lon:           center.lon,
			Angles:        angles,
			MinAngleIndex: junction.MinAngleIndex(angles),
		}
		for i, road := range sorted {
			f.Bearings[i] = road.Bearing
			f.Bridges[i] = road.Bridge
			f.Tunnels[i] = road.Tunnel
		}

		if dem != nil {
			enrichElevation(&f, center, sorted, dem, &stats)
		}

		features = append(features, f)
	}
	stats.FeaturesEmitted = len(features)

	if len(features) > 0 {
		if err := sink.InsertJunctions(ctx, features); err != nil {
			return stats, err
		}
	}

	slog.Info("import complete",
		"features", stats.FeaturesEmitted,
		"candidates", stats.Candidates,
		"outside_bbox", stats.OutsideBBox,
		"neighbors_missing", stats.NeighborsMissing,
		"t_junctions", stats.TJunctionRejected,
		"elevation_full", stats.ElevationFull,
		"elevation_partial", stats.ElevationPartial,
		"elevation_absent", stats.ElevationAbsent)

	return stats, nil
}

// enrichElevation attaches DEM data to the feature. The full block is only
// attached when the junction node and all three neighbors resolve; with a
// partial resolution only the node elevation is kept.
func enrichElevation(f *junction.Feature, center coord, sorted [3]junction.Road, dem ElevationSource, stats *Stats) {
	centerElev, ok := dem.Elevation(center.lat, center.lon)
	if !ok {
		stats.ElevationAbsent++
		return
	}
	f.Elevation = &centerElev

	var block junction.ElevationBlock
	for i, road := range sorted {
		elev, ok := dem.Elevation(road.Lat, road.Lon)
		if !ok {
			stats.ElevationPartial++
			return
		}
		block.NeighborElevations[i] = elev
		diff := centerElev - elev
		if diff < 0 {
			diff = -diff
		}
		block.Diffs[i] = diff
	}

	block.MinDiff = block.Diffs[0]
	block.MaxDiff = block.Diffs[0]
	for _, d := range block.Diffs[1:] {
		if d < block.MinDiff {
			block.MinDiff = d
		}
		if d > block.MaxDiff {
			block.MaxDiff = d
		}
	}

	f.Block = &block
	stats.ElevationFull++
}
