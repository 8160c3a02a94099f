package importer

import (
	"context"
	"log/slog"

	"github.com/cozy-corner/y-junctions/pkg/geo"
	"github.com/cozy-corner/y-junctions/pkg/junction"
)

// JunctionStore is the persistence surface the back-fill needs: every
// stored junction, and a bulk elevation update.
type JunctionStore interface {
	FindAll(ctx context.Context) ([]junction.Junction, error)
	BulkUpdateElevations(ctx context.Context, updates []junction.ElevationUpdate) (int64, error)
}

// neighborSampleMeters is how far along each stored bearing the back-fill
// samples a neighbor elevation. Neighbor coordinates are not persisted, so
// the sample point stands in for the first node of each arm.
const neighborSampleMeters = 50.0

// BackfillElevations loads every stored junction, samples the DEM at the
// junction and along each of its three bearings, and bulk-updates the rows
// where all four samples resolve. Rows with missing data are skipped and
// counted, never failed.
func BackfillElevations(ctx context.Context, store JunctionStore, dem ElevationSource) (int64, error) {
	junctions, err := store.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	slog.Info("loaded junctions for elevation back-fill", "count", len(junctions))

	var updates []junction.ElevationUpdate
	var skipped int
	for i := range junctions {
		j := &junctions[i]
		update, ok := sampleElevations(j, dem)
		if !ok {
			skipped++
			continue
		}
		updates = append(updates, update)
	}

	if len(updates) == 0 {
		slog.Info("no junctions with complete elevation data", "skipped", skipped)
		return 0, nil
	}

	updated, err := store.BulkUpdateElevations(ctx, updates)
	if err != nil {
		return 0, err
	}

	slog.Info("elevation back-fill complete", "updated", updated, "skipped", skipped)
	return updated, nil
}

func sampleElevations(j *junction.Junction, dem ElevationSource) (junction.ElevationUpdate, bool) {
	var update junction.ElevationUpdate
	if len(j.Bearings) != 3 {
		return update, false
	}

	center, ok := dem.Elevation(j.Lat, j.Lon)
	if !ok {
		return update, false
	}

	update.ID = j.ID
	update.Elevation = center
	for i, bearing := range j.Bearings {
		lat, lon := geo.Destination(j.Lat, j.Lon, float64(bearing), neighborSampleMeters)
		elev, ok := dem.Elevation(lat, lon)
		if !ok {
			return update, false
		}
		update.NeighborElevations[i] = elev
		diff := center - elev
		if diff < 0 {
			diff = -diff
		}
		update.Diffs[i] = diff
	}

	update.MinDiff = update.Diffs[0]
	update.MaxDiff = update.Diffs[0]
	for _, d := range update.Diffs[1:] {
		if d < update.MinDiff {
			update.MinDiff = d
		}
		if d > update.MaxDiff {
			update.MaxDiff = d
		}
	}
	update.MinAngleIndex = junction.MinAngleIndex(j.Angles())

	return update, true
}
