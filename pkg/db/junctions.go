package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cozy-corner/y-junctions/pkg/junction"
)

// batchSize bounds the rows per statement so a chunk stays well under the
// PostgreSQL bind-parameter limit.
const batchSize = 1000

const junctionColumns = `id, osm_node_id,
	ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon,
	angle_1, angle_2, angle_3, bearings, created_at,
	elevation, min_elevation_diff, max_elevation_diff, min_angle_elevation_diff`

// InsertJunctions bulk-inserts features in chunks inside one transaction.
// Rows whose osm_node_id already exists are left untouched.
func (s *Store) InsertJunctions(ctx context.Context, features []junction.Feature) error {
	if len(features) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for start := 0; start < len(features); start += batchSize {
		end := start + batchSize
		if end > len(features) {
			end = len(features)
		}
		if err := insertChunk(ctx, tx, features[start:end]); err != nil {
			return err
		}
		inserted += end - start
		slog.Info("inserted junction chunk", "done", inserted, "total", len(features))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing insert transaction: %w", err)
	}
	return nil
}

const paramsPerInsertRow = 25

func insertChunk(ctx context.Context, tx pgx.Tx, features []junction.Feature) error {
	sql, args := buildInsertSQL(features)
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("inserting junction chunk: %w", err)
	}
	return nil
}

func buildInsertSQL(features []junction.Feature) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO y_junctions (osm_node_id, location,
		angle_1, angle_2, angle_3, bearings,
		way_1_bridge, way_1_tunnel, way_2_bridge, way_2_tunnel, way_3_bridge, way_3_tunnel,
		min_angle_index, elevation,
		neighbor_elevation_1, neighbor_elevation_2, neighbor_elevation_3,
		elevation_diff_1, elevation_diff_2, elevation_diff_3,
		min_elevation_diff, max_elevation_diff) VALUES `)

	args := make([]any, 0, len(features)*paramsPerInsertRow)
	for i, f := range features {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * paramsPerInsertRow
		fmt.Fprintf(&sb,
			"($%d, ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography, $%d, $%d, $%d, ARRAY[$%d, $%d, $%d]::real[], $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9,
			base+10, base+11, base+12, base+13, base+14, base+15,
			base+16, base+17, base+18, base+19, base+20,
			base+21, base+22, base+23, base+24, base+25)

		var neighborElevs, diffs [3]*float32
		var minDiff, maxDiff *float32
		if f.Block != nil {
			for k := 0; k < 3; k++ {
				neighborElevs[k] = f32(f.Block.NeighborElevations[k])
				diffs[k] = f32(f.Block.Diffs[k])
			}
			minDiff = f32(f.Block.MinDiff)
			maxDiff = f32(f.Block.MaxDiff)
		}

		args = append(args,
			f.OSMNodeID, f.Lon, f.Lat,
			f.Angles[0], f.Angles[1], f.Angles[2],
			float32(f.Bearings[0]), float32(f.Bearings[1]), float32(f.Bearings[2]),
			f.Bridges[0], f.Tunnels[0], f.Bridges[1], f.Tunnels[1], f.Bridges[2], f.Tunnels[2],
			f.MinAngleIndex, f32ptr(f.Elevation),
			neighborElevs[0], neighborElevs[1], neighborElevs[2],
			diffs[0], diffs[1], diffs[2],
			minDiff, maxDiff)
	}

	sb.WriteString(" ON CONFLICT (osm_node_id) DO NOTHING")

	return sb.String(), args
}

func f32(v float64) *float32 {
	f := float32(v)
	return &f
}

func f32ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	return f32(*v)
}

const paramsPerUpdateRow = 11

// BulkUpdateElevations back-fills elevation columns in chunks inside one
// transaction, joining an inline VALUES list on the row id. The derived
// min_angle_elevation_diff column is generated by the database and never
// written here.
func (s *Store) BulkUpdateElevations(ctx context.Context, updates []junction.ElevationUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning update transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	for start := 0; start < len(updates); start += batchSize {
		end := start + batchSize
		if end > len(updates) {
			end = len(updates)
		}
		n, err := updateChunk(ctx, tx, updates[start:end])
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing update transaction: %w", err)
	}
	return total, nil
}

func updateChunk(ctx context.Context, tx pgx.Tx, updates []junction.ElevationUpdate) (int64, error) {
	sql, args := buildUpdateSQL(updates)
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("updating elevation chunk: %w", err)
	}
	return tag.RowsAffected(), nil
}

func buildUpdateSQL(updates []junction.ElevationUpdate) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`UPDATE y_junctions SET
		elevation = u.elevation,
		neighbor_elevation_1 = u.neighbor_elevation_1,
		neighbor_elevation_2 = u.neighbor_elevation_2,
		neighbor_elevation_3 = u.neighbor_elevation_3,
		elevation_diff_1 = u.elevation_diff_1,
		elevation_diff_2 = u.elevation_diff_2,
		elevation_diff_3 = u.elevation_diff_3,
		min_angle_index = u.min_angle_index,
		min_elevation_diff = u.min_elevation_diff,
		max_elevation_diff = u.max_elevation_diff
		FROM (VALUES `)

	args := make([]any, 0, len(updates)*paramsPerUpdateRow)
	for i, u := range updates {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * paramsPerUpdateRow
		fmt.Fprintf(&sb,
			"($%d::bigint, $%d::real, $%d::real, $%d::real, $%d::real, $%d::real, $%d::real, $%d::real, $%d::smallint, $%d::real, $%d::real)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11)

		args = append(args,
			u.ID, float32(u.Elevation),
			float32(u.NeighborElevations[0]), float32(u.NeighborElevations[1]), float32(u.NeighborElevations[2]),
			float32(u.Diffs[0]), float32(u.Diffs[1]), float32(u.Diffs[2]),
			u.MinAngleIndex, float32(u.MinDiff), float32(u.MaxDiff))
	}

	sb.WriteString(`) AS u(id, elevation,
		neighbor_elevation_1, neighbor_elevation_2, neighbor_elevation_3,
		elevation_diff_1, elevation_diff_2, elevation_diff_3,
		min_angle_index, min_elevation_diff, max_elevation_diff)
		WHERE y_junctions.id = u.id`)

	return sb.String(), args
}

// FilterParams narrows a bbox junction query.
type FilterParams struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64

	AngleTypes       []junction.AngleType
	MinAngleLT       *int16
	MinAngleGT       *int16
	MinElevationDiff *float64
	MaxElevationDiff *float64
	Limit            *int64
}

const (
	defaultLimit = 500
	maxLimit     = 1000
)

// FindByBBox returns the junctions intersecting the filter's bbox plus the
// total match count before the limit was applied.
func (s *Store) FindByBBox(ctx context.Context, f FilterParams) ([]junction.Junction, int64, error) {
	var sb strings.Builder
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString("SELECT ")
	sb.WriteString(junctionColumns)
	sb.WriteString(", COUNT(*) OVER() AS total_count FROM y_junctions WHERE location && ST_MakeEnvelope(")
	sb.WriteString(arg(f.MinLon) + ", " + arg(f.MinLat) + ", " + arg(f.MaxLon) + ", " + arg(f.MaxLat))
	sb.WriteString(", 4326)::geography")

	if len(f.AngleTypes) > 0 {
		sb.WriteString(" AND (")
		for i, at := range f.AngleTypes {
			if i > 0 {
				sb.WriteString(" OR ")
			}
			sb.WriteString(angleTypePredicate(at))
		}
		sb.WriteString(")")
	}

	if f.MinAngleLT != nil {
		sb.WriteString(" AND LEAST(angle_1, angle_2, angle_3) < " + arg(*f.MinAngleLT))
	}
	if f.MinAngleGT != nil {
		sb.WriteString(" AND LEAST(angle_1, angle_2, angle_3) > " + arg(*f.MinAngleGT))
	}

	if f.MinElevationDiff != nil {
		sb.WriteString(" AND min_angle_elevation_diff >= " + arg(*f.MinElevationDiff))
	}
	if f.MaxElevationDiff != nil {
		sb.WriteString(" AND min_angle_elevation_diff <= " + arg(*f.MaxElevationDiff))
	}
	// Elevation differentials across a bridge or tunnel measure the
	// structure, not the terrain, so those junctions are excluded from
	// differential searches.
	if f.MinElevationDiff != nil || f.MaxElevationDiff != nil {
		sb.WriteString(` AND NOT (way_1_bridge OR way_1_tunnel
			OR way_2_bridge OR way_2_tunnel
			OR way_3_bridge OR way_3_tunnel)`)
	}

	limit := int64(defaultLimit)
	if f.Limit != nil {
		limit = *f.Limit
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	sb.WriteString(" LIMIT " + arg(limit))

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying junctions by bbox: %w", err)
	}
	defer rows.Close()

	var junctions []junction.Junction
	var totalCount int64
	for rows.Next() {
		var j junction.Junction
		if err := rows.Scan(
			&j.ID, &j.OSMNodeID, &j.Lat, &j.Lon,
			&j.Angle1, &j.Angle2, &j.Angle3, &j.Bearings, &j.CreatedAt,
			&j.Elevation, &j.MinElevationDiff, &j.MaxElevationDiff, &j.MinAngleElevationDiff,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning junction row: %w", err)
		}
		junctions = append(junctions, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading junction rows: %w", err)
	}

	return junctions, totalCount, nil
}

// angleTypePredicate mirrors junction.ClassifyAngles: the skewed bucket
// takes precedence over the sharpness buckets.
func angleTypePredicate(at junction.AngleType) string {
	const (
		least    = "LEAST(angle_1, angle_2, angle_3)"
		greatest = "GREATEST(angle_1, angle_2, angle_3)"
	)
	switch at {
	case junction.AngleSkewed:
		return greatest + " > 200"
	case junction.AngleVerySharp:
		return "(" + greatest + " <= 200 AND " + least + " < 30)"
	case junction.AngleSharp:
		return "(" + greatest + " <= 200 AND " + least + " >= 30 AND " + least + " < 45)"
	default:
		return "(" + greatest + " <= 200 AND " + least + " >= 45)"
	}
}

// FindByID returns the junction with the given surrogate id, or nil when
// it does not exist.
func (s *Store) FindByID(ctx context.Context, id int64) (*junction.Junction, error) {
	var j junction.Junction
	err := s.pool.QueryRow(ctx,
		"SELECT "+junctionColumns+" FROM y_junctions WHERE id = $1", id,
	).Scan(
		&j.ID, &j.OSMNodeID, &j.Lat, &j.Lon,
		&j.Angle1, &j.Angle2, &j.Angle3, &j.Bearings, &j.CreatedAt,
		&j.Elevation, &j.MinElevationDiff, &j.MaxElevationDiff, &j.MinAngleElevationDiff,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying junction %d: %w", id, err)
	}
	return &j, nil
}

// FindAll returns every stored junction. Feeds the elevation back-fill.
func (s *Store) FindAll(ctx context.Context) ([]junction.Junction, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+junctionColumns+" FROM y_junctions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying all junctions: %w", err)
	}
	defer rows.Close()

	var junctions []junction.Junction
	for rows.Next() {
		var j junction.Junction
		if err := rows.Scan(
			&j.ID, &j.OSMNodeID, &j.Lat, &j.Lon,
			&j.Angle1, &j.Angle2, &j.Angle3, &j.Bearings, &j.CreatedAt,
			&j.Elevation, &j.MinElevationDiff, &j.MaxElevationDiff, &j.MinAngleElevationDiff,
		); err != nil {
			return nil, fmt.Errorf("scanning junction row: %w", err)
		}
		junctions = append(junctions, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading junction rows: %w", err)
	}
	return junctions, nil
}

// CountTotal returns the stored junction count.
func (s *Store) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM y_junctions").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting junctions: %w", err)
	}
	return count, nil
}

// CountByType returns junction counts bucketed by angle type.
func (s *Store) CountByType(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT
		CASE
			WHEN GREATEST(angle_1, angle_2, angle_3) > 200 THEN 'skewed'
			WHEN LEAST(angle_1, angle_2, angle_3) < 30 THEN 'verysharp'
			WHEN LEAST(angle_1, angle_2, angle_3) < 45 THEN 'sharp'
			ELSE 'normal'
		END AS angle_type,
		COUNT(*) AS count
		FROM y_junctions
		GROUP BY angle_type`)
	if err != nil {
		return nil, fmt.Errorf("counting junctions by type: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var angleType string
		var count int64
		if err := rows.Scan(&angleType, &count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		result[angleType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading count rows: %w", err)
	}
	return result, nil
}
