package dem

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MeshCode returns the standard mesh code for a point, formatted as the
// "PP-QQ-RR" hyphenated triple used in GSI DEM file names. The grid is
// anchored at 100 degrees east with 1/120-degree latitude rows and
// 1/80-degree longitude columns.
func MeshCode(lat, lon float64) string {
	latMesh := int(math.Floor(lat * 120))
	lonMesh := int(math.Floor((lon - 100) * 80))

	first := fmt.Sprintf("%d%d", latMesh/80, lonMesh/80)
	second := fmt.Sprintf("%d%d", (latMesh/10)%8, (lonMesh/10)%8)
	third := fmt.Sprintf("%d%d", latMesh%10, lonMesh%10)

	return first + "-" + second + "-" + third
}

// Tile is one parsed DEM grid. Elevations run west to east, then north to
// south; boundary tiles may carry fewer values than width*height.
type Tile struct {
	SWLat, SWLon float64
	NELat, NELon float64
	Width        int
	Height       int
	Elevations   []float64
}

// Contains reports whether the point falls inside the tile's envelope.
func (t *Tile) Contains(lat, lon float64) bool {
	return lat >= t.SWLat && lat <= t.NELat && lon >= t.SWLon && lon <= t.NELon
}

// Elevation returns the grid value nearest the point, or false when the
// point is outside the tile or its row is missing from a partial tile.
func (t *Tile) Elevation(lat, lon float64) (float64, bool) {
	if !t.Contains(lat, lon) {
		return 0, false
	}

	latFrac := (lat - t.SWLat) / (t.NELat - t.SWLat)
	lonFrac := (lon - t.SWLon) / (t.NELon - t.SWLon)

	x := int(clamp(math.Round(lonFrac*float64(t.Width-1)), 0, float64(t.Width-1)))
	y := int(clamp(math.Round((1-latFrac)*float64(t.Height-1)), 0, float64(t.Height-1)))

	idx := y*t.Width + x
	if idx >= len(t.Elevations) {
		return 0, false
	}
	return t.Elevations[idx], true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Store indexes a directory of GSI DEM XML tiles by mesh code and parses
// each tile lazily on first lookup. It is not safe for concurrent use.
type Store struct {
	meshToFile map[string]string
	cache      map[string]*Tile
}

// NewStore globs dataDir/xml/*.xml and indexes each file by the mesh code
// embedded in its FG-GML-PP-QQ-RR-... name. It fails when no files match,
// so callers learn up front that elevation enrichment cannot proceed.
func NewStore(dataDir string) (*Store, error) {
	pattern := filepath.Join(dataDir, "xml", "*.xml")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no XML files found in %s", pattern)
	}

	meshToFile := make(map[string]string, len(files))
	for _, path := range files {
		if code, ok := meshCodeFromFilename(filepath.Base(path)); ok {
			meshToFile[code] = path
		}
	}

	slog.Info("DEM store initialized", "mesh_codes", len(meshToFile))

	return &Store{
		meshToFile: meshToFile,
		cache:      make(map[string]*Tile),
	}, nil
}

func meshCodeFromFilename(name string) (string, bool) {
	const prefix = "FG-GML-"
	start := strings.Index(name, prefix)
	if start < 0 {
		return "", false
	}
	parts := strings.Split(name[start+len(prefix):], "-")
	if len(parts) < 3 {
		return "", false
	}
	return parts[0] + "-" + parts[1] + "-" + parts[2], true
}

// Elevation returns the DEM elevation at the point, or false when no tile
// covers it or the tile has no data there. Tile parse failures are logged
// and treated as no data.
func (s *Store) Elevation(lat, lon float64) (float64, bool) {
	code := MeshCode(lat, lon)

	if tile, ok := s.cache[code]; ok {
		return tile.Elevation(lat, lon)
	}

	path, ok := s.meshToFile[code]
	if !ok {
		return 0, false
	}

	tile, err := ParseTile(path)
	if err != nil {
		slog.Warn("failed to parse DEM tile", "path", path, "err", err)
		return 0, false
	}
	s.cache[code] = tile

	return tile.Elevation(lat, lon)
}

// CacheStats returns the number of indexed and parsed tiles.
func (s *Store) CacheStats() (indexed, parsed int) {
	return len(s.meshToFile), len(s.cache)
}

// ParseTile reads a GSI JPGIS XML file. Element matching is by local name
// so the gml namespace prefix is irrelevant: the envelope's lowerCorner
// and upperCorner give the southwest and northeast corners as "lat lon"
// pairs, the grid's high element gives the maximum x/y indices, and the
// tupleList carries one "label,elevation" record per line.
func ParseTile(path string) (*Tile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var (
		tile      Tile
		haveLower bool
		haveUpper bool
		haveHigh  bool
		haveTuple bool
	)

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "lowerCorner":
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return nil, fmt.Errorf("decoding lowerCorner: %w", err)
			}
			if tile.SWLat, tile.SWLon, err = parseCorner(text); err != nil {
				return nil, fmt.Errorf("invalid lowerCorner: %w", err)
			}
			haveLower = true
		case "upperCorner":
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return nil, fmt.Errorf("decoding upperCorner: %w", err)
			}
			if tile.NELat, tile.NELon, err = parseCorner(text); err != nil {
				return nil, fmt.Errorf("invalid upperCorner: %w", err)
			}
			haveUpper = true
		case "high":
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return nil, fmt.Errorf("decoding high: %w", err)
			}
			maxX, maxY, err := parseHigh(text)
			if err != nil {
				return nil, fmt.Errorf("invalid high: %w", err)
			}
			// high holds maximum indices, so dimensions are one larger.
			tile.Width = maxX + 1
			tile.Height = maxY + 1
			haveHigh = true
		case "tupleList":
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return nil, fmt.Errorf("decoding tupleList: %w", err)
			}
			tile.Elevations = parseTupleList(text)
			haveTuple = true
		}
	}

	switch {
	case !haveLower:
		return nil, fmt.Errorf("%s: no lowerCorner element", path)
	case !haveUpper:
		return nil, fmt.Errorf("%s: no upperCorner element", path)
	case !haveHigh:
		return nil, fmt.Errorf("%s: no high element", path)
	case !haveTuple:
		return nil, fmt.Errorf("%s: no tupleList element", path)
	}

	if got, want := len(tile.Elevations), tile.Width*tile.Height; got != want {
		// Sea and border tiles legitimately carry fewer records.
		slog.Debug("partial DEM tile", "path", path, "want", want, "got", got)
	}

	return &tile, nil
}

func parseCorner(text string) (lat, lon float64, err error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("want two fields, got %d", len(fields))
	}
	if lat, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, err
	}
	if lon, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseHigh(text string) (maxX, maxY int, err error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("want two fields, got %d", len(fields))
	}
	if maxX, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, err
	}
	if maxY, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, err
	}
	return maxX, maxY, nil
}

func parseTupleList(text string) []float64 {
	var elevations []float64
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		elevations = append(elevations, v)
	}
	return elevations
}
