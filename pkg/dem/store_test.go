package dem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshCode(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{name: "fixture cell", lat: 35.005, lon: 138.005, want: "5238-40-00"},
		{name: "Tokyo Station", lat: 35.6812, lon: 139.7671, want: "5339-46-11"},
		{name: "cell southwest corner", lat: 35.0, lon: 138.0, want: "5238-40-00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeshCode(tt.lat, tt.lon))
		})
	}
}

// writeFixtureTile writes a 10x10 tile for mesh 5238-40-00 covering
// lat [35.0, 35.008333], lon [138.0, 138.0125] with elevations 0..n-1 in
// +x-y order.
func writeFixtureTile(t *testing.T, dir string, records int) string {
	t.Helper()

	var tuples strings.Builder
	for i := 0; i < records; i++ {
		fmt.Fprintf(&tuples, "地表面,%d.0\n", i)
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Dataset xmlns:gml="http://www.opengis.net/gml/3.2">
  <DEM>
    <coverage>
      <gml:boundedBy>
        <gml:Envelope srsName="fguuid:jgd2011.bl">
          <gml:lowerCorner>35.0 138.0</gml:lowerCorner>
          <gml:upperCorner>35.008333 138.0125</gml:upperCorner>
        </gml:Envelope>
      </gml:boundedBy>
      <gml:gridDomain>
        <gml:Grid dimension="2">
          <gml:limits>
            <gml:GridEnvelope>
              <gml:low>0 0</gml:low>
              <gml:high>9 9</gml:high>
            </gml:GridEnvelope>
          </gml:limits>
        </gml:Grid>
      </gml:gridDomain>
      <gml:rangeSet>
        <gml:DataBlock>
          <gml:tupleList>
%s</gml:tupleList>
        </gml:DataBlock>
      </gml:rangeSet>
    </coverage>
  </DEM>
</Dataset>`, tuples.String())

	xmlDir := filepath.Join(dir, "xml")
	require.NoError(t, os.MkdirAll(xmlDir, 0o755))
	path := filepath.Join(xmlDir, "FG-GML-5238-40-00-DEM5A-20161001.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewStoreEmptyDir(t *testing.T) {
	_, err := NewStore(t.TempDir())
	assert.Error(t, err, "store construction must fail with no XML files")
}

func TestParseTile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixtureTile(t, dir, 100)

	tile, err := ParseTile(path)
	require.NoError(t, err)

	assert.Equal(t, 35.0, tile.SWLat)
	assert.Equal(t, 138.0, tile.SWLon)
	assert.Equal(t, 35.008333, tile.NELat)
	assert.Equal(t, 138.0125, tile.NELon)
	assert.Equal(t, 10, tile.Width)
	assert.Equal(t, 10, tile.Height)
	assert.Len(t, tile.Elevations, 100)
	assert.Equal(t, 0.0, tile.Elevations[0])
	assert.Equal(t, 99.0, tile.Elevations[99])
}

func TestTileElevation(t *testing.T) {
	dir := t.TempDir()
	path := writeFixtureTile(t, dir, 100)
	tile, err := ParseTile(path)
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		want     float64
		wantOK   bool
	}{
		// Rows run north to south, so the northeast corner is index 9 and
		// the southwest corner is index 90.
		{name: "northeast corner", lat: 35.008333, lon: 138.0125, want: 9, wantOK: true},
		{name: "northwest corner", lat: 35.008333, lon: 138.0, want: 0, wantOK: true},
		{name: "southwest corner", lat: 35.0, lon: 138.0, want: 90, wantOK: true},
		{name: "southeast corner", lat: 35.0, lon: 138.0125, want: 99, wantOK: true},
		{name: "outside tile", lat: 36.0, lon: 138.0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tile.Elevation(tt.lat, tt.lon)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTileElevationPartialData(t *testing.T) {
	dir := t.TempDir()
	path := writeFixtureTile(t, dir, 50)
	tile, err := ParseTile(path)
	require.NoError(t, err)

	// Northern half is present, southern half is missing.
	_, ok := tile.Elevation(35.008, 138.006)
	assert.True(t, ok, "northern row should resolve")

	_, ok = tile.Elevation(35.0001, 138.006)
	assert.False(t, ok, "missing southern row should be no data")
}

func TestStoreElevation(t *testing.T) {
	dir := t.TempDir()
	writeFixtureTile(t, dir, 100)

	store, err := NewStore(dir)
	require.NoError(t, err)

	indexed, parsed := store.CacheStats()
	assert.Equal(t, 1, indexed)
	assert.Equal(t, 0, parsed, "tiles parse lazily")

	elev, ok := store.Elevation(35.005, 138.005)
	require.True(t, ok)

	_, parsed = store.CacheStats()
	assert.Equal(t, 1, parsed)

	// Repeated lookups are served from cache and return the same value.
	again, ok := store.Elevation(35.005, 138.005)
	require.True(t, ok)
	assert.Equal(t, elev, again)

	_, parsed = store.CacheStats()
	assert.Equal(t, 1, parsed)
}

func TestStoreElevationUncoveredPoint(t *testing.T) {
	dir := t.TempDir()
	writeFixtureTile(t, dir, 100)

	store, err := NewStore(dir)
	require.NoError(t, err)

	_, ok := store.Elevation(40.0, 141.0)
	assert.False(t, ok)
}

func TestStoreElevationCorruptTile(t *testing.T) {
	dir := t.TempDir()
	xmlDir := filepath.Join(dir, "xml")
	require.NoError(t, os.MkdirAll(xmlDir, 0o755))
	path := filepath.Join(xmlDir, "FG-GML-5238-40-00-DEM5A-20161001.xml")
	require.NoError(t, os.WriteFile(path, []byte("<Dataset></Dataset>"), 0o644))

	store, err := NewStore(dir)
	require.NoError(t, err)

	// Parse failure is no data, not an error.
	_, ok := store.Elevation(35.005, 138.005)
	assert.False(t, ok)
}

func TestMeshCodeFromFilename(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		want   string
		wantOK bool
	}{
		{name: "standard name", file: "FG-GML-5238-40-00-DEM5A-20161001.xml", want: "5238-40-00", wantOK: true},
		{name: "prefixed path remnant", file: "copy-FG-GML-5339-46-11-DEM5A.xml", want: "5339-46-11", wantOK: true},
		{name: "no marker", file: "elevation-5238-40-00.xml", wantOK: false},
		{name: "truncated", file: "FG-GML-5238.xml", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := meshCodeFromFilename(tt.file)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
