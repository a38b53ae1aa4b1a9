package geodata

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// square возвращает замкнутое кольцо по часовой стрелке (внешнее кольцо shapefile)
func square(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY}}
}

func reversed(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i := range r {
		out[i] = r[len(r)-1-i]
	}
	return out
}

func TestSeismicLayer_ZoneAt(t *testing.T) {
	layer := NewSeismicLayer([]SeismicZone{
		{
			Label: "Zone V",
			Geometry: orb.MultiPolygon{
				{square(77, 12, 78, 13), reversed(square(77.4, 12.4, 77.6, 12.6))},
			},
		},
		{Label: "Zone III", Geometry: orb.MultiPolygon{{square(76, 11, 79, 14)}}},
		{Label: "Empty"},
	})

	assert.Equal(t, 2, layer.Len())

	t.Run("first containing zone wins", func(t *testing.T) {
		zone, ok := layer.ZoneAt(12.1, 77.1)
		assert.True(t, ok)
		assert.Equal(t, "Zone V", zone)
	})

	t.Run("hole falls through to next zone", func(t *testing.T) {
		zone, ok := layer.ZoneAt(12.5, 77.5)
		assert.True(t, ok)
		assert.Equal(t, "Zone III", zone)
	})

	t.Run("outside every zone", func(t *testing.T) {
		zone, ok := layer.ZoneAt(40, 10)
		assert.False(t, ok)
		assert.Empty(t, zone)
	})
}

func TestSeismicLayer_Empty(t *testing.T) {
	layer := NewSeismicLayer(nil)
	_, ok := layer.ZoneAt(0, 0)
	assert.False(t, ok)
}

func TestShapeToMultiPolygon(t *testing.T) {
	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4}}
	second := []shp.Point{{X: 20, Y: 20}, {X: 20, Y: 30}, {X: 30, Y: 30}, {X: 30, Y: 20}, {X: 20, Y: 20}}

	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{outer, hole, second}))
	mp := shapeToMultiPolygon(&poly, identity)

	require.Len(t, mp, 2)
	assert.Len(t, mp[0], 2)
	assert.Len(t, mp[1], 1)

	t.Run("counter-clockwise only rings become separate polygons", func(t *testing.T) {
		ccw := []shp.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}
		ccw2 := []shp.Point{{X: 20, Y: 20}, {X: 30, Y: 20}, {X: 30, Y: 30}, {X: 20, Y: 30}, {X: 20, Y: 20}}
		p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ccw, ccw2}))
		assert.Len(t, shapeToMultiPolygon(&p, identity), 2)
	})

	t.Run("non polygon shapes are ignored", func(t *testing.T) {
		assert.Nil(t, shapeToMultiPolygon(&shp.Point{X: 1, Y: 1}, identity))
	})
}

func TestProjectionFromWKT(t *testing.T) {
	t.Run("geographic", func(t *testing.T) {
		tr, err := projectionFromWKT(`GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`)
		require.NoError(t, err)
		assert.Equal(t, orb.Point{77.5, 12.5}, tr(77.5, 12.5))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := projectionFromWKT("  ")
		assert.NoError(t, err)
	})

	t.Run("web mercator", func(t *testing.T) {
		tr, err := projectionFromWKT(`PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984"],PROJECTION["Mercator_Auxiliary_Sphere"]]`)
		require.NoError(t, err)

		pt := tr(8637307.0, 1456441.0)
		assert.InDelta(t, 77.59, pt.Lon(), 0.01)
		assert.InDelta(t, 12.97, pt.Lat(), 0.01)
	})

	t.Run("other projected crs", func(t *testing.T) {
		_, err := projectionFromWKT(`PROJCS["WGS_1984_UTM_Zone_43N",GEOGCS["GCS_WGS_1984"],PROJECTION["Transverse_Mercator"]]`)
		assert.Error(t, err)
	})
}

func writeTestShapefile(t *testing.T, dir string) {
	t.Helper()

	writer, err := shp.Create(filepath.Join(dir, "zones.shp"), shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, writer.SetFields([]shp.Field{shp.StringField("seismic_zo", 16)}))

	zones := []struct {
		label string
		ring  []shp.Point
	}{
		{"Zone IV", []shp.Point{{X: 77, Y: 12}, {X: 77, Y: 13}, {X: 78, Y: 13}, {X: 78, Y: 12}, {X: 77, Y: 12}}},
		{"Zone II", []shp.Point{{X: 70, Y: 20}, {X: 70, Y: 25}, {X: 75, Y: 25}, {X: 75, Y: 20}, {X: 70, Y: 20}}},
	}
	for i, z := range zones {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{z.ring}))
		writer.Write(&poly)
		require.NoError(t, writer.WriteAttribute(i, 0, z.label))
	}
	writer.Close()
}

func zipDir(t *testing.T, srcDir, zipPath string) {
	t.Helper()

	out, err := os.Create(zipPath)
	require.NoError(t, err)
	defer out.Close()

	zw := zip.NewWriter(out)
	entries, err := os.ReadDir(srcDir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		require.NoError(t, err)
		w, err := zw.Create("Seismic_Zones/" + e.Name())
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestLoadSeismicLayer(t *testing.T) {
	src := t.TempDir()
	writeTestShapefile(t, src)

	work := t.TempDir()
	zipPath := filepath.Join(work, "Seismic_Zones.zip")
	zipDir(t, src, zipPath)

	dir := filepath.Join(work, "seismic")
	layer, err := LoadSeismicLayer(zipPath, dir, "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, layer.Len())

	zone, ok := layer.ZoneAt(12.5, 77.5)
	assert.True(t, ok)
	assert.Equal(t, "Zone IV", zone)

	zone, ok = layer.ZoneAt(22, 72)
	assert.True(t, ok)
	assert.Equal(t, "Zone II", zone)

	_, ok = layer.ZoneAt(0, 0)
	assert.False(t, ok)

	t.Run("existing directory is reused", func(t *testing.T) {
		require.NoError(t, os.Remove(zipPath))

		layer, err := LoadSeismicLayer(zipPath, dir, DefaultSeismicZoneField, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 2, layer.Len())
	})

	t.Run("missing archive", func(t *testing.T) {
		_, err := LoadSeismicLayer(filepath.Join(work, "absent.zip"), filepath.Join(work, "other"), "", zap.NewNop())
		assert.Error(t, err)
	})
}

func TestExtractZIP_RejectsZipSlip(t *testing.T) {
	work := t.TempDir()
	zipPath := filepath.Join(work, "evil.zip")

	out, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	_, err = ExtractZIP(zipPath, filepath.Join(work, "dest"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}
