package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/site-assessment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func sampleRecords() []domain.AssessmentRecord {
	return []domain.AssessmentRecord{
		{ID: 1, Lat: 12.9716, Lon: 77.5946, TotalHospitalKm: 41.25, NearestRoadM: 12.5,
			AvgTransportKm: 1.5, ElevationM: 920, PopDensity: 18000.5,
			ProtectionScore: 30, AirQuality: 80, SeismicZone: "Zone II"},
		{ID: 2, Lat: 12.9896, Lon: 77.5946, ProtectionScore: 50, AirQuality: 200, SeismicZone: "Unknown"},
	}
}

func TestCSVExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	e := NewCSVExporter(path)
	assert.Equal(t, "csv", e.Name())
	assert.Equal(t, path, e.Path())

	require.NoError(t, e.Export(sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(domain.RecordHeaders, ","), lines[0])
	assert.Equal(t, "1,12.9716,77.5946,41.25,12.5,1.5,920,18000.5,30,80,Zone II", lines[1])
	assert.Equal(t, "2,12.9896,77.5946,0,0,0,0,0,50,200,Unknown", lines[2])
}

func TestMarshalCSV_PlainDecimals(t *testing.T) {
	data, err := MarshalCSV([]domain.AssessmentRecord{
		{ID: 1, Lat: 12.9716, Lon: 77.5946, TotalHospitalKm: 0.00001, PopDensity: 1234567.5,
			ElevationM: 25000000, ProtectionScore: 50, AirQuality: 200, SeismicZone: "Unknown"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1,12.9716,77.5946,0.00001,0,0,25000000,1234567.5,50,200,Unknown", lines[1])
	assert.NotContains(t, string(data), "E+")
	assert.NotContains(t, string(data), "E-")
}

func TestCSVExporter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	e := NewCSVExporter(path)

	require.NoError(t, e.Export(sampleRecords()))
	require.NoError(t, e.Export(sampleRecords()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCSVExporter_EmptyWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, NewCSVExporter(path).Export(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(domain.RecordHeaders, ",")+"\n", string(data))
}

func TestCSVExporter_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewCSVExporter(filepath.Join(blocker, "results.csv")).Export(sampleRecords())
	assert.Error(t, err)
}

func TestXLSXExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	e := NewXLSXExporter(path)
	assert.Equal(t, "xlsx", e.Name())

	require.NoError(t, e.Export(sampleRecords()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	header := make([]string, 0, len(sheet.Rows[0].Cells))
	for _, c := range sheet.Rows[0].Cells {
		header = append(header, c.String())
	}
	assert.Equal(t, domain.RecordHeaders, header)

	row := sheet.Rows[1].Cells
	require.Len(t, row, len(domain.RecordHeaders))
	id, err := row[0].Int()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	lat, err := row[1].Float()
	require.NoError(t, err)
	assert.Equal(t, 12.9716, lat)
	assert.Equal(t, "Zone II", row[10].String())
}

func TestGeoJSONExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.geojson")
	e := NewGeoJSONExporter(path)
	assert.Equal(t, "geojson", e.Name())

	require.NoError(t, e.Export(sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, orb.Point{77.5946, 12.9716}, first.Geometry)
	assert.Equal(t, "Zone II", first.Properties.MustString("Seismic_Zone"))
	assert.Equal(t, 80.0, first.Properties.MustFloat64("Air_Quality"))
	assert.Equal(t, 2.0, fc.Features[1].Properties.MustFloat64("ID"))
}

func TestMarshalFeatureCollection_Empty(t *testing.T) {
	data, err := MarshalFeatureCollection(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}
