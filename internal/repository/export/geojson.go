package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
)

// GeoJSONExporter пишет точки выборки как FeatureCollection; свойства - поля записи
type GeoJSONExporter struct {
	path string
}

func NewGeoJSONExporter(path string) *GeoJSONExporter {
	return &GeoJSONExporter{path: path}
}

var _ repository.ResultExporter = (*GeoJSONExporter)(nil)

func (e *GeoJSONExporter) Name() string { return "geojson" }

func (e *GeoJSONExporter) Export(records []domain.AssessmentRecord) error {
	data, err := MarshalFeatureCollection(records)
	if err != nil {
		return err
	}
	return writeFileAtomic(e.path, data)
}

// MarshalFeatureCollection кодирует записи в GeoJSON (порядок точек сохраняется)
func MarshalFeatureCollection(records []domain.AssessmentRecord) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(orb.Point{r.Lon, r.Lat})
		f.ID = r.ID
		f.Properties["ID"] = r.ID
		f.Properties["Total_Hospital_km"] = r.TotalHospitalKm
		f.Properties["Nearest_Road_m"] = r.NearestRoadM
		f.Properties["Avg_Transport_km"] = r.AvgTransportKm
		f.Properties["Elevation_m"] = r.ElevationM
		f.Properties["Pop_Density"] = r.PopDensity
		f.Properties["Protection_Score"] = r.ProtectionScore
		f.Properties["Air_Quality"] = r.AirQuality
		f.Properties["Seismic_Zone"] = r.SeismicZone
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode geojson: %w", err)
	}
	return data, nil
}
