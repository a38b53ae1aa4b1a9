package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SamplePointCount - центр + 8 направлений
	SamplePointCount = 9

	// Значения по умолчанию при недоступности внешних источников
	DefaultAirQualityScore = 200
	DefaultProtectionScore = 50
	UnknownSeismicZone     = "Unknown"
)

// Категории Google Places, используемые при оценке
const (
	PlaceTypeHospital     = "hospital"
	PlaceTypeBusStation   = "bus_station"
	PlaceTypeTrainStation = "train_station"
	PlaceTypePark         = "park"
	PlaceTypeRoad         = "road"
	PlaceTypeLocality     = "locality"
	PlaceTypeAirport      = "airport"
)

// SamplePoint - точка выборки; Index 1 = центр, 2..9 = азимуты 0..315
type SamplePoint struct {
	Index   int     `json:"index"`
	Bearing float64 `json:"bearing"`
	Coordinate
}

// AssessmentRecord - строка итоговой таблицы для одной точки выборки.
// Порядок полей совпадает с заголовком CSV.
type AssessmentRecord struct {
	ID              int     `json:"ID" csv:"ID" db:"point_id"`
	Lat             float64 `json:"Lat" csv:"Lat" db:"lat"`
	Lon             float64 `json:"Lon" csv:"Lon" db:"lon"`
	TotalHospitalKm float64 `json:"Total_Hospital_km" csv:"Total_Hospital_km" db:"total_hospital_km"`
	NearestRoadM    float64 `json:"Nearest_Road_m" csv:"Nearest_Road_m" db:"nearest_road_m"`
	AvgTransportKm  float64 `json:"Avg_Transport_km" csv:"Avg_Transport_km" db:"avg_transport_km"`
	ElevationM      float64 `json:"Elevation_m" csv:"Elevation_m" db:"elevation_m"`
	PopDensity      float64 `json:"Pop_Density" csv:"Pop_Density" db:"pop_density"`
	ProtectionScore int     `json:"Protection_Score" csv:"Protection_Score" db:"protection_score"`
	AirQuality      int     `json:"Air_Quality" csv:"Air_Quality" db:"air_quality"`
	SeismicZone     string  `json:"Seismic_Zone" csv:"Seismic_Zone" db:"seismic_zone"`
}

// RecordHeaders - заголовок таблицы результатов
var RecordHeaders = []string{
	"ID", "Lat", "Lon", "Total_Hospital_km", "Nearest_Road_m", "Avg_Transport_km",
	"Elevation_m", "Pop_Density", "Protection_Score", "Air_Quality", "Seismic_Zone",
}

// AssessmentRun - один запуск оценки для центральной координаты
type AssessmentRun struct {
	ID        uuid.UUID          `json:"run_id"`
	Center    Coordinate         `json:"center"`
	Records   []AssessmentRecord `json:"records"`
	CreatedAt time.Time          `json:"created_at"`
}
