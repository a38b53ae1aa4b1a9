package utils

import (
	"math"

	"github.com/site-assessment/internal/domain"
)

const earthRadiusKm = 6371.0

// CompassBearings - направления выборки вокруг центральной точки (по часовой от севера)
var CompassBearings = [8]float64{0, 45, 90, 135, 180, 225, 270, 315}

// HaversineDistance вычисляет расстояние между двумя точками в километрах
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// DestinationPoint проецирует точку на заданный азимут и расстояние (км) по сфере.
// Результат округляется до 4 знаков.
func DestinationPoint(lat, lon, bearingDeg, distanceKm float64) (float64, float64) {
	bearing := bearingDeg * math.Pi / 180.0
	lat1 := lat * math.Pi / 180.0
	lon1 := lon * math.Pi / 180.0
	angular := distanceKm / earthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Round(lat2*180.0/math.Pi, 4), Round(lon2*180.0/math.Pi, 4)
}

// Round округляет значение до заданного числа знаков после запятой
func Round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// SamplePoints строит 9 точек выборки: центр (Index 1) и 8 точек на расстоянии offsetKm
// по азимутам CompassBearings (Index 2..9). Координаты округлены до 4 знаков.
func SamplePoints(center domain.Coordinate, offsetKm float64) []domain.SamplePoint {
	points := make([]domain.SamplePoint, 0, domain.SamplePointCount)
	points = append(points, domain.SamplePoint{
		Index:      1,
		Coordinate: domain.Coordinate{Lat: Round(center.Lat, 4), Lon: Round(center.Lon, 4)},
	})

	for i, bearing := range CompassBearings {
		lat, lon := DestinationPoint(center.Lat, center.Lon, bearing, offsetKm)
		points = append(points, domain.SamplePoint{
			Index:      i + 2,
			Bearing:    bearing,
			Coordinate: domain.Coordinate{Lat: lat, Lon: lon},
		})
	}

	return points
}
