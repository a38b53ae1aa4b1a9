package repository

import (
	"context"

	"github.com/site-assessment/internal/domain"
)

// PlacesRepository определяет поиск объектов вокруг точки
type PlacesRepository interface {
	// NearbySearch возвращает объекты заданного типа в радиусе (метры)
	NearbySearch(ctx context.Context, lat, lon float64, placeType string, radiusM int) ([]domain.Place, error)
}

// RoadsRepository определяет привязку точки к ближайшей дороге
type RoadsRepository interface {
	// NearestRoad возвращает ближайшую точку дороги; nil, если дорога не найдена
	NearestRoad(ctx context.Context, lat, lon float64) (*domain.SnappedPoint, error)
}

// ElevationRepository определяет получение высоты над уровнем моря
type ElevationRepository interface {
	// Elevation возвращает высоту в метрах; nil, если данных нет
	Elevation(ctx context.Context, lat, lon float64) (*float64, error)
}

// AirQualityRepository определяет получение индекса качества воздуха
type AirQualityRepository interface {
	// LatestUSAQI возвращает последнее почасовое значение US AQI; nil, если значение отсутствует
	LatestUSAQI(ctx context.Context, lat, lon float64) (*float64, error)
}
