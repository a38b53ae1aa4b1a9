package domain

// Place - объект из Google Places Nearby Search
type Place struct {
	PlaceID string   `json:"place_id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	Types   []string `json:"types,omitempty"`
}

// SnappedPoint - ближайшая точка дороги из Roads API
type SnappedPoint struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	PlaceID string  `json:"place_id,omitempty"`
}
