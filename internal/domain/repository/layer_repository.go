package repository

// PopulationLayer - растр плотности населения (одна полоса)
type PopulationLayer interface {
	// Sample возвращает значение растра в точке; ok=false вне охвата или для nodata
	Sample(lat, lon float64) (value float64, ok bool, err error)
}

// SeismicLayer - полигоны сейсмических зон
type SeismicLayer interface {
	// ZoneAt возвращает метку зоны, содержащей точку; ok=false, если зона не найдена
	ZoneAt(lat, lon float64) (zone string, ok bool)
}
