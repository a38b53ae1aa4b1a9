package geodata

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSeismicZoneField - атрибут с меткой зоны по умолчанию
const DefaultSeismicZoneField = "seismic_zo"

// SeismicZone - полигон (мультиполигон) зоны с меткой
type SeismicZone struct {
	Label    string
	Geometry orb.MultiPolygon
	bound    orb.Bound
}

// SeismicLayer - неизменяемый после загрузки слой сейсмических зон.
// Безопасен для конкурентного чтения.
type SeismicLayer struct {
	zones []SeismicZone
	bound orb.Bound
}

// NewSeismicLayer строит слой из готовых зон; порядок зон определяет приоритет
func NewSeismicLayer(zones []SeismicZone) *SeismicLayer {
	layer := &SeismicLayer{zones: make([]SeismicZone, 0, len(zones))}
	for _, z := range zones {
		if len(z.Geometry) == 0 {
			continue
		}
		z.bound = z.Geometry.Bound()
		if len(layer.zones) == 0 {
			layer.bound = z.bound
		} else {
			layer.bound = layer.bound.Union(z.bound)
		}
		layer.zones = append(layer.zones, z)
	}
	return layer
}

// ZoneAt возвращает метку первой зоны, содержащей точку
func (l *SeismicLayer) ZoneAt(lat, lon float64) (string, bool) {
	pt := orb.Point{lon, lat}
	if len(l.zones) == 0 || !l.bound.Contains(pt) {
		return "", false
	}

	for _, z := range l.zones {
		if !z.bound.Contains(pt) {
			continue
		}
		if planar.MultiPolygonContains(z.Geometry, pt) {
			return z.Label, true
		}
	}
	return "", false
}

// Len возвращает количество зон в слое
func (l *SeismicLayer) Len() int {
	return len(l.zones)
}

// LoadSeismicLayer распаковывает архив (если каталог еще не существует), читает первый
// найденный .shp и переводит полигоны в WGS84.
func LoadSeismicLayer(zipPath, dir, zoneField string, logger *zap.Logger) (*SeismicLayer, error) {
	if zoneField == "" {
		zoneField = DefaultSeismicZoneField
	}

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		files, err := ExtractZIP(zipPath, dir)
		if err != nil {
			return nil, eris.Wrapf(err, "geodata: extract seismic archive %s", zipPath)
		}
		logger.Info("Seismic archive extracted",
			zap.String("archive", zipPath),
			zap.Int("files", len(files)))
	} else if err != nil {
		return nil, eris.Wrapf(err, "geodata: stat %s", dir)
	}

	shpPath, err := findFileByExt(dir, ".shp")
	if err != nil {
		return nil, err
	}

	transform, err := readProjection(strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj")
	if err != nil {
		return nil, err
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	labelIdx := fieldIndex(reader, zoneField)
	if labelIdx < 0 {
		logger.Warn("Seismic zone field not found, zones will be labelled Unknown",
			zap.String("field", zoneField),
			zap.String("shapefile", shpPath))
	}

	var zones []SeismicZone
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		mp := shapeToMultiPolygon(shape, transform)
		if len(mp) == 0 {
			skipped++
			continue
		}

		label := ""
		if labelIdx >= 0 {
			label = strings.TrimSpace(strings.TrimRight(reader.Attribute(labelIdx), "\x00"))
		}
		zones = append(zones, SeismicZone{Label: label, Geometry: mp})
	}

	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "geodata: read shapefile %s", shpPath)
	}

	layer := NewSeismicLayer(zones)
	if layer.Len() == 0 {
		return nil, eris.Errorf("geodata: no polygons in %s", shpPath)
	}

	logger.Info("Seismic data loaded",
		zap.String("shapefile", shpPath),
		zap.Int("zones", layer.Len()),
		zap.Int("skipped", skipped))

	return layer, nil
}

// fieldIndex возвращает индекс поля DBF или -1
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

type pointTransform func(x, y float64) orb.Point

func identity(x, y float64) orb.Point {
	return orb.Point{x, y}
}

const webMercatorRadius = 6378137.0

// inverseWebMercator переводит EPSG:3857 (метры) в градусы WGS84
func inverseWebMercator(x, y float64) orb.Point {
	lon := x / webMercatorRadius * 180.0 / math.Pi
	lat := (2*math.Atan(math.Exp(y/webMercatorRadius)) - math.Pi/2) * 180.0 / math.Pi
	return orb.Point{lon, lat}
}

// readProjection определяет преобразование координат по .prj.
// Отсутствующий .prj и географические СК используются как есть.
func readProjection(prjPath string) (pointTransform, error) {
	data, err := os.ReadFile(prjPath)
	if errors.Is(err, os.ErrNotExist) {
		return identity, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: read %s", prjPath)
	}
	return projectionFromWKT(string(data))
}

func projectionFromWKT(wkt string) (pointTransform, error) {
	wkt = strings.TrimSpace(wkt)
	upper := strings.ToUpper(wkt)

	switch {
	case wkt == "":
		return identity, nil
	case strings.HasPrefix(upper, "GEOGCS") || strings.HasPrefix(upper, "GEOGCRS"):
		return identity, nil
	case isWebMercator(upper):
		return inverseWebMercator, nil
	default:
		name := wkt
		if len(name) > 80 {
			name = name[:80]
		}
		return nil, eris.Errorf("geodata: unsupported projected CRS %q", name)
	}
}

func isWebMercator(upperWKT string) bool {
	if !strings.HasPrefix(upperWKT, "PROJCS") && !strings.HasPrefix(upperWKT, "PROJCRS") {
		return false
	}
	for _, marker := range []string{"AUXILIARY_SPHERE", "PSEUDO-MERCATOR", "PSEUDO_MERCATOR", "POPULAR VISUALISATION", "\"3857\"", "\"900913\""} {
		if strings.Contains(upperWKT, marker) {
			return true
		}
	}
	return false
}

// shapeToMultiPolygon группирует кольца shapefile в полигоны: внешние кольца идут
// по часовой стрелке, дырки - против. Если внешних колец нет, каждое кольцо
// считается отдельным полигоном.
func shapeToMultiPolygon(s shp.Shape, transform pointTransform) orb.MultiPolygon {
	var parts []int32
	var points []shp.Point

	switch p := s.(type) {
	case *shp.Polygon:
		parts, points = p.Parts, p.Points
	case *shp.PolygonZ:
		parts, points = p.Parts, p.Points
	case *shp.PolygonM:
		parts, points = p.Parts, p.Points
	default:
		return nil
	}

	if len(parts) == 0 || len(points) == 0 {
		return nil
	}

	rings := make([]orb.Ring, 0, len(parts))
	hasOuter := false
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 4 {
			continue
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, transform(pt.X, pt.Y))
		}
		if ring.Orientation() == orb.CW {
			hasOuter = true
		}
		rings = append(rings, ring)
	}

	var mp orb.MultiPolygon
	for _, ring := range rings {
		if !hasOuter {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		if ring.Orientation() == orb.CW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		mp[len(mp)-1] = append(mp[len(mp)-1], ring)
	}

	return mp
}
