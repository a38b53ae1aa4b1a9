package geodata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"github.com/site-assessment/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/image/tiff/lzw"
)

const defaultBlockCacheSize = 256

// geoTransform - аффинное преобразование без поворота: x = originX + col*scaleX, y = originY + row*scaleY
type geoTransform struct {
	originX, originY float64
	scaleX, scaleY   float64
}

// Raster - первая полоса GeoTIFF с привязкой lon/lat.
// Декодированные блоки (полосы или тайлы) хранятся в LRU-кеше; чтение безопасно
// для конкурентного использования.
type Raster struct {
	r      io.ReaderAt
	closer io.Closer
	order  binary.ByteOrder

	width, height           int
	blockWidth, blockHeight int
	blocksAcross            int
	blocksPerPlane          int
	tiled                   bool

	offsets    []uint64
	byteCounts []uint64

	compression     uint64
	predictor       uint64
	sampleFormat    uint64
	bitsPerSample   int
	samplesPerPixel int
	planar          uint64

	nodata    *float64
	transform geoTransform
	extent    domain.BoundingBox

	blocks *lru.Cache[int, []float64]
}

// OpenRaster открывает GeoTIFF с диска
func OpenRaster(path string, cacheSize int) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: open raster %s", path)
	}

	raster, err := NewRaster(f, cacheSize)
	if err != nil {
		_ = f.Close()
		return nil, eris.Wrapf(err, "geodata: parse raster %s", path)
	}
	raster.closer = f

	return raster, nil
}

// LoadPopulationLayer открывает растр плотности населения и логирует его охват
func LoadPopulationLayer(path string, cacheSize int, logger *zap.Logger) (*Raster, error) {
	raster, err := OpenRaster(path, cacheSize)
	if err != nil {
		return nil, err
	}

	bounds := raster.Bounds()
	logger.Info("Population raster loaded",
		zap.String("path", path),
		zap.Int("width", raster.width),
		zap.Int("height", raster.height),
		zap.Bool("tiled", raster.tiled),
		zap.Uint64("compression", raster.compression),
		zap.Float64("min_lat", bounds.MinLat),
		zap.Float64("min_lon", bounds.MinLon),
		zap.Float64("max_lat", bounds.MaxLat),
		zap.Float64("max_lon", bounds.MaxLon))

	return raster, nil
}

// NewRaster разбирает первый IFD и георазметку
func NewRaster(r io.ReaderAt, cacheSize int) (*Raster, error) {
	order, ifdOffset, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	tags, err := readIFD(r, order, ifdOffset)
	if err != nil {
		return nil, err
	}

	raster := &Raster{r: r, order: order}
	if err := raster.parseLayout(tags); err != nil {
		return nil, err
	}
	if err := raster.parseGeoreference(tags); err != nil {
		return nil, err
	}
	raster.extent = raster.Bounds()

	if nd, ok := tags.ascii(tagGDALNoData); ok {
		raster.nodata, err = parseNoData(nd)
		if err != nil {
			return nil, err
		}
	}

	if cacheSize <= 0 {
		cacheSize = defaultBlockCacheSize
	}
	raster.blocks, err = lru.New[int, []float64](cacheSize)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: create block cache")
	}

	return raster, nil
}

func (g *Raster) parseLayout(tags ifd) error {
	order := g.order

	width, err := tags.value(order, tagImageWidth, 0)
	if err != nil {
		return err
	}
	height, err := tags.value(order, tagImageLength, 0)
	if err != nil {
		return err
	}
	if width == 0 || height == 0 {
		return eris.New("tiff: missing image dimensions")
	}
	g.width, g.height = int(width), int(height)

	spp, err := tags.value(order, tagSamplesPerPixel, 1)
	if err != nil {
		return err
	}
	g.samplesPerPixel = int(spp)

	bps, err := tags.value(order, tagBitsPerSample, 1)
	if err != nil {
		return err
	}
	g.bitsPerSample = int(bps)

	if g.sampleFormat, err = tags.value(order, tagSampleFormat, sampleFormatUint); err != nil {
		return err
	}
	if g.compression, err = tags.value(order, tagCompression, compressionNone); err != nil {
		return err
	}
	if g.predictor, err = tags.value(order, tagPredictor, predictorNone); err != nil {
		return err
	}
	if g.planar, err = tags.value(order, tagPlanarConfiguration, planarChunky); err != nil {
		return err
	}

	if err := g.validateSampleLayout(); err != nil {
		return err
	}

	if tags.has(tagTileWidth) {
		g.tiled = true
		tw, err := tags.value(order, tagTileWidth, 0)
		if err != nil {
			return err
		}
		th, err := tags.value(order, tagTileLength, 0)
		if err != nil {
			return err
		}
		if tw == 0 || th == 0 {
			return eris.New("tiff: invalid tile size")
		}
		g.blockWidth, g.blockHeight = int(tw), int(th)

		if g.offsets, err = tags.uints(order, tagTileOffsets); err != nil {
			return err
		}
		if g.byteCounts, err = tags.uints(order, tagTileByteCounts); err != nil {
			return err
		}
	} else {
		rps, err := tags.value(order, tagRowsPerStrip, height)
		if err != nil {
			return err
		}
		if rps == 0 || rps > height {
			rps = height
		}
		g.blockWidth, g.blockHeight = g.width, int(rps)

		if g.offsets, err = tags.uints(order, tagStripOffsets); err != nil {
			return err
		}
		if g.byteCounts, err = tags.uints(order, tagStripByteCounts); err != nil {
			return err
		}
	}

	g.blocksAcross = (g.width + g.blockWidth - 1) / g.blockWidth
	blocksDown := (g.height + g.blockHeight - 1) / g.blockHeight
	g.blocksPerPlane = g.blocksAcross * blocksDown

	if len(g.offsets) < g.blocksPerPlane || len(g.byteCounts) < g.blocksPerPlane {
		return eris.Errorf("tiff: expected %d blocks, got %d offsets and %d byte counts",
			g.blocksPerPlane, len(g.offsets), len(g.byteCounts))
	}

	return nil
}

func (g *Raster) validateSampleLayout() error {
	if g.samplesPerPixel < 1 {
		return eris.Errorf("tiff: invalid samples per pixel %d", g.samplesPerPixel)
	}

	switch g.sampleFormat {
	case sampleFormatFloat:
		if g.bitsPerSample != 32 && g.bitsPerSample != 64 {
			return eris.Errorf("tiff: unsupported float sample size %d", g.bitsPerSample)
		}
	case sampleFormatUint, sampleFormatInt:
		switch g.bitsPerSample {
		case 8, 16, 32, 64:
		default:
			return eris.Errorf("tiff: unsupported sample size %d", g.bitsPerSample)
		}
	default:
		return eris.Errorf("tiff: unsupported sample format %d", g.sampleFormat)
	}

	switch g.compression {
	case compressionNone, compressionLZW, compressionDeflate, compressionDeflateOld:
	default:
		return eris.Errorf("tiff: unsupported compression %d", g.compression)
	}

	switch g.predictor {
	case predictorNone:
	case predictorHorizontal:
		if g.sampleFormat == sampleFormatFloat {
			return eris.New("tiff: horizontal predictor on float samples is not supported")
		}
	case predictorFloatingPoint:
		if g.sampleFormat != sampleFormatFloat {
			return eris.New("tiff: floating point predictor on integer samples")
		}
	default:
		return eris.Errorf("tiff: unsupported predictor %d", g.predictor)
	}

	if g.planar != planarChunky && g.planar != planarSeparate {
		return eris.Errorf("tiff: unsupported planar configuration %d", g.planar)
	}

	return nil
}

func (g *Raster) parseGeoreference(tags ifd) error {
	if tags.has(tagModelPixelScale) && tags.has(tagModelTiepoint) {
		scale, err := tags.floats(g.order, tagModelPixelScale)
		if err != nil {
			return err
		}
		tie, err := tags.floats(g.order, tagModelTiepoint)
		if err != nil {
			return err
		}
		if len(scale) < 2 || len(tie) < 6 {
			return eris.New("tiff: malformed tiepoint or pixel scale")
		}
		if scale[0] == 0 || scale[1] == 0 {
			return eris.New("tiff: zero pixel scale")
		}

		// tie = (I, J, K, X, Y, Z)
		g.transform = geoTransform{
			originX: tie[3] - tie[0]*scale[0],
			originY: tie[4] + tie[1]*scale[1],
			scaleX:  scale[0],
			scaleY:  -scale[1],
		}
		return nil
	}

	if tags.has(tagModelTransformation) {
		m, err := tags.floats(g.order, tagModelTransformation)
		if err != nil {
			return err
		}
		if len(m) < 16 {
			return eris.New("tiff: malformed model transformation")
		}
		if m[1] != 0 || m[4] != 0 {
			return eris.New("tiff: rotated rasters are not supported")
		}
		if m[0] == 0 || m[5] == 0 {
			return eris.New("tiff: degenerate model transformation")
		}

		g.transform = geoTransform{
			originX: m[3],
			originY: m[7],
			scaleX:  m[0],
			scaleY:  m[5],
		}
		return nil
	}

	return eris.New("tiff: raster has no georeferencing")
}

// Bounds возвращает охват растра в координатах модели
func (g *Raster) Bounds() domain.BoundingBox {
	x0 := g.transform.originX
	x1 := g.transform.originX + float64(g.width)*g.transform.scaleX
	y0 := g.transform.originY
	y1 := g.transform.originY + float64(g.height)*g.transform.scaleY

	return domain.BoundingBox{
		MinLat: math.Min(y0, y1),
		MaxLat: math.Max(y0, y1),
		MinLon: math.Min(x0, x1),
		MaxLon: math.Max(x0, x1),
	}
}

// Sample возвращает значение первой полосы в точке.
// ok=false вне охвата растра, для nodata и NaN.
func (g *Raster) Sample(lat, lon float64) (float64, bool, error) {
	if !g.extent.Contains(domain.Coordinate{Lat: lat, Lon: lon}) {
		return 0, false, nil
	}

	// правая и нижняя границы охвата в растр не входят
	col := int(math.Floor((lon - g.transform.originX) / g.transform.scaleX))
	row := int(math.Floor((lat - g.transform.originY) / g.transform.scaleY))
	if col < 0 || row < 0 || col >= g.width || row >= g.height {
		return 0, false, nil
	}

	bx, by := col/g.blockWidth, row/g.blockHeight
	block, err := g.block(by*g.blocksAcross + bx)
	if err != nil {
		return 0, false, err
	}

	idx := (row-by*g.blockHeight)*g.blockWidth + (col - bx*g.blockWidth)
	if idx >= len(block) {
		return 0, false, nil
	}

	v := block[idx]
	if math.IsNaN(v) {
		return 0, false, nil
	}
	if g.nodata != nil && v == *g.nodata {
		return 0, false, nil
	}

	return v, true, nil
}

// Close закрывает файл растра
func (g *Raster) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer.Close()
}

// block возвращает декодированные значения первой полосы для блока
func (g *Raster) block(index int) ([]float64, error) {
	if values, ok := g.blocks.Get(index); ok {
		return values, nil
	}

	values, err := g.decodeBlock(index)
	if err != nil {
		return nil, err
	}

	g.blocks.Add(index, values)
	return values, nil
}

func (g *Raster) decodeBlock(index int) ([]float64, error) {
	size := g.byteCounts[index]
	if size > 1<<30 {
		return nil, eris.Errorf("tiff: block %d is too large", index)
	}

	raw := make([]byte, size)
	n, err := g.r.ReadAt(raw, int64(g.offsets[index]))
	if err != nil && !(errors.Is(err, io.EOF) && n == len(raw)) {
		return nil, eris.Wrapf(err, "tiff: read block %d", index)
	}

	// в раздельной конфигурации блок первой полосы содержит одну выборку на пиксель
	spp := g.samplesPerPixel
	if g.planar == planarSeparate {
		spp = 1
	}
	bytesPerSample := g.bitsPerSample / 8
	rowBytes := g.blockWidth * spp * bytesPerSample

	rows := g.blockHeight
	if !g.tiled {
		if remaining := g.height - (index/g.blocksAcross)*g.blockHeight; remaining < rows {
			rows = remaining
		}
	}

	data, err := g.decompress(raw, rows*rowBytes)
	if err != nil {
		return nil, eris.Wrapf(err, "tiff: decompress block %d", index)
	}
	if avail := len(data) / rowBytes; avail < rows {
		rows = avail
	}

	order := g.order
	for r := 0; r < rows; r++ {
		row := data[r*rowBytes : (r+1)*rowBytes]
		switch g.predictor {
		case predictorHorizontal:
			undoHorizontalPredictor(row, order, bytesPerSample, spp)
		case predictorFloatingPoint:
			undoFloatingPointPredictor(row, bytesPerSample, spp)
		}
	}
	if g.predictor == predictorFloatingPoint {
		order = binary.BigEndian
	}

	values := make([]float64, g.blockWidth*g.blockHeight)
	for i := range values {
		values[i] = math.NaN()
	}

	pixelBytes := spp * bytesPerSample
	for r := 0; r < rows; r++ {
		rowStart := r * rowBytes
		for c := 0; c < g.blockWidth; c++ {
			off := rowStart + c*pixelBytes
			values[r*g.blockWidth+c] = decodeSample(data[off:off+bytesPerSample], order, g.sampleFormat, g.bitsPerSample)
		}
	}

	return values, nil
}

// decompress распаковывает блок; читается не более expected байт, короткий поток допустим
func (g *Raster) decompress(raw []byte, expected int) ([]byte, error) {
	var rc io.ReadCloser
	switch g.compression {
	case compressionNone:
		return raw, nil
	case compressionLZW:
		rc = lzw.NewReader(bytes.NewReader(raw), lzw.MSB, 8)
	case compressionDeflate, compressionDeflateOld:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		rc = zr
	default:
		return nil, eris.Errorf("unsupported compression %d", g.compression)
	}
	defer rc.Close() //nolint:errcheck

	buf := make([]byte, expected)
	n, err := io.ReadFull(rc, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}
