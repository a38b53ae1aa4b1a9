package geodata

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Теги TIFF/GeoTIFF, необходимые для чтения первой полосы растра
const (
	tagImageWidth          = 256
	tagImageLength         = 257
	tagBitsPerSample       = 258
	tagCompression         = 259
	tagStripOffsets        = 273
	tagSamplesPerPixel     = 277
	tagRowsPerStrip        = 278
	tagStripByteCounts     = 279
	tagPlanarConfiguration = 284
	tagPredictor           = 317
	tagTileWidth           = 322
	tagTileLength          = 323
	tagTileOffsets         = 324
	tagTileByteCounts      = 325
	tagSampleFormat        = 339
	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGDALNoData          = 42113
)

// Типы полей IFD
const (
	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndefined = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
)

var dataTypeSize = map[uint16]int{
	dtByte: 1, dtASCII: 1, dtShort: 2, dtLong: 4, dtRational: 8, dtSByte: 1,
	dtUndefined: 1, dtSShort: 2, dtSLong: 4, dtSRational: 8, dtFloat: 4, dtDouble: 8,
}

// Значения тегов
const (
	compressionNone       = 1
	compressionLZW        = 5
	compressionDeflate    = 8
	compressionDeflateOld = 32946

	predictorNone          = 1
	predictorHorizontal    = 2
	predictorFloatingPoint = 3

	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3

	planarChunky   = 1
	planarSeparate = 2
)

const maxIFDEntries = 4096

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	raw   []byte
}

type ifd map[uint16]ifdEntry

// readHeader определяет порядок байт и смещение первого IFD
func readHeader(r io.ReaderAt) (binary.ByteOrder, int64, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, 0, eris.Wrap(err, "tiff: read header")
	}

	var order binary.ByteOrder
	switch string(hdr[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, 0, eris.New("tiff: not a TIFF file")
	}

	switch magic := order.Uint16(hdr[2:4]); magic {
	case 42:
	case 43:
		return nil, 0, eris.New("tiff: BigTIFF is not supported")
	default:
		return nil, 0, eris.Errorf("tiff: bad magic %d", magic)
	}

	return order, int64(order.Uint32(hdr[4:8])), nil
}

// readIFD читает каталог изображения по смещению
func readIFD(r io.ReaderAt, order binary.ByteOrder, offset int64) (ifd, error) {
	var countBuf [2]byte
	if _, err := r.ReadAt(countBuf[:], offset); err != nil {
		return nil, eris.Wrap(err, "tiff: read IFD entry count")
	}

	n := int(order.Uint16(countBuf[:]))
	if n == 0 || n > maxIFDEntries {
		return nil, eris.Errorf("tiff: invalid IFD entry count %d", n)
	}

	buf := make([]byte, n*12)
	if _, err := r.ReadAt(buf, offset+2); err != nil {
		return nil, eris.Wrap(err, "tiff: read IFD")
	}

	entries := make(ifd, n)
	for i := 0; i < n; i++ {
		e := buf[i*12 : (i+1)*12]
		entry := ifdEntry{
			tag:   order.Uint16(e[0:2]),
			typ:   order.Uint16(e[2:4]),
			count: order.Uint32(e[4:8]),
		}

		size, ok := dataTypeSize[entry.typ]
		if !ok {
			continue
		}

		total := int64(size) * int64(entry.count)
		if total <= 4 {
			entry.raw = append([]byte(nil), e[8:8+total]...)
		} else {
			if total > 1<<28 {
				return nil, eris.Errorf("tiff: tag %d is too large", entry.tag)
			}
			entry.raw = make([]byte, total)
			if _, err := r.ReadAt(entry.raw, int64(order.Uint32(e[8:12]))); err != nil {
				return nil, eris.Wrapf(err, "tiff: read tag %d", entry.tag)
			}
		}

		entries[entry.tag] = entry
	}

	return entries, nil
}

func (d ifd) has(tag uint16) bool {
	_, ok := d[tag]
	return ok
}

// uints возвращает целочисленные значения тега
func (d ifd) uints(order binary.ByteOrder, tag uint16) ([]uint64, error) {
	e, ok := d[tag]
	if !ok {
		return nil, eris.Errorf("tiff: missing tag %d", tag)
	}

	out := make([]uint64, e.count)
	for i := range out {
		switch e.typ {
		case dtByte, dtUndefined:
			out[i] = uint64(e.raw[i])
		case dtShort:
			out[i] = uint64(order.Uint16(e.raw[2*i:]))
		case dtLong:
			out[i] = uint64(order.Uint32(e.raw[4*i:]))
		default:
			return nil, eris.Errorf("tiff: tag %d has non-integer type %d", tag, e.typ)
		}
	}
	return out, nil
}

// value возвращает первое значение тега или def, если тега нет
func (d ifd) value(order binary.ByteOrder, tag uint16, def uint64) (uint64, error) {
	if !d.has(tag) {
		return def, nil
	}
	vals, err := d.uints(order, tag)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return def, nil
	}
	return vals[0], nil
}

// floats возвращает значения тега как float64
func (d ifd) floats(order binary.ByteOrder, tag uint16) ([]float64, error) {
	e, ok := d[tag]
	if !ok {
		return nil, eris.Errorf("tiff: missing tag %d", tag)
	}

	out := make([]float64, e.count)
	for i := range out {
		switch e.typ {
		case dtDouble:
			out[i] = math.Float64frombits(order.Uint64(e.raw[8*i:]))
		case dtFloat:
			out[i] = float64(math.Float32frombits(order.Uint32(e.raw[4*i:])))
		case dtShort:
			out[i] = float64(order.Uint16(e.raw[2*i:]))
		case dtLong:
			out[i] = float64(order.Uint32(e.raw[4*i:]))
		case dtRational:
			num, den := order.Uint32(e.raw[8*i:]), order.Uint32(e.raw[8*i+4:])
			if den == 0 {
				return nil, eris.Errorf("tiff: tag %d has zero denominator", tag)
			}
			out[i] = float64(num) / float64(den)
		default:
			return nil, eris.Errorf("tiff: tag %d has non-numeric type %d", tag, e.typ)
		}
	}
	return out, nil
}

// ascii возвращает строковое значение тега без завершающих нулей
func (d ifd) ascii(tag uint16) (string, bool) {
	e, ok := d[tag]
	if !ok || e.typ != dtASCII {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(string(e.raw), "\x00")), true
}

// parseNoData разбирает значение GDAL_NODATA
func parseNoData(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "tiff: invalid GDAL_NODATA %q", s)
	}
	return &v, nil
}

// decodeSample читает одно значение выборки из b
func decodeSample(b []byte, order binary.ByteOrder, format uint64, bits int) float64 {
	switch format {
	case sampleFormatFloat:
		if bits == 64 {
			return math.Float64frombits(order.Uint64(b))
		}
		return float64(math.Float32frombits(order.Uint32(b)))
	case sampleFormatInt:
		switch bits {
		case 8:
			return float64(int8(b[0]))
		case 16:
			return float64(int16(order.Uint16(b)))
		case 32:
			return float64(int32(order.Uint32(b)))
		default:
			return float64(int64(order.Uint64(b)))
		}
	default:
		switch bits {
		case 8:
			return float64(b[0])
		case 16:
			return float64(order.Uint16(b))
		case 32:
			return float64(order.Uint32(b))
		default:
			return float64(order.Uint64(b))
		}
	}
}

// undoHorizontalPredictor восстанавливает целочисленные выборки строки (Predictor=2)
func undoHorizontalPredictor(row []byte, order binary.ByteOrder, bytesPerSample, samplesPerPixel int) {
	n := len(row) / bytesPerSample
	for i := samplesPerPixel; i < n; i++ {
		prev := (i - samplesPerPixel) * bytesPerSample
		cur := i * bytesPerSample
		switch bytesPerSample {
		case 1:
			row[cur] += row[prev]
		case 2:
			order.PutUint16(row[cur:], order.Uint16(row[cur:])+order.Uint16(row[prev:]))
		case 4:
			order.PutUint32(row[cur:], order.Uint32(row[cur:])+order.Uint32(row[prev:]))
		case 8:
			order.PutUint64(row[cur:], order.Uint64(row[cur:])+order.Uint64(row[prev:]))
		}
	}
}

// undoFloatingPointPredictor восстанавливает строку с плавающей точкой (Predictor=3).
// Результат записывается в порядке big-endian независимо от порядка байт файла.
func undoFloatingPointPredictor(row []byte, bytesPerSample, samplesPerPixel int) {
	for i := samplesPerPixel; i < len(row); i++ {
		row[i] += row[i-samplesPerPixel]
	}

	wc := len(row) / bytesPerSample
	tmp := append([]byte(nil), row...)
	for count := 0; count < wc; count++ {
		for b := 0; b < bytesPerSample; b++ {
			row[bytesPerSample*count+b] = tmp[b*wc+count]
		}
	}
}
