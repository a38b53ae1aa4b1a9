package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
)

// CSVExporter перезаписывает файл результатов в формате CSV
type CSVExporter struct {
	path string
}

// NewCSVExporter создаёт экспорт в CSV по указанному пути
func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

var _ repository.ResultExporter = (*CSVExporter)(nil)

func (e *CSVExporter) Name() string { return "csv" }

// Path возвращает путь к файлу результатов
func (e *CSVExporter) Path() string { return e.path }

// plainFloats пишет числа без экспоненты: 1234567.5, а не 1.2345675E+06
var plainFloats = csvutil.MarshalFunc(func(v float64) ([]byte, error) {
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
})

// Export пишет заголовок и по строке на запись; файл заменяется целиком
func (e *CSVExporter) Export(records []domain.AssessmentRecord) error {
	data, err := MarshalCSV(records)
	if err != nil {
		return fmt.Errorf("failed to encode csv: %w", err)
	}

	return writeFileAtomic(e.path, data)
}

// MarshalCSV кодирует записи в CSV с заголовком; без записей остаётся только заголовок
func MarshalCSV(records []domain.AssessmentRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)
	enc.WithMarshalers(plainFloats)

	var err error
	if len(records) == 0 {
		err = enc.EncodeHeader(domain.AssessmentRecord{})
	} else {
		err = enc.Encode(records)
	}
	if err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic пишет во временный файл рядом с целевым и переименовывает его
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
