package export

import (
	"github.com/rotisserie/eris"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/tealeg/xlsx/v2"
)

// SheetName - имя листа с результатами
const SheetName = "Results"

// XLSXExporter сохраняет таблицу результатов в книгу Excel
type XLSXExporter struct {
	path string
}

func NewXLSXExporter(path string) *XLSXExporter {
	return &XLSXExporter{path: path}
}

var _ repository.ResultExporter = (*XLSXExporter)(nil)

func (e *XLSXExporter) Name() string { return "xlsx" }

// Export перезаписывает книгу: строка заголовка и по строке на точку
func (e *XLSXExporter) Export(records []domain.AssessmentRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range domain.RecordHeaders {
		header.AddCell().SetString(name)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetInt(rec.ID)
		row.AddCell().SetFloat(rec.Lat)
		row.AddCell().SetFloat(rec.Lon)
		row.AddCell().SetFloat(rec.TotalHospitalKm)
		row.AddCell().SetFloat(rec.NearestRoadM)
		row.AddCell().SetFloat(rec.AvgTransportKm)
		row.AddCell().SetFloat(rec.ElevationM)
		row.AddCell().SetFloat(rec.PopDensity)
		row.AddCell().SetInt(rec.ProtectionScore)
		row.AddCell().SetInt(rec.AirQuality)
		row.AddCell().SetString(rec.SeismicZone)
	}

	if err := f.Save(e.path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", e.path)
	}
	return nil
}
