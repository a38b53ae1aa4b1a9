package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/site-assessment/internal/bootstrap"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/site-assessment/internal/repository/export"
	"github.com/site-assessment/internal/usecase"
)

var (
	assessLat  float64
	assessLon  float64
	assessCSV  string
	assessXLSX string
	assessGeo  string
)

func init() {
	rootCmd.Flags().Float64Var(&assessLat, "lat", 0, "center latitude (required)")
	rootCmd.Flags().Float64Var(&assessLon, "lon", 0, "center longitude (required)")
	rootCmd.Flags().StringVar(&assessCSV, "csv", "", "write results CSV here instead of RESULTS_CSV_PATH")
	rootCmd.Flags().StringVar(&assessXLSX, "xlsx", "", "write results XLSX here instead of RESULTS_XLSX_PATH")
	rootCmd.Flags().StringVar(&assessGeo, "geojson", "", "write results GeoJSON here instead of RESULTS_GEOJSON_PATH")
	_ = rootCmd.MarkFlagRequired("lat")
	_ = rootCmd.MarkFlagRequired("lon")
}

func runAssess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := bootstrap.New(ctx, cfg, log, assessOptions(assessCSV, assessXLSX, assessGeo))
	if err != nil {
		return eris.Wrap(err, "assess: init")
	}
	defer app.Close()

	run, err := app.UseCase.Assess(ctx, domain.Coordinate{Lat: assessLat, Lon: assessLon})
	if err != nil {
		return eris.Wrap(err, "assess")
	}

	log.Info("assessment complete",
		zap.String("run_id", run.ID.String()),
		zap.Int("records", len(run.Records)))

	return printRecords(cmd.OutOrStdout(), run.Records)
}

// assessOptions: явные --csv/--xlsx/--geojson заменяют файлы из конфигурации
func assessOptions(csvPath, xlsxPath, geoPath string) bootstrap.Options {
	opts := bootstrap.Options{Origin: usecase.OriginCLI}
	if csvPath == "" && xlsxPath == "" && geoPath == "" {
		return opts
	}

	opts.SkipConfiguredExporters = true
	var exporters []repository.ResultExporter
	if csvPath != "" {
		exporters = append(exporters, export.NewCSVExporter(csvPath))
	}
	if xlsxPath != "" {
		exporters = append(exporters, export.NewXLSXExporter(xlsxPath))
	}
	if geoPath != "" {
		exporters = append(exporters, export.NewGeoJSONExporter(geoPath))
	}
	opts.ExtraExporters = exporters
	return opts
}

func printRecords(w io.Writer, records []domain.AssessmentRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "assess: write output")
	}
	return nil
}
