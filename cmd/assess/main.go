package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/site-assessment/internal/config"
	"github.com/site-assessment/internal/pkg/logger"
)

var (
	cfg *config.Config
	log *zap.Logger

	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess a site around a coordinate",
	Long: `Evaluates the center point and 8 points at ASSESSMENT_OFFSET_KM around it and prints
the records as JSON.

Examples:
  # Assess Bengaluru, write the configured CSV
  assess --lat 12.9716 --lon 77.5946

  # Write results to custom files
  assess --lat 12.9716 --lon 77.5946 --csv out.csv --xlsx out.xlsx

  # Queue a request for the worker
  assess enqueue --lat 12.9716 --lon 77.5946`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.LoadFile(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		// stdout занят результатом
		l, err := logger.New(cfg.Log.Level, "cli", "stderr")
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runAssess,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to env file with configuration")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
