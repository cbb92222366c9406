package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/config"
	"github.com/plandata/kpi-etl/internal/sink"
	_ "github.com/plandata/kpi-etl/internal/sink/duckdb"
	_ "github.com/plandata/kpi-etl/internal/sink/sqlite"
)

var (
	cfgFile     string
	sinkPath    string
	sinkDialect string
)

var rootCmd = &cobra.Command{
	Use:   "kpi-etl",
	Short: "Scheduled ETL pipeline loading KPI plan data into an embedded store",
	Long: `kpi-etl extracts KPI evaluation data from a spreadsheet and center
master data from a CSV file, validates column-type contracts, pivots the KPI
data to long format, loads full-replace snapshots into an embedded analytical
database, and joins the two tables into KPI_FY_Final.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if sinkPath != "" {
		cfg.Sink.Path = sinkPath
	}
	if sinkDialect != "" {
		cfg.Sink.Dialect = sinkDialect
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func openSink(cfg *config.Config, log *zap.Logger) (*sink.DB, error) {
	return sink.New(cfg.Sink, log)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file (defaults to ./kpi-etl.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&sinkPath, "db", "", "Override the sink database file path")
	rootCmd.PersistentFlags().StringVar(&sinkDialect, "dialect", "", "Override the sink dialect (duckdb, sqlite)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(previewCmd)
}
