package cmd

import (
	"github.com/spf13/cobra"

	"github.com/plandata/kpi-etl/internal/pipeline"
)

// runCmd executes the whole pipeline once: both source lineages, the final
// join, and a preview after every load.
var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Execute the full pipeline once",
	Example: `./kpi-etl run --db db/plan.db`,
	RunE:    runPipelineOnce,
}

func runPipelineOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := openSink(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return pipeline.New(cfg, db, log).Run(cmd.Context())
}
