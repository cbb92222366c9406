package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// previewCmd prints the first rows of any produced sink table. One
// parameterized command serves every table; the table name is data.
var previewCmd = &cobra.Command{
	Use:     "preview <table>",
	Short:   "Show the first rows of a sink table",
	Example: `./kpi-etl preview KPI_FY_Final`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
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

	tbl, err := db.Preview(cmd.Context(), args[0], cfg.Preview.Rows)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), tbl.Render())
	return nil
}
