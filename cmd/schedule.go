package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/plandata/kpi-etl/internal/pipeline"
	"github.com/plandata/kpi-etl/internal/schedule"
)

// scheduleCmd runs the pipeline on the configured cron trigger until
// interrupted. Each triggered run opens the sink, works, and closes it; the
// scheduler skips ticks while a run is still in flight.
var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Short:   "Run the pipeline on the configured cron schedule",
	Example: `./kpi-etl schedule --config kpi-etl.yaml`,
	RunE:    runScheduler,
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	runOnce := func(ctx context.Context) error {
		db, err := openSink(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		return pipeline.New(cfg, db, log).Run(ctx)
	}

	sched, err := schedule.New(cfg.Schedule, runOnce, log)
	if err != nil {
		return err
	}
	sched.Start()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down scheduler")
	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(waitCtx)
	return nil
}
