package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that refreshes report caches and publishes bottleneck alerts`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	deps, err := buildDeps(false)
	if err != nil {
		return err
	}
	defer deps.close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Dur("interval", deps.cfg.Worker.ReportInterval).Msg("Starting report refresh scheduler")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(deps.cfg.Worker.ReportInterval),
			gocron.NewTask(func() {
				refreshReports(ctx, deps)
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}

// refreshReports recomputes the kanban and workload reports, which also warms
// their Redis entries, then checks for bottlenecks and publishes an alert per
// run when journeys are dwelling past the configured limit.
func refreshReports(ctx context.Context, deps *appDeps) {
	if _, err := deps.reports.GetKanbanBoard(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to refresh kanban report")
	}

	if _, err := deps.reports.GetWorkloadReport(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to refresh workload report")
	}

	bottlenecks, err := deps.reports.GetBottleneckReport(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute bottleneck report")
		return
	}

	deps.metrics.IncrementCounter("worker.report_refresh")

	if len(bottlenecks.Aging) == 0 {
		return
	}

	log.Warn().Int("aging", len(bottlenecks.Aging)).Msg("Bottleneck detected on assembly floor")

	alert := map[string]interface{}{
		"event":  "bottleneck_alert",
		"report": bottlenecks,
	}
	if err := deps.bus.SendMessage(ctx, alert, "bottleneck-alerts"); err != nil {
		log.Error().Err(err).Msg("Failed to publish bottleneck alert")
	}
}
