package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/output"
	"github.com/Artzzx/buildlore/internal/pipeline"
)

var cronExpr string

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: `Schedule blocks and executes the ingestion pipeline on a standard
5-field cron expression (minute hour day-of-month month day-of-week).

A scheduled run behaves like 'buildlore run': when no input changed
since the last publish, it skips the rebuild.

Example:
  buildlore schedule --cron "0 3 * * *"
  buildlore schedule --cron "*/30 * * * *"`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&cronExpr, "cron", "0 3 * * *", "cron expression for pipeline runs")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cronExpr)
	if err != nil {
		return eris.Wrapf(err, "parse cron expression %q", cronExpr)
	}

	zap.L().Info("scheduler started", zap.String("cron", cronExpr))

	for {
		now := time.Now()
		next := sched.Next(now)
		fmt.Fprintf(os.Stderr, "Next run at %s (in %s)\n",
			next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))

		select {
		case <-ctx.Done():
			zap.L().Info("scheduler stopped")
			return nil
		case <-time.After(next.Sub(now)):
		}

		// Rebuild the pipeline each cycle so catalog and source changes
		// on disk are picked up without a restart.
		p, err := pipeline.New(cfg)
		if err != nil {
			zap.L().Error("scheduled run failed", zap.Error(err))
			continue
		}

		report, err := p.Run(ctx, pipeline.RunOptions{})
		if err != nil {
			zap.L().Error("scheduled run failed", zap.Error(err))
			continue
		}
		output.RenderReport(os.Stdout, report)
	}
}
