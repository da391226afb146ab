package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"maisync/internal/components/chrono"
	"maisync/internal/components/telemetry"
	"maisync/internal/recordsync"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

// logNotifier is the default sink for new record signals.
func logNotifier(ctx context.Context, result recordsync.Result) error {
	slog.Info(
		"new records",
		"cycle", result.ID,
		"playlogs", result.PlaylogsWritten,
		"first_plays", result.FirstPlays,
	)
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs a sync cycle now and then periodically until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd.Context())
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if a.cfg.Otlp.Enabled() {
			shutdown, err := telemetry.SetupOtlp(ctx, "maisync", a.cfg.Otlp)
			if err != nil {
				return err
			}
			defer shutdown(context.Background())
		}

		interval, err := a.cfg.interval()
		if err != nil {
			return err
		}
		engine, err := a.newEngine(ctx, recordsync.NotifierFunc(logNotifier))
		if err != nil {
			return err
		}

		cron := chrono.NewStandardCron(a.tel, a.time.Location())
		scheduler := recordsync.NewScheduler(engine, cron, interval, a.tel)
		err = scheduler.Start(ctx)
		if err != nil {
			return err
		}
		cron.Start()
		slog.Info("scheduler started", "interval", interval.String())

		<-ctx.Done()
		slog.Info("shutting down, waiting for the running cycle")
		<-cron.Stop().Done()
		return nil
	},
}
