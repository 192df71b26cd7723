package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ao3scraper/internal/components/chrono"
	"ao3scraper/internal/components/db"
	"ao3scraper/internal/components/serviceutil"
	"ao3scraper/internal/components/telemetry"
	"ao3scraper/internal/scrapers/ao3"

	"github.com/spf13/cobra"
)

var (
	watchDb       *string
	watchFeed     *string
	watchSchedule *string
)

func init() {
	watchDb = watchCmd.Flags().String("db", "works.db", "The sqlite file or libsql url to write works to.")
	watchFeed = watchCmd.Flags().String("feed", "", "The atom feed to export works from.")
	watchSchedule = watchCmd.Flags().String("schedule", "@every 1h", "A cron spec (in UTC) for when to read the feed.")
	watchCmd.MarkFlagRequired("feed")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch --feed <href> [--schedule <cron spec>] [--db <path/to/works.db>]",
	Short: "Exports the works of a feed once now and then again on a schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		err := runWatch(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to watch feed", err)
		}
	},
}

func runWatch(ctx context.Context) error {
	telemetry.InstrumentPerfStats(ctx, time.Minute)

	store, err := db.Open(*watchDb)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	run := func() {
		_, err := exportFeed(ctx, session, store, *watchFeed)
		if err != nil {
			slog.Error("failed to export feed", "feed", *watchFeed, "err", err)
		}
	}
	run()

	cronner := chrono.NewCronScheduler(tel)
	err = cronner.Cron(*watchSchedule, run)
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	slog.Info("watching feed", "feed", *watchFeed, "schedule", *watchSchedule)

	<-ctx.Done()
	cronner.Stop()
	return nil
}

// exportFeed reads the feed at href and exports every work in it under a new
// export run.
func exportFeed(ctx context.Context, s *ao3.Session, store workSaver, href string) (exportResult, error) {
	entries, err := s.Feed(ctx, href)
	if err != nil {
		return exportResult{}, err
	}
	works := make([]*ao3.Work, len(entries))
	for i, entry := range entries {
		works[i] = entry.Work
	}

	result, err := exportWorks(ctx, store, works)
	if err != nil {
		return exportResult{}, err
	}
	slog.Info(
		"feed exported",
		"feed", href,
		"export_id", result.ExportId,
		"works", result.Saved,
		"failed", result.Failed,
	)
	return result, nil
}
