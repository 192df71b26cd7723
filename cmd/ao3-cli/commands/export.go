package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ao3scraper/internal/components/db"
	"ao3scraper/internal/components/serviceutil"
	"ao3scraper/internal/components/telemetry"
	"ao3scraper/internal/scrapers/ao3"

	"github.com/spf13/cobra"
)

var (
	exportDb       *string
	exportFeedHref *string
)

func init() {
	exportDb = exportCmd.Flags().String("db", "works.db", "The sqlite file or libsql url to write works to.")
	exportFeedHref = exportCmd.Flags().String("feed", "", "An atom feed whose works are exported as well.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <href>... [--feed <href>] [--db <path/to/works.db>]",
	Short: "Loads works and writes them to a sqlite database.",
	Run: func(cmd *cobra.Command, args []string) {
		err := runExport(cmd.Context(), args)
		if err != nil {
			serviceutil.Fatal("failed to export", err)
		}
	},
}

// runExport returns instead of exiting so the store is closed on every path.
func runExport(ctx context.Context, args []string) error {
	telemetry.InstrumentPerfStats(ctx, 30*time.Second)

	var works []*ao3.Work
	for _, href := range args {
		work, err := session.Work(href)
		if err != nil {
			return fmt.Errorf("invalid work href: %w", err)
		}
		works = append(works, work)
	}
	if *exportFeedHref != "" {
		entries, err := session.Feed(ctx, *exportFeedHref)
		if err != nil {
			return fmt.Errorf("read feed: %w", err)
		}
		for _, entry := range entries {
			works = append(works, entry.Work)
		}
	}
	if len(works) == 0 {
		return errors.New("nothing to export, pass work hrefs or --feed")
	}

	store, err := db.Open(*exportDb)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	t1 := time.Now()
	result, err := exportWorks(ctx, store, works)
	if err != nil {
		return err
	}
	t2 := time.Now()

	slog.Info(
		"export finished",
		"export_id", result.ExportId,
		"works", result.Saved,
		"failed", result.Failed,
		"seconds", t2.Sub(t1).Seconds(),
	)
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d works could not be exported", result.Failed, len(works))
	}
	return nil
}

// workSaver is the part of *db.Store an export writes to.
type workSaver interface {
	BeginExport(ctx context.Context) (string, error)
	SaveWork(ctx context.Context, record db.WorkRecord) error
}

type exportResult struct {
	ExportId string
	// Saved and Failed add up to the number of works passed in.
	Saved  int
	Failed int
}

// exportWorks loads works concurrently and saves them under a new export run. Works
// that fail to load or to save are logged and counted, only failing to start the
// export run is an error.
func exportWorks(ctx context.Context, store workSaver, works []*ao3.Work) (exportResult, error) {
	exportId, err := store.BeginExport(ctx)
	if err != nil {
		return exportResult{}, err
	}
	result := exportResult{ExportId: exportId}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, work := range works {
		work := work
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := saveWork(ctx, store, exportId, work)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("failed to export work", "work", work.String(), "err", err)
				result.Failed++
				return
			}
			result.Saved++
		}()
	}
	wg.Wait()

	return result, nil
}

func saveWork(ctx context.Context, store workSaver, exportId string, work *ao3.Work) error {
	record, err := recordFromWork(ctx, work)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	record.ExportId = exportId
	err = store.SaveWork(ctx, record)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
