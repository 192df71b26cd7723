package commands

import (
	"io"
	"os"
	"time"

	"ao3scraper/internal/components/serviceutil"
	"ao3scraper/internal/scrapers/ao3"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed <href>",
	Short: "Lists the works of an atom feed, such as /tags/<id>/feed.atom.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := session.Feed(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to read feed", err)
		}
		renderFeed(os.Stdout, entries)
	},
}

func renderFeed(out io.Writer, entries []ao3.FeedEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Work", "Title", "Author", "Updated"})

	for _, entry := range entries {
		author, updated := "", ""
		if entry.Author != nil {
			author = *entry.Author
		}
		if entry.Updated != nil {
			updated = entry.Updated.Format(time.DateOnly)
		}
		t.AppendRow(table.Row{entry.Work.WorkId(), entry.Title, author, updated})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
