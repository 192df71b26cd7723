package commands

import (
	"fmt"
	"io"
	"os"

	"ao3scraper/internal/components/serviceutil"
	"ao3scraper/internal/scrapers/ao3"

	"github.com/spf13/cobra"
)

var chapterIndex *int

func init() {
	chapterIndex = chaptersCmd.Flags().Int("index", -1, "The (0 based) index of the only chapter to print.")
	rootCmd.AddCommand(chaptersCmd)
}

var chaptersCmd = &cobra.Command{
	Use:   "chapters <href> [--index N]",
	Short: "Prints the text of the chapters of a work.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		work, err := session.Work(args[0])
		if err != nil {
			serviceutil.Fatal("invalid work href", err)
		}
		chapters, err := work.Chapters(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load work", err)
		}

		if *chapterIndex >= 0 {
			if *chapterIndex >= len(chapters) {
				serviceutil.Fatal(
					"chapter index out of range",
					fmt.Errorf("work has %d chapters", len(chapters)),
				)
			}
			chapters = chapters[*chapterIndex : *chapterIndex+1]
		}
		printChapters(os.Stdout, chapters)
	},
}

func printChapters(out io.Writer, chapters []ao3.Chapter) {
	section := func(heading string, text *string) {
		if text == nil {
			return
		}
		if heading != "" {
			fmt.Fprintf(out, "[%s]\n", heading)
		}
		fmt.Fprintf(out, "%s\n\n", *text)
	}

	for i, c := range chapters {
		if i > 0 {
			fmt.Fprintln(out, "------------------------------------")
			fmt.Fprintln(out)
		}
		if c.Title != nil {
			fmt.Fprintf(out, "# %s\n\n", *c.Title)
		}
		section("Summary", c.Summary)
		section("Notes", c.Notes)
		section("", c.Article)
		section("End Notes", c.EndNotes)
	}
}
