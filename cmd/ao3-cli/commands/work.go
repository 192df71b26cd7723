package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ao3scraper/internal/components/db"
	"ao3scraper/internal/components/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var workOutput *string

func init() {
	workOutput = workCmd.Flags().StringP("output", "o", "table", "The output format: table, json or yaml.")
	rootCmd.AddCommand(workCmd)
}

var workCmd = &cobra.Command{
	Use:   "work <href> [--output table|json|yaml]",
	Short: "Prints the metadata of a work.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		work, err := session.Work(args[0])
		if err != nil {
			serviceutil.Fatal("invalid work href", err)
		}
		record, err := recordFromWork(cmd.Context(), work)
		if err != nil {
			serviceutil.Fatal("failed to load work", err)
		}
		err = renderWork(os.Stdout, *workOutput, record)
		if err != nil {
			serviceutil.Fatal("failed to render work", err)
		}
	},
}

// workView is the printed shape of a work, chapter text is left out.
type workView struct {
	WorkId        int64               `json:"work_id" yaml:"work_id"`
	Href          string              `json:"href" yaml:"href"`
	Title         *string             `json:"title,omitempty" yaml:"title,omitempty"`
	Author        *string             `json:"author,omitempty" yaml:"author,omitempty"`
	Rating        *string             `json:"rating,omitempty" yaml:"rating,omitempty"`
	Language      *string             `json:"language,omitempty" yaml:"language,omitempty"`
	Published     *string             `json:"published,omitempty" yaml:"published,omitempty"`
	Status        *string             `json:"status,omitempty" yaml:"status,omitempty"`
	Complete      *bool               `json:"complete,omitempty" yaml:"complete,omitempty"`
	Words         *int                `json:"words,omitempty" yaml:"words,omitempty"`
	ChapterNumber *int                `json:"chapter_number,omitempty" yaml:"chapter_number,omitempty"`
	ChapterCount  *int                `json:"chapter_count,omitempty" yaml:"chapter_count,omitempty"`
	Comments      *int                `json:"comments,omitempty" yaml:"comments,omitempty"`
	Kudos         *int                `json:"kudos,omitempty" yaml:"kudos,omitempty"`
	Bookmarks     *int                `json:"bookmarks,omitempty" yaml:"bookmarks,omitempty"`
	Hits          *int                `json:"hits,omitempty" yaml:"hits,omitempty"`
	Tags          map[string][]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Summary       *string             `json:"summary,omitempty" yaml:"summary,omitempty"`
	Chapters      int                 `json:"chapters" yaml:"chapters"`
}

func formatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	out := value.Format(time.DateOnly)
	return &out
}

func viewWork(record db.WorkRecord) workView {
	view := workView{
		WorkId:        record.WorkId,
		Href:          record.Href,
		Title:         record.Title,
		Author:        record.Author,
		Language:      record.Language,
		Published:     formatDate(record.Published),
		Status:        formatDate(record.Status),
		Complete:      record.Complete,
		Words:         record.Words,
		ChapterNumber: record.ChapterNumber,
		ChapterCount:  record.ChapterCount,
		Comments:      record.Comments,
		Kudos:         record.Kudos,
		Bookmarks:     record.Bookmarks,
		Hits:          record.Hits,
		Summary:       record.Summary,
		Chapters:      len(record.Chapters),
	}
	if record.Rating != nil {
		view.Rating = &record.Rating.Name
	}
	if len(record.Tags) > 0 {
		view.Tags = map[string][]string{}
		for _, tag := range record.Tags {
			view.Tags[string(tag.Kind)] = append(view.Tags[string(tag.Kind)], tag.Name)
		}
	}
	return view
}

func renderWork(out io.Writer, format string, record db.WorkRecord) error {
	view := viewWork(record)

	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(view)
	case "table":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Field", "Value"})

	optional := func(name string, value any) {
		switch v := value.(type) {
		case *string:
			if v != nil {
				t.AppendRow(table.Row{name, *v})
			}
		case *int:
			if v != nil {
				t.AppendRow(table.Row{name, *v})
			}
		case *bool:
			if v != nil {
				t.AppendRow(table.Row{name, *v})
			}
		}
	}

	t.AppendRow(table.Row{"Work", view.WorkId})
	optional("Title", view.Title)
	optional("Author", view.Author)
	optional("Rating", view.Rating)
	for _, kind := range []db.TagKind{
		db.TAG_ARCHIVE_WARNING,
		db.TAG_CATEGORY,
		db.TAG_FANDOM,
		db.TAG_RELATIONSHIP,
		db.TAG_CHARACTER,
		db.TAG_ADDITIONAL,
	} {
		if names, ok := view.Tags[string(kind)]; ok {
			t.AppendRow(table.Row{string(kind), strings.Join(names, ", ")})
		}
	}
	optional("Language", view.Language)
	optional("Published", view.Published)
	optional("Updated", view.Status)
	optional("Complete", view.Complete)
	optional("Words", view.Words)
	if view.ChapterNumber != nil {
		total := "?"
		if view.ChapterCount != nil {
			total = fmt.Sprint(*view.ChapterCount)
		}
		t.AppendRow(table.Row{"Chapters", fmt.Sprintf("%d/%s", *view.ChapterNumber, total)})
	}
	optional("Comments", view.Comments)
	optional("Kudos", view.Kudos)
	optional("Bookmarks", view.Bookmarks)
	optional("Hits", view.Hits)

	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
