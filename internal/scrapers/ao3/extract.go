package ao3

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"ao3scraper/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// metaExtractor reads one entry of the work metadata list into f.
type metaExtractor func(dd *goquery.Selection, s *Session, f *fields) error

// statExtractor reads the trimmed text of one statistics entry into f.
type statExtractor func(text string, f *fields) error

// metaTable maps the class set of a `dl.work.meta.group > dd` entry to its extractor.
// Entries with any other class set are ignored.
var metaTable = classTable(map[string]metaExtractor{
	"rating tags": func(dd *goquery.Selection, s *Session, f *fields) error {
		tags := extractTags(dd, s)
		if len(tags) > 0 {
			f.rating.set(tags[0])
		}
		return nil
	},
	"warning tags":      tagList(func(f *fields) *lazy[[]Tag] { return &f.archiveWarnings }),
	"category tags":     tagList(func(f *fields) *lazy[[]Tag] { return &f.categories }),
	"fandom tags":       tagList(func(f *fields) *lazy[[]Tag] { return &f.fandoms }),
	"relationship tags": tagList(func(f *fields) *lazy[[]Tag] { return &f.relationships }),
	"character tags":    tagList(func(f *fields) *lazy[[]Tag] { return &f.characters }),
	"freeform tags":     tagList(func(f *fields) *lazy[[]Tag] { return &f.additionalTags }),
	"language": func(dd *goquery.Selection, _ *Session, f *fields) error {
		f.language.set(strings.TrimSpace(dd.Text()))
		return nil
	},
	"stats": extractStats,
})

// statsTable maps the class of a `dl.stats > dd` entry to its extractor.
var statsTable = classTable(map[string]statExtractor{
	"published": dateStat(func(f *fields) *lazy[time.Time] { return &f.published }),
	"status": func(text string, f *fields) error {
		date, err := parseDate(text)
		if err != nil {
			return err
		}
		f.status.set(date)
		f.complete.set(false)
		return nil
	},
	"words":     countStat(func(f *fields) *lazy[int] { return &f.words }),
	"comments":  countStat(func(f *fields) *lazy[int] { return &f.comments }),
	"kudos":     countStat(func(f *fields) *lazy[int] { return &f.kudos }),
	"bookmarks": countStat(func(f *fields) *lazy[int] { return &f.bookmarks }),
	"hits":      countStat(func(f *fields) *lazy[int] { return &f.hits }),
	"chapters": func(text string, f *fields) error {
		number, count, err := parseChapterProgress(text)
		if err != nil {
			return err
		}
		f.chapterNumber.set(number)
		f.chapterCount.setOptional(count)
		return nil
	},
})

// classKey normalizes a class attribute so that class order does not matter.
func classKey(class string) string {
	classes := strings.Fields(class)
	slices.Sort(classes)
	return strings.Join(classes, " ")
}

func classTable[T any](table map[string]T) map[string]T {
	out := make(map[string]T, len(table))
	for class, value := range table {
		out[classKey(class)] = value
	}
	return out
}

func tagList(cell func(f *fields) *lazy[[]Tag]) metaExtractor {
	return func(dd *goquery.Selection, s *Session, f *fields) error {
		cell(f).set(extractTags(dd, s))
		return nil
	}
}

func extractTags(dd *goquery.Selection, s *Session) []Tag {
	return tagsFromAnchors(htmlutil.GetAnchors(dd.Find("a.tag")), s)
}

func dateStat(cell func(f *fields) *lazy[time.Time]) statExtractor {
	return func(text string, f *fields) error {
		date, err := parseDate(text)
		if err != nil {
			return err
		}
		cell(f).set(date)
		return nil
	}
}

func countStat(cell func(f *fields) *lazy[int]) statExtractor {
	return func(text string, f *fields) error {
		count, err := parseCount(text)
		if err != nil {
			return err
		}
		cell(f).set(count)
		return nil
	}
}

func extractStats(dd *goquery.Selection, _ *Session, f *fields) error {
	stats := dd.Find("dl.stats").First()
	if stats.Length() == 0 {
		stats = dd
	}

	var err error
	stats.Find("dd").EachWithBreak(func(_ int, entry *goquery.Selection) bool {
		extract, ok := statsTable[classKey(entry.AttrOr("class", ""))]
		if !ok {
			return true
		}
		err = extract(strings.TrimSpace(entry.Text()), f)
		if err != nil {
			err = fmt.Errorf("stats %s: %w", entry.AttrOr("class", ""), err)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	if !f.status.resolved() {
		f.status.setAbsent()
		f.complete.set(true)
	}
	return nil
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// parseDate reads an ISO-8601 date, with or without a time part.
func parseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		date, err := time.Parse(layout, text)
		if err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", text)
}

// parseCount reads an integer with grouping separators, "12,345" is 12345.
func parseCount(text string) (int, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, text)
	count, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", text)
	}
	return count, nil
}

// parseChapterProgress reads "N/M", the total is nil when it is the "?" placeholder.
func parseChapterProgress(text string) (number int, count *int, err error) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 2 {
		return 0, nil, fmt.Errorf("invalid chapter progress %q", text)
	}
	number, err = parseCount(parts[0])
	if err != nil {
		return 0, nil, err
	}
	total := strings.TrimSpace(parts[1])
	if total == "?" {
		return number, nil, nil
	}
	value, err := parseCount(total)
	if err != nil {
		return 0, nil, err
	}
	return number, &value, nil
}

// parseWork extracts every lazy attribute present on a work page. Cells left unset
// are attributes the page does not have.
func parseWork(doc *goquery.Document, s *Session) (*fields, error) {
	f := &fields{}

	meta := doc.Find("dl.work.meta.group").First()
	if meta.Length() == 0 {
		return nil, fmt.Errorf("missing work metadata")
	}

	var err error
	meta.ChildrenFiltered("dd").EachWithBreak(func(_ int, dd *goquery.Selection) bool {
		extract, ok := metaTable[classKey(dd.AttrOr("class", ""))]
		if !ok {
			return true
		}
		err = extract(dd, s, f)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	workskin := doc.Find("#workskin").First()
	if workskin.Length() == 0 {
		return nil, fmt.Errorf("missing work content")
	}
	extractPreface(workskin, f)
	f.chapters.set(extractChapters(workskin, s))

	return f, nil
}

func extractPreface(workskin *goquery.Selection, f *fields) {
	preface := workskin.Find("div.preface.group").Not(".chapter").First()

	if title := preface.Find("h2.title.heading").First(); title.Length() > 0 {
		f.title.set(strings.TrimSpace(title.Text()))
	}

	author := preface.Find("h3.byline.heading a[rel=author]").First()
	if author.Length() > 0 {
		f.author.set(htmlutil.CleanText(author.Text()))
	}

	if summary := preface.Find("div.summary.module").First(); summary.Length() > 0 {
		f.summary.set(htmlutil.JoinStrings(summary.Find("blockquote.userstuff")))
	}
}

// quoted joins the text of the first quoted block under sel, nil if there is none.
func quoted(sel *goquery.Selection) *string {
	block := sel.Find("blockquote.userstuff").First()
	if block.Length() == 0 {
		return nil
	}
	text := htmlutil.JoinStrings(block)
	return &text
}

func extractChapters(workskin *goquery.Selection, s *Session) []Chapter {
	chapters := []Chapter{}

	workskin.Find("#chapters").First().ChildrenFiltered("div.chapter").Each(func(_ int, section *goquery.Selection) {
		c := Chapter{session: s}

		if title := section.Find("h3.title").First(); title.Length() > 0 {
			text := htmlutil.CleanText(title.Text())
			c.Title = &text
		}
		if summary := section.Find("div#summary").First(); summary.Length() > 0 {
			c.Summary = quoted(summary)
		}
		if notes := section.Find("div#notes").First(); notes.Length() > 0 {
			c.Notes = quoted(notes)
		}
		if article := section.Find("div[role=article]").First(); article.Length() > 0 {
			text := htmlutil.JoinStrings(article)
			c.Article = &text
		}
		if endNotes := section.Find("div.end.notes.module").First(); endNotes.Length() > 0 {
			c.EndNotes = quoted(endNotes)
		}

		chapters = append(chapters, c)
	})

	if len(chapters) > 0 {
		return chapters
	}

	// single chapter works put the text straight into the content container
	if body := workskin.Find("div.userstuff").First(); body.Length() > 0 {
		text := htmlutil.JoinStrings(body)
		chapters = append(chapters, Chapter{Article: &text, session: s})
	}
	return chapters
}
