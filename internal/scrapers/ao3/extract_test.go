package ao3

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var ignoreSession = cmpopts.IgnoreUnexported(Tag{}, Chapter{})

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestParseChapterProgress(t *testing.T) {
	table := []struct {
		text    string
		number  int
		count   *int
		invalid bool
	}{
		{text: "3/7", number: 3, count: ptr(7)},
		{text: "3/?", number: 3},
		{text: " 1/1 ", number: 1, count: ptr(1)},
		{text: "1,204/2,000", number: 1204, count: ptr(2000)},
		{text: "3", invalid: true},
		{text: "a/7", invalid: true},
		{text: "3/x", invalid: true},
		{text: "1/2/3", invalid: true},
	}

	for _, test := range table {
		number, count, err := parseChapterProgress(test.text)
		if test.invalid {
			require.Error(t, err, test.text)
			continue
		}
		require.NoError(t, err, test.text)
		require.Equal(t, test.number, number, test.text)
		require.Equal(t, test.count, count, test.text)
	}
}

func TestParseCount(t *testing.T) {
	table := []struct {
		text     string
		expected int
		invalid  bool
	}{
		{text: "12,345", expected: 12345},
		{text: "0", expected: 0},
		{text: "1 000", expected: 1000},
		{text: "1\u00a0000", expected: 1000},
		{text: "1,234,567", expected: 1234567},
		{text: "", invalid: true},
		{text: "many", invalid: true},
		{text: "12.5", invalid: true},
	}

	for _, test := range table {
		count, err := parseCount(test.text)
		if test.invalid {
			require.Error(t, err, test.text)
			continue
		}
		require.NoError(t, err, test.text)
		require.Equal(t, test.expected, count, test.text)
	}
}

func TestParseDate(t *testing.T) {
	table := []struct {
		text     string
		expected time.Time
		invalid  bool
	}{
		{text: "2023-04-01", expected: date(2023, time.April, 1)},
		{text: " 2024-02-29\n", expected: date(2024, time.February, 29)},
		{text: "2023-04-01T10:30:00", expected: time.Date(2023, time.April, 1, 10, 30, 0, 0, time.UTC)},
		{text: "2023-04-01T10:30:00Z", expected: time.Date(2023, time.April, 1, 10, 30, 0, 0, time.UTC)},
		{text: "2023-02-30", invalid: true},
		{text: "April 1st", invalid: true},
	}

	for _, test := range table {
		parsed, err := parseDate(test.text)
		if test.invalid {
			require.Error(t, err, test.text)
			continue
		}
		require.NoError(t, err, test.text)
		require.True(t, test.expected.Equal(parsed), test.text)
	}
}

func TestClassKey(t *testing.T) {
	require.Equal(t, "rating tags", classKey("rating tags"))
	require.Equal(t, "rating tags", classKey("  tags   rating "))
	require.Equal(t, "", classKey(""))

	_, ok := metaTable[classKey("tags fandom")]
	require.True(t, ok)
	_, ok = metaTable[classKey("series")]
	require.False(t, ok)
}

func TestParseWorkMultiChapter(t *testing.T) {
	session := &Session{}
	f, err := parseWork(fixtureDocument(t, workMultiHtml), session)
	require.NoError(t, err)

	rating, ok := f.rating.get()
	require.True(t, ok)
	require.Equal(t, "Teen And Up Audiences", rating.Name)
	require.Equal(t, "/tags/Teen%20And%20Up%20Audiences/works", rating.Href)
	require.Same(t, session, rating.Session())

	tagTable := []struct {
		cell     lazy[[]Tag]
		expected []Tag
	}{
		{cell: f.archiveWarnings, expected: []Tag{{Name: "No Archive Warnings Apply", Href: "/tags/No%20Archive%20Warnings%20Apply/works"}}},
		{cell: f.categories, expected: []Tag{{Name: "Gen", Href: "/tags/Gen/works"}, {Name: "F/M", Href: "/tags/F*s*M/works"}}},
		{cell: f.fandoms, expected: []Tag{{Name: "Original Work", Href: "/tags/Original%20Work/works"}}},
		{cell: f.relationships, expected: []Tag{{Name: "Navigator/Pilot", Href: "/tags/Navigator*s*Pilot/works"}}},
		{cell: f.characters, expected: []Tag{{Name: "Navigator", Href: "/tags/Navigator/works"}, {Name: "Pilot", Href: "/tags/Pilot/works"}}},
		{cell: f.additionalTags, expected: []Tag{{Name: "Road Trips", Href: "/tags/Road%20Trips/works"}, {Name: "Slow Burn", Href: "/tags/Slow%20Burn/works"}}},
	}
	for _, test := range tagTable {
		tags, ok := test.cell.get()
		require.True(t, ok)
		diff := cmp.Diff(test.expected, tags, ignoreSession)
		require.Empty(t, diff)
	}

	language, _ := f.language.get()
	require.Equal(t, "English", language)

	published, _ := f.published.get()
	require.True(t, date(2023, time.April, 1).Equal(published))
	status, ok := f.status.get()
	require.True(t, ok)
	require.True(t, date(2024, time.February, 29).Equal(status))
	complete, ok := f.complete.get()
	require.True(t, ok)
	require.False(t, complete)

	countTable := []struct {
		name     string
		cell     lazy[int]
		expected int
	}{
		{name: "words", cell: f.words, expected: 8765},
		{name: "chapter number", cell: f.chapterNumber, expected: 2},
		{name: "comments", cell: f.comments, expected: 31},
		{name: "kudos", cell: f.kudos, expected: 1024},
		{name: "bookmarks", cell: f.bookmarks, expected: 77},
		{name: "hits", cell: f.hits, expected: 12345},
	}
	for _, test := range countTable {
		value, ok := test.cell.get()
		require.True(t, ok, test.name)
		require.Equal(t, test.expected, value, test.name)
	}

	// "2/?" has no declared total
	_, ok = f.chapterCount.get()
	require.False(t, ok)
	require.True(t, f.chapterCount.resolved())

	title, _ := f.title.get()
	require.Equal(t, "The Long Way Round", title)
	author, _ := f.author.get()
	require.Equal(t, "cartographer", author)
	summary, _ := f.summary.get()
	require.Equal(t, "Two people, one car.\n\n          \nNo map.", summary)

	chapters, ok := f.chapters.get()
	require.True(t, ok)
	diff := cmp.Diff([]Chapter{
		{
			Title:   ptr("Chapter 1: Departure"),
			Summary: ptr("They leave."),
			Article: ptr("Chapter Text\n\n          \nThe engine turned over on the third try.\n\n          \nNeither of them said anything."),
		},
		{
			Title:    ptr("Chapter 2: Detour"),
			Notes:    ptr("Thanks for reading!"),
			Article:  ptr("Chapter Text\n\n          \nThe road forked."),
			EndNotes: ptr("More soon."),
		},
	}, chapters, ignoreSession)
	require.Empty(t, diff)
	for _, c := range chapters {
		require.Same(t, session, c.Session())
	}
}

func TestParseWorkSingleChapter(t *testing.T) {
	f, err := parseWork(fixtureDocument(t, workSingleHtml), &Session{})
	require.NoError(t, err)

	// no byline link is absence, everything else still resolves
	require.False(t, f.author.resolved())
	title, _ := f.title.get()
	require.Equal(t, "Quiet Hours", title)
	summary, _ := f.summary.get()
	require.Equal(t, "Nothing happens, slowly.", summary)

	for _, cell := range []lazy[[]Tag]{f.categories, f.relationships, f.characters, f.additionalTags} {
		require.False(t, cell.resolved())
	}

	status, ok := f.status.get()
	require.False(t, ok)
	require.True(t, f.status.resolved())
	require.Zero(t, status)
	complete, ok := f.complete.get()
	require.True(t, ok)
	require.True(t, complete)

	number, _ := f.chapterNumber.get()
	require.Equal(t, 1, number)
	count, ok := f.chapterCount.get()
	require.True(t, ok)
	require.Equal(t, 1, count)
	hits, _ := f.hits.get()
	require.Equal(t, 210, hits)
	require.False(t, f.comments.resolved())
	require.False(t, f.bookmarks.resolved())

	chapters, _ := f.chapters.get()
	diff := cmp.Diff([]Chapter{
		{Article: ptr("The clock ticked.\n\n        \nSnow fell.")},
	}, chapters, ignoreSession)
	require.Empty(t, diff)
}

func TestParseWorkErrors(t *testing.T) {
	table := []struct {
		name string
		page string
	}{
		{
			name: "missing metadata",
			page: `<html><body><div id="workskin"></div></body></html>`,
		},
		{
			name: "missing content",
			page: `<html><body><dl class="work meta group"></dl></body></html>`,
		},
		{
			name: "malformed hits",
			page: `<html><body>
<dl class="work meta group">
  <dd class="stats"><dl class="stats"><dd class="hits">lots</dd></dl></dd>
</dl>
<div id="workskin"></div>
</body></html>`,
		},
		{
			name: "malformed chapters",
			page: `<html><body>
<dl class="work meta group">
  <dd class="stats"><dl class="stats"><dd class="chapters">3 of 7</dd></dl></dd>
</dl>
<div id="workskin"></div>
</body></html>`,
		},
	}

	for _, test := range table {
		_, err := parseWork(fixtureDocument(t, []byte(test.page)), &Session{})
		require.Error(t, err, test.name)
	}
}

func TestParseWorkMinimal(t *testing.T) {
	page := `<html><body>
<dl class="work meta group">
  <dd class="unknown">ignored</dd>
</dl>
<div id="workskin"></div>
</body></html>`

	f, err := parseWork(fixtureDocument(t, []byte(page)), &Session{})
	require.NoError(t, err)

	require.False(t, f.rating.resolved())
	require.False(t, f.title.resolved())
	require.False(t, f.status.resolved())

	chapters, ok := f.chapters.get()
	require.True(t, ok)
	require.Empty(t, chapters)
}

func TestParseWorkInlineMarkup(t *testing.T) {
	page := `<html><body>
<dl class="work meta group"></dl>
<div id="workskin">
  <div class="preface group">
    <div class="summary module"><blockquote class="userstuff"><p>A <em>big</em> day.</p></blockquote></div>
  </div>
  <div id="chapters">
    <div class="chapter">
      <div class="userstuff module" role="article"><p>Hello <em>world</em>, friend.</p><p>Second para.</p></div>
    </div>
  </div>
</div>
</body></html>`

	f, err := parseWork(fixtureDocument(t, []byte(page)), &Session{})
	require.NoError(t, err)

	summary, ok := f.summary.get()
	require.True(t, ok)
	require.Equal(t, "A \nbig\n day.", summary)

	chapters, _ := f.chapters.get()
	require.Len(t, chapters, 1)
	require.Equal(t, ptr("Hello \nworld\n, friend.\nSecond para."), chapters[0].Article)
}
