package ao3

import "time"

type cellState uint8

const (
	cellUnset cellState = iota
	cellPresent
	cellAbsent
)

// lazy is a single cached attribute of a Work. It starts unset, and ends up either
// holding a value or being explicitly absent once the page has been parsed.
type lazy[T any] struct {
	value T
	state cellState
}

func (c *lazy[T]) set(value T) {
	c.value = value
	c.state = cellPresent
}

func (c *lazy[T]) setAbsent() {
	var zero T
	c.value = zero
	c.state = cellAbsent
}

func (c *lazy[T]) setOptional(value *T) {
	if value == nil {
		c.setAbsent()
		return
	}
	c.set(*value)
}

func (c *lazy[T]) resolved() bool {
	return c.state != cellUnset
}

func (c *lazy[T]) get() (T, bool) {
	return c.value, c.state == cellPresent
}

// fill resolves c from a parsed cell, values written before the parse are kept.
func (c *lazy[T]) fill(from lazy[T]) {
	if c.resolved() {
		return
	}
	if from.state == cellPresent {
		c.set(from.value)
		return
	}
	c.setAbsent()
}

// fields holds every lazily resolved attribute of a Work.
type fields struct {
	rating          lazy[Tag]
	archiveWarnings lazy[[]Tag]
	categories      lazy[[]Tag]
	fandoms         lazy[[]Tag]
	relationships   lazy[[]Tag]
	characters      lazy[[]Tag]
	additionalTags  lazy[[]Tag]
	language        lazy[string]

	published     lazy[time.Time]
	status        lazy[time.Time]
	complete      lazy[bool]
	words         lazy[int]
	chapterNumber lazy[int]
	chapterCount  lazy[int]
	comments      lazy[int]
	kudos         lazy[int]
	bookmarks     lazy[int]
	hits          lazy[int]

	author  lazy[string]
	title   lazy[string]
	summary lazy[string]

	chapters lazy[[]Chapter]
}

// fill resolves every cell of f, after it returns no cell is unset.
func (f *fields) fill(from *fields) {
	f.rating.fill(from.rating)
	f.archiveWarnings.fill(from.archiveWarnings)
	f.categories.fill(from.categories)
	f.fandoms.fill(from.fandoms)
	f.relationships.fill(from.relationships)
	f.characters.fill(from.characters)
	f.additionalTags.fill(from.additionalTags)
	f.language.fill(from.language)

	f.published.fill(from.published)
	f.status.fill(from.status)
	f.complete.fill(from.complete)
	f.words.fill(from.words)
	f.chapterNumber.fill(from.chapterNumber)
	f.chapterCount.fill(from.chapterCount)
	f.comments.fill(from.comments)
	f.kudos.fill(from.kudos)
	f.bookmarks.fill(from.bookmarks)
	f.hits.fill(from.hits)

	f.author.fill(from.author)
	f.title.fill(from.title)
	f.summary.fill(from.summary)

	f.chapters.fill(from.chapters)
}
