package ao3

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_work_load = "work.load"

type loadState uint8

const (
	stateUnfetched loadState = iota
	stateFetching
	stateFetched
	stateFailed
)

// Work is a story on the archive, or one chapter of it when constructed from a
// chapter url.
//
// The identifiers are parsed from the href on construction. Every other attribute is
// read from the work page, which is fetched and parsed once, the first time any of
// them is read. Attributes missing from the page read as nil without an error.
// A failed fetch is terminal: the error is kept and returned by every later read
// of an attribute that has not been set explicitly.
//
// A Work is safe for concurrent use, concurrent first reads share a single fetch.
type Work struct {
	session   *Session
	href      string
	workId    int64
	chapterId *int64

	mu     sync.Mutex
	state  loadState
	err    error
	done   chan struct{}
	fields fields
}

// NewWork parses the identifiers out of href, a nil session means a fresh
// DefaultSession. Works that should share cookies, connections and the page cache
// must be given the same session.
func NewWork(href string, session *Session) (*Work, error) {
	workId, chapterId, err := ParseHref(href)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = DefaultSession()
	}
	return &Work{
		session:   session,
		href:      href,
		workId:    workId,
		chapterId: chapterId,
	}, nil
}

func (w *Work) Href() string {
	return w.href
}

func (w *Work) Session() *Session {
	return w.session
}

func (w *Work) WorkId() int64 {
	return w.workId
}

// ChapterId is nil unless the work was constructed from a chapter url.
func (w *Work) ChapterId() *int64 {
	if w.chapterId == nil {
		return nil
	}
	id := *w.chapterId
	return &id
}

func (w *Work) String() string {
	if w.chapterId != nil {
		return fmt.Sprintf("Work(work_id=%d, chapter_id=%d)", w.workId, *w.chapterId)
	}
	return fmt.Sprintf("Work(work_id=%d)", w.workId)
}

// Loaded reports whether the work page has been fetched and parsed successfully.
func (w *Work) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == stateFetched
}

// Load fetches and parses the work page if that has not happened yet.
//
// Cancelling ctx only stops the wait, the fetch itself carries on (bounded by the
// session timeout) so that other readers of the work still get its result.
func (w *Work) Load(ctx context.Context) error {
	w.mu.Lock()
	switch w.state {
	case stateFetched:
		w.mu.Unlock()
		return nil
	case stateFailed:
		err := w.err
		w.mu.Unlock()
		return err
	case stateUnfetched:
		w.state = stateFetching
		w.done = make(chan struct{})
		go w.fetch(context.WithoutCancel(ctx))
	}
	done := w.done
	w.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Work) fetch(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "work:fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("href", w.href),
		attribute.Int64("work_id", w.workId),
	)

	w.session.tel.ReportDebug("load work", w.href)

	parsed, err := w.fetchAndParse(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	defer close(w.done)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load work")

		w.state = stateFailed
		w.err = err
		return
	}

	w.fields.fill(parsed)
	w.state = stateFetched
}

func (w *Work) fetchAndParse(ctx context.Context) (*fields, error) {
	doc, err := w.session.Page(ctx, w.href)
	if err != nil {
		return nil, err
	}
	// fetch and document errors are reported by the session
	parsed, err := parseWork(doc, w.session)
	if err != nil {
		endpoint, _ := w.session.Resolve(w.href)
		err = &ParseError{Url: endpoint, Reason: "extract work", Err: err}
		w.session.tel.ReportBroken(report_work_load, err, w.href)
		return nil, err
	}
	return parsed, nil
}

// read returns the value of cell, loading the work first if the cell is unresolved.
func read[T any](ctx context.Context, w *Work, cell *lazy[T]) (T, bool, error) {
	w.mu.Lock()
	if cell.resolved() {
		value, ok := cell.get()
		w.mu.Unlock()
		return value, ok, nil
	}
	w.mu.Unlock()

	err := w.Load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	value, ok := cell.get()
	return value, ok, nil
}

func readOptional[T any](ctx context.Context, w *Work, cell *lazy[T]) (*T, error) {
	value, ok, err := read(ctx, w, cell)
	if err != nil || !ok {
		return nil, err
	}
	return &value, nil
}

// readList returns a copy of the cached slice, nil when the page has no such list.
func readList[T any](ctx context.Context, w *Work, cell *lazy[[]T]) ([]T, error) {
	value, _, err := read(ctx, w, cell)
	if err != nil {
		return nil, err
	}
	return slices.Clone(value), nil
}

func write[T any](w *Work, cell *lazy[T], value T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	cell.set(value)
}

func writeOptional[T any](w *Work, cell *lazy[T], value *T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	cell.setOptional(value)
}

// Rating is the first rating tag of the work. The archive shows a single rating,
// any further rating links are ignored.
func (w *Work) Rating(ctx context.Context) (*Tag, error) {
	return readOptional(ctx, w, &w.fields.rating)
}

func (w *Work) ArchiveWarnings(ctx context.Context) ([]Tag, error) {
	return readList(ctx, w, &w.fields.archiveWarnings)
}

func (w *Work) Categories(ctx context.Context) ([]Tag, error) {
	return readList(ctx, w, &w.fields.categories)
}

func (w *Work) Fandoms(ctx context.Context) ([]Tag, error) {
	return readList(ctx, w, &w.fields.fandoms)
}

func (w *Work) Relationships(ctx context.Context) ([]Tag, error) {
	return readList(ctx, w, &w.fields.relationships)
}

func (w *Work) Characters(ctx context.Context) ([]Tag, error) {
	return readList(ctx, w, &w.fields.characters)
}

// AdditionalTags are the freeform tags of the work.
func (w *Work) AdditionalTags(ctx context.Context) ([]Tag, error) {
	return readList(ctx, w, &w.fields.additionalTags)
}

func (w *Work) Language(ctx context.Context) (*string, error) {
	return readOptional(ctx, w, &w.fields.language)
}

func (w *Work) Published(ctx context.Context) (*time.Time, error) {
	return readOptional(ctx, w, &w.fields.published)
}

// Status is the date of the last update of a work in progress, nil for complete works.
func (w *Work) Status(ctx context.Context) (*time.Time, error) {
	return readOptional(ctx, w, &w.fields.status)
}

// Complete is true when the statistics carry no in-progress status date.
func (w *Work) Complete(ctx context.Context) (*bool, error) {
	return readOptional(ctx, w, &w.fields.complete)
}

func (w *Work) Words(ctx context.Context) (*int, error) {
	return readOptional(ctx, w, &w.fields.words)
}

// ChapterNumber is the number of chapters posted so far.
func (w *Work) ChapterNumber(ctx context.Context) (*int, error) {
	return readOptional(ctx, w, &w.fields.chapterNumber)
}

// ChapterCount is the declared total of chapters, nil when the author has not declared one.
func (w *Work) ChapterCount(ctx context.Context) (*int, error) {
	return readOptional(ctx, w, &w.fields.chapterCount)
}

func (w *Work) Comments(ctx context.Context) (*int, error) {
	return readOptional(ctx, w, &w.fields.comments)
}

func (w *Work) Kudos(ctx context.Context) (*int, error) {
	return readOptional(ctx, w, &w.fields.kudos)
}

func (w *Work) Bookmarks(ctx context.Context) (*int, error) {
	return readOptional(ctx, w, &w.fields.bookmarks)
}

func (w *Work) Hits(ctx context.Context) (*int, error) {
	return readOptional(ctx, w, &w.fields.hits)
}

// Author is nil for anonymous works and works without a listed author.
func (w *Work) Author(ctx context.Context) (*string, error) {
	return readOptional(ctx, w, &w.fields.author)
}

func (w *Work) Title(ctx context.Context) (*string, error) {
	return readOptional(ctx, w, &w.fields.title)
}

func (w *Work) Summary(ctx context.Context) (*string, error) {
	return readOptional(ctx, w, &w.fields.summary)
}

// Chapters are in page order.
func (w *Work) Chapters(ctx context.Context) ([]Chapter, error) {
	return readList(ctx, w, &w.fields.chapters)
}

// The setters store a value directly, it is returned by the matching getter
// without fetching and is kept when the page is parsed later.

func (w *Work) SetRating(rating Tag) { write(w, &w.fields.rating, rating) }

func (w *Work) SetArchiveWarnings(tags []Tag) { write(w, &w.fields.archiveWarnings, slices.Clone(tags)) }

func (w *Work) SetCategories(tags []Tag) { write(w, &w.fields.categories, slices.Clone(tags)) }

func (w *Work) SetFandoms(tags []Tag) { write(w, &w.fields.fandoms, slices.Clone(tags)) }

func (w *Work) SetRelationships(tags []Tag) { write(w, &w.fields.relationships, slices.Clone(tags)) }

func (w *Work) SetCharacters(tags []Tag) { write(w, &w.fields.characters, slices.Clone(tags)) }

func (w *Work) SetAdditionalTags(tags []Tag) { write(w, &w.fields.additionalTags, slices.Clone(tags)) }

func (w *Work) SetLanguage(language string) { write(w, &w.fields.language, language) }

func (w *Work) SetPublished(published time.Time) { write(w, &w.fields.published, published) }

// SetStatus with nil marks the work as having no in-progress status date.
func (w *Work) SetStatus(status *time.Time) { writeOptional(w, &w.fields.status, status) }

func (w *Work) SetComplete(complete bool) { write(w, &w.fields.complete, complete) }

func (w *Work) SetWords(words int) { write(w, &w.fields.words, words) }

func (w *Work) SetChapterNumber(number int) { write(w, &w.fields.chapterNumber, number) }

// SetChapterCount with nil marks the chapter total as undeclared.
func (w *Work) SetChapterCount(count *int) { writeOptional(w, &w.fields.chapterCount, count) }

func (w *Work) SetComments(comments int) { write(w, &w.fields.comments, comments) }

func (w *Work) SetKudos(kudos int) { write(w, &w.fields.kudos, kudos) }

func (w *Work) SetBookmarks(bookmarks int) { write(w, &w.fields.bookmarks, bookmarks) }

func (w *Work) SetHits(hits int) { write(w, &w.fields.hits, hits) }

// SetAuthor with nil marks the work as having no listed author.
func (w *Work) SetAuthor(author *string) { writeOptional(w, &w.fields.author, author) }

func (w *Work) SetTitle(title string) { write(w, &w.fields.title, title) }

func (w *Work) SetSummary(summary string) { write(w, &w.fields.summary, summary) }

func (w *Work) SetChapters(chapters []Chapter) { write(w, &w.fields.chapters, slices.Clone(chapters)) }
