package ao3

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"ao3scraper/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWorkSingleFetch(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/works/123": workMultiHtml})
	work, err := a.session(t, nil).Work("/works/123")
	require.NoError(t, err)

	hits, err := work.Hits(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(12345), hits)

	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("The Long Way Round"), title)

	author, err := work.Author(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("cartographer"), author)

	rating, err := work.Rating(ctx)
	require.NoError(t, err)
	require.Equal(t, "Teen And Up Audiences", rating.Name)

	fandoms, err := work.Fandoms(ctx)
	require.NoError(t, err)
	diff := cmp.Diff([]Tag{{Name: "Original Work", Href: "/tags/Original%20Work/works"}}, fandoms, ignoreSession)
	require.Empty(t, diff)

	complete, err := work.Complete(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(false), complete)

	status, err := work.Status(ctx)
	require.NoError(t, err)
	require.True(t, date(2024, time.February, 29).Equal(*status))

	number, err := work.ChapterNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(2), number)

	count, err := work.ChapterCount(ctx)
	require.NoError(t, err)
	require.Nil(t, count)

	chapters, err := work.Chapters(ctx)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	require.Equal(t, ptr("Chapter 1: Departure"), chapters[0].Title)
	require.Equal(t, ptr("Chapter 2: Detour"), chapters[1].Title)

	require.True(t, work.Loaded())
	require.Equal(t, int64(1), a.hits.Load())
	require.Equal(t, []string{"view_adult=true"}, a.recordedQueries())
}

func TestWorkConcurrentFirstReads(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/works/123": workMultiHtml})
	release := make(chan struct{})
	a.release = release
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()

	work, err := a.session(t, nil).Work("/works/123")
	require.NoError(t, err)

	readers := []func() error{
		func() error { _, err := work.Title(ctx); return err },
		func() error { _, err := work.Hits(ctx); return err },
		func() error { _, err := work.Kudos(ctx); return err },
		func() error { _, err := work.Chapters(ctx); return err },
		func() error { _, err := work.Fandoms(ctx); return err },
		func() error { _, err := work.Summary(ctx); return err },
		func() error { _, err := work.Published(ctx); return err },
		func() error { _, err := work.Language(ctx); return err },
	}

	var wg sync.WaitGroup
	errs := make([]error, len(readers)*4)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = readers[i%len(readers)]()
		}()
	}

	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), a.hits.Load())
}

func TestWorkCacheStability(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/works/123": workMultiHtml})
	session := a.session(t, nil)

	work, err := session.Work("/works/123")
	require.NoError(t, err)

	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("The Long Way Round"), title)

	a.setPage("/works/123", workSingleHtml)

	title, err = work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("The Long Way Round"), title)
	author, err := work.Author(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("cartographer"), author)
	require.Equal(t, int64(1), a.hits.Load())

	// a new work is a new cache
	other, err := session.Work("/works/123")
	require.NoError(t, err)
	title, err = other.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("Quiet Hours"), title)
	require.Equal(t, int64(2), a.hits.Load())
}

func TestWorkReturnsCopies(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/works/123": workMultiHtml})
	work, err := a.session(t, nil).Work("/works/123")
	require.NoError(t, err)

	tags, err := work.AdditionalTags(ctx)
	require.NoError(t, err)
	tags[0].Name = "changed"

	tags, err = work.AdditionalTags(ctx)
	require.NoError(t, err)
	require.Equal(t, "Road Trips", tags[0].Name)
}

func TestWorkWriteBypass(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/works/123": workMultiHtml})
	work, err := a.session(t, nil).Work("/works/123")
	require.NoError(t, err)

	work.SetTitle("X")
	work.SetAuthor(nil)
	work.SetChapterCount(ptr(9))
	work.SetCategories([]Tag{{Name: "Other"}})

	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("X"), title)
	author, err := work.Author(ctx)
	require.NoError(t, err)
	require.Nil(t, author)
	count, err := work.ChapterCount(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(9), count)

	require.Equal(t, int64(0), a.hits.Load())
	require.False(t, work.Loaded())

	// fetching for another attribute keeps the written ones
	hits, err := work.Hits(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(12345), hits)
	require.Equal(t, int64(1), a.hits.Load())

	title, err = work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("X"), title)
	author, err = work.Author(ctx)
	require.NoError(t, err)
	require.Nil(t, author)
	categories, err := work.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []Tag{{Name: "Other"}}, categories)

	// writes after the fetch replace the parsed value
	work.SetHits(1)
	hits, err = work.Hits(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(1), hits)
	require.Equal(t, int64(1), a.hits.Load())
}

func TestWorkAbsentFields(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/works/55": workSingleHtml})
	work, err := a.session(t, nil).Work("/works/55")
	require.NoError(t, err)

	author, err := work.Author(ctx)
	require.NoError(t, err)
	require.Nil(t, author)

	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("Quiet Hours"), title)

	status, err := work.Status(ctx)
	require.NoError(t, err)
	require.Nil(t, status)
	complete, err := work.Complete(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(true), complete)

	categories, err := work.Categories(ctx)
	require.NoError(t, err)
	require.Nil(t, categories)
	comments, err := work.Comments(ctx)
	require.NoError(t, err)
	require.Nil(t, comments)

	chapters, err := work.Chapters(ctx)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	require.Equal(t, ptr("The clock ticked.\n\n        \nSnow fell."), chapters[0].Article)

	require.Equal(t, int64(1), a.hits.Load())
}

func TestWorkChapterHref(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/works/123/chapters/456": workMultiHtml})
	work, err := a.session(t, nil).Work("/works/123/chapters/456")
	require.NoError(t, err)

	words, err := work.Words(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr(8765), words)
	require.Equal(t, int64(1), a.hits.Load())
}

func TestWorkFetchFailure(t *testing.T) {
	ctx := context.Background()
	rec := &telemetry.Recorder{}
	a := newArchive(t, map[string][]byte{})
	work, err := a.session(t, rec).Work("/works/404")
	require.NoError(t, err)
	work.SetTitle("kept")

	_, err = work.Hits(ctx)
	require.ErrorIs(t, err, ErrFetch)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	require.Equal(t, a.server.URL+"/works/404", fetchErr.Url)

	// the failure is cached
	_, err = work.Author(ctx)
	require.ErrorIs(t, err, ErrFetch)
	require.Equal(t, fetchErr, err)
	require.ErrorIs(t, work.Load(ctx), ErrFetch)
	require.Equal(t, int64(1), a.hits.Load())
	require.False(t, work.Loaded())

	// written attributes never needed the page
	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("kept"), title)

	// reported once, by the session
	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "ao3: "+report_session_page, broken[0].Id)
}

func TestWorkParseFailure(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{
		"/works/1": []byte(`<html><body><p>This work could have adult content.</p></body></html>`),
	})
	rec := &telemetry.Recorder{}
	work, err := a.session(t, rec).Work("/works/1")
	require.NoError(t, err)

	_, err = work.Title(ctx)
	require.ErrorIs(t, err, ErrParse)
	require.NotErrorIs(t, err, ErrFetch)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, "extract work", parseErr.Reason)
	require.Equal(t, a.server.URL+"/works/1", parseErr.Url)

	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "ao3: "+report_work_load, broken[0].Id)
}

func TestWorkCanceledWait(t *testing.T) {
	a := newArchive(t, map[string][]byte{"/works/123": workMultiHtml})
	release := make(chan struct{})
	a.release = release

	work, err := a.session(t, nil).Work("/works/123")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = work.Title(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, work.Loaded())

	// the fetch started by the canceled reader still completes for everyone else
	close(release)
	title, err := work.Title(context.Background())
	require.NoError(t, err)
	require.Equal(t, ptr("The Long Way Round"), title)
	require.Equal(t, int64(1), a.hits.Load())
}
