package ao3

import (
	"context"
	"testing"
	"time"

	"ao3scraper/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSessionFeed(t *testing.T) {
	ctx := context.Background()
	rec := &telemetry.Recorder{}
	a := newArchive(t, map[string][]byte{"/tags/1001/feed.atom": feedAtom})
	session := a.session(t, rec)

	entries, err := session.Feed(ctx, "/tags/1001/feed.atom")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "The Long Way Round", entries[0].Title)
	require.Equal(t, ptr("cartographer"), entries[0].Author)
	require.True(t, time.Date(2023, time.April, 1, 10, 0, 0, 0, time.UTC).Equal(*entries[0].Published))
	require.Equal(t, "Quiet Hours", entries[1].Title)
	require.Nil(t, entries[1].Author)

	works := []*Work{entries[0].Work, entries[1].Work}

	require.Equal(t, int64(123), works[0].WorkId())
	require.Equal(t, int64(55), works[1].WorkId())
	for _, work := range works {
		require.Same(t, session, work.Session())
	}

	title, err := works[0].Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("The Long Way Round"), title)
	author, err := works[0].Author(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("cartographer"), author)

	title, err = works[1].Title(ctx)
	require.NoError(t, err)
	require.Equal(t, ptr("Quiet Hours"), title)

	// only the feed itself was requested
	require.Equal(t, int64(1), a.hits.Load())

	warnings := rec.Reports("warning")
	require.Len(t, warnings, 1)
	require.Equal(t, "ao3: "+report_session_feed, warnings[0].Id)
}

func TestSessionFeedInvalid(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t, map[string][]byte{"/tags/1/feed.atom": []byte("not a feed")})

	_, err := a.session(t, nil).Feed(ctx, "/tags/1/feed.atom")
	require.ErrorIs(t, err, ErrParse)

	_, err = a.session(t, nil).Feed(ctx, "/tags/2/feed.atom")
	require.ErrorIs(t, err, ErrFetch)
}
