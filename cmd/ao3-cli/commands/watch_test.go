package commands

import (
	"bytes"
	"context"
	"testing"

	"ao3scraper/internal/components/db"

	"github.com/stretchr/testify/require"
)

func TestExportFeed(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	store, err := db.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	first, err := exportFeed(ctx, session, store, "/feed.atom")
	require.NoError(t, err)
	require.Equal(t, 1, first.Saved)
	require.Equal(t, 1, first.Failed)

	second, err := exportFeed(ctx, session, store, "/feed.atom")
	require.NoError(t, err)
	require.NotEqual(t, first.ExportId, second.ExportId)

	ids, err := store.ExportWorkIds(ctx, second.ExportId)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)

	stored, err := store.GetWork(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Quiet Hours", *stored.Title)
	require.Equal(t, "someone", *stored.Author)
	require.Equal(t, 1500, *stored.Words)
}

func TestExportFeedMissing(t *testing.T) {
	store, err := db.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = exportFeed(context.Background(), newTestSession(t), store, "/tags/none/feed.atom")
	require.Error(t, err)
}

func TestRenderFeed(t *testing.T) {
	entries, err := newTestSession(t).Feed(context.Background(), "/feed.atom")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var out bytes.Buffer
	renderFeed(&out, entries)
	text := out.String()
	require.Contains(t, text, "Quiet Hours")
	require.Contains(t, text, "someone")
	require.Contains(t, text, "2024-01-02")
	require.Contains(t, text, "Gone")
}
