package ao3

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_session_feed = "session.feed"

// FeedEntry is a work listed in a feed, with what the feed says about it.
type FeedEntry struct {
	Work      *Work
	Title     string
	Author    *string
	Published *time.Time
	Updated   *time.Time
}

// Feed reads an Atom feed of works (the archive publishes one per tag, at
// `/tags/{id}/feed.atom`) and returns its entries, newest first.
//
// The entry title and author are written into each Work, reading them does not
// fetch the work page. Entries that do not link to a work are skipped.
func (s *Session) Feed(ctx context.Context, href string) ([]FeedEntry, error) {
	ctx, span := tracer.Start(ctx, "session:Feed")
	defer span.End()

	endpoint, contents, err := s.fetch(ctx, href)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch feed")
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewBuffer(contents))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse feed")
		s.tel.ReportBroken(report_session_feed, err, endpoint)
		return nil, &ParseError{Url: endpoint, Reason: "read feed", Err: err}
	}
	span.SetAttributes(attribute.Int("entries", len(feed.Items)))

	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		work, err := NewWork(item.Link, s)
		if err != nil {
			s.tel.ReportWarning(report_session_feed, err, endpoint)
			continue
		}

		entry := FeedEntry{
			Work:      work,
			Title:     strings.TrimSpace(item.Title),
			Published: item.PublishedParsed,
			Updated:   item.UpdatedParsed,
		}
		if entry.Title != "" {
			work.SetTitle(entry.Title)
		}
		if len(item.Authors) > 0 && item.Authors[0].Name != "" {
			author := strings.TrimSpace(item.Authors[0].Name)
			entry.Author = &author
			work.SetAuthor(&author)
		}

		entries = append(entries, entry)
	}
	return entries, nil
}
