package commands

import (
	"context"

	"ao3scraper/internal/components/db"
	"ao3scraper/internal/scrapers/ao3"
)

func tagRecords(kind db.TagKind, tags []ao3.Tag) []db.TagRecord {
	records := make([]db.TagRecord, len(tags))
	for i, t := range tags {
		records[i] = db.TagRecord{Kind: kind, Name: t.Name, Href: t.Href}
	}
	return records
}

// recordFromWork reads every attribute of w, fetching it if needed.
func recordFromWork(ctx context.Context, w *ao3.Work) (db.WorkRecord, error) {
	err := w.Load(ctx)
	if err != nil {
		return db.WorkRecord{}, err
	}

	// once loaded, reads cannot fail
	record := db.WorkRecord{
		WorkId: w.WorkId(),
		Href:   w.Href(),
	}
	record.Title, _ = w.Title(ctx)
	record.Author, _ = w.Author(ctx)
	record.Summary, _ = w.Summary(ctx)
	record.Language, _ = w.Language(ctx)
	record.Published, _ = w.Published(ctx)
	record.Status, _ = w.Status(ctx)
	record.Complete, _ = w.Complete(ctx)
	record.Words, _ = w.Words(ctx)
	record.ChapterNumber, _ = w.ChapterNumber(ctx)
	record.ChapterCount, _ = w.ChapterCount(ctx)
	record.Comments, _ = w.Comments(ctx)
	record.Kudos, _ = w.Kudos(ctx)
	record.Bookmarks, _ = w.Bookmarks(ctx)
	record.Hits, _ = w.Hits(ctx)

	if rating, _ := w.Rating(ctx); rating != nil {
		record.Rating = &db.TagRecord{Kind: db.TAG_RATING, Name: rating.Name, Href: rating.Href}
	}

	tagLists := []struct {
		kind db.TagKind
		read func(context.Context) ([]ao3.Tag, error)
	}{
		{kind: db.TAG_ARCHIVE_WARNING, read: w.ArchiveWarnings},
		{kind: db.TAG_CATEGORY, read: w.Categories},
		{kind: db.TAG_FANDOM, read: w.Fandoms},
		{kind: db.TAG_RELATIONSHIP, read: w.Relationships},
		{kind: db.TAG_CHARACTER, read: w.Characters},
		{kind: db.TAG_ADDITIONAL, read: w.AdditionalTags},
	}
	for _, list := range tagLists {
		tags, _ := list.read(ctx)
		record.Tags = append(record.Tags, tagRecords(list.kind, tags)...)
	}

	chapters, _ := w.Chapters(ctx)
	for _, c := range chapters {
		record.Chapters = append(record.Chapters, db.ChapterRecord{
			Title:    c.Title,
			Summary:  c.Summary,
			Notes:    c.Notes,
			Article:  c.Article,
			EndNotes: c.EndNotes,
		})
	}

	return record, nil
}
