package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ao3scraper/internal/components/assert"
	"ao3scraper/internal/components/chrono"

	"github.com/google/uuid"
)

var ErrWorkNotFound = errors.New("work not found")

type TagRecord struct {
	Kind TagKind
	Name string
	Href string
}

type ChapterRecord struct {
	Title    *string
	Summary  *string
	Notes    *string
	Article  *string
	EndNotes *string
}

// WorkRecord is a work as it is exported, nil fields were absent from the work page.
type WorkRecord struct {
	WorkId   int64
	Href     string
	ExportId string

	Title    *string
	Author   *string
	Summary  *string
	Rating   *TagRecord
	Language *string

	Published *time.Time
	Status    *time.Time
	Complete  *bool

	Words         *int
	ChapterNumber *int
	ChapterCount  *int
	Comments      *int
	Kudos         *int
	Bookmarks     *int
	Hits          *int

	Tags     []TagRecord
	Chapters []ChapterRecord

	SavedAt time.Time
}

// Store is the sqlite export store for scraped works.
type Store struct {
	db    *sql.DB
	qry   *Queries
	clock chrono.API
}

// Open opens (creating if needed) the export store at path.
func Open(path string) (*Store, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return NewStore(database, chrono.StandardImpl{}), nil
}

// NewStore wraps an already migrated database, clock stamps export runs and saves.
func NewStore(database *sql.DB, clock chrono.API) *Store {
	assert.NotNil(database)
	assert.NotNil(clock)
	return &Store{
		db:    database,
		qry:   New(database),
		clock: clock,
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(qry *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	err = fn(New(tx))
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// BeginExport registers a new export run and returns its id.
func (s *Store) BeginExport(ctx context.Context) (string, error) {
	id := uuid.NewString()
	err := s.qry.CreateExport(ctx, id, s.clock.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("begin export: %w", err)
	}
	return id, nil
}

// SaveWork replaces the stored copy of a work along with its tags and chapters.
func (s *Store) SaveWork(ctx context.Context, record WorkRecord) error {
	if record.SavedAt.IsZero() {
		record.SavedAt = s.clock.Now()
	}

	row := Work{
		WorkID:        record.WorkId,
		Href:          record.Href,
		ExportID:      sql.NullString{String: record.ExportId, Valid: record.ExportId != ""},
		Title:         nullString(record.Title),
		Author:        nullString(record.Author),
		Summary:       nullString(record.Summary),
		Language:      nullString(record.Language),
		Published:     nullTime(record.Published),
		Status:        nullTime(record.Status),
		Words:         nullInt(record.Words),
		ChapterNumber: nullInt(record.ChapterNumber),
		ChapterCount:  nullInt(record.ChapterCount),
		Comments:      nullInt(record.Comments),
		Kudos:         nullInt(record.Kudos),
		Bookmarks:     nullInt(record.Bookmarks),
		Hits:          nullInt(record.Hits),
		SavedAt:       record.SavedAt.Unix(),
	}
	if record.Rating != nil {
		row.RatingName = sql.NullString{String: record.Rating.Name, Valid: true}
		row.RatingHref = sql.NullString{String: record.Rating.Href, Valid: true}
	}
	if record.Complete != nil {
		row.Complete = sql.NullBool{Bool: *record.Complete, Valid: true}
	}

	err := s.withTx(ctx, func(qry *Queries) error {
		err := qry.DeleteWorkTags(ctx, record.WorkId)
		if err != nil {
			return err
		}
		err = qry.DeleteWorkChapters(ctx, record.WorkId)
		if err != nil {
			return err
		}
		err = qry.DeleteWork(ctx, record.WorkId)
		if err != nil {
			return err
		}

		err = qry.InsertWork(ctx, row)
		if err != nil {
			return err
		}

		indices := map[TagKind]int64{}
		for _, tag := range record.Tags {
			err = qry.InsertWorkTag(ctx, WorkTag{
				WorkID: record.WorkId,
				Kind:   string(tag.Kind),
				Idx:    indices[tag.Kind],
				Name:   tag.Name,
				Href:   tag.Href,
			})
			if err != nil {
				return err
			}
			indices[tag.Kind]++
		}

		for i, chapter := range record.Chapters {
			err = qry.InsertChapter(ctx, Chapter{
				WorkID:   record.WorkId,
				Idx:      int64(i),
				Title:    nullString(chapter.Title),
				Summary:  nullString(chapter.Summary),
				Notes:    nullString(chapter.Notes),
				Article:  nullString(chapter.Article),
				EndNotes: nullString(chapter.EndNotes),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save work %d: %w", record.WorkId, err)
	}
	return nil
}

// GetWork reads a stored work back, ErrWorkNotFound if it was never saved.
func (s *Store) GetWork(ctx context.Context, workId int64) (WorkRecord, error) {
	row, err := s.qry.GetWork(ctx, workId)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkRecord{}, ErrWorkNotFound
	}
	if err != nil {
		return WorkRecord{}, fmt.Errorf("get work %d: %w", workId, err)
	}

	record := WorkRecord{
		WorkId:        row.WorkID,
		Href:          row.Href,
		ExportId:      row.ExportID.String,
		Title:         stringPtr(row.Title),
		Author:        stringPtr(row.Author),
		Summary:       stringPtr(row.Summary),
		Language:      stringPtr(row.Language),
		Published:     timePtr(row.Published),
		Status:        timePtr(row.Status),
		Words:         intPtr(row.Words),
		ChapterNumber: intPtr(row.ChapterNumber),
		ChapterCount:  intPtr(row.ChapterCount),
		Comments:      intPtr(row.Comments),
		Kudos:         intPtr(row.Kudos),
		Bookmarks:     intPtr(row.Bookmarks),
		Hits:          intPtr(row.Hits),
		SavedAt:       time.Unix(row.SavedAt, 0).UTC(),
	}
	if row.RatingName.Valid {
		record.Rating = &TagRecord{
			Kind: TAG_RATING,
			Name: row.RatingName.String,
			Href: row.RatingHref.String,
		}
	}
	if row.Complete.Valid {
		complete := row.Complete.Bool
		record.Complete = &complete
	}

	tags, err := s.qry.GetWorkTags(ctx, workId)
	if err != nil {
		return WorkRecord{}, fmt.Errorf("get work %d tags: %w", workId, err)
	}
	for _, tag := range tags {
		record.Tags = append(record.Tags, TagRecord{
			Kind: TagKind(tag.Kind),
			Name: tag.Name,
			Href: tag.Href,
		})
	}

	chapters, err := s.qry.GetWorkChapters(ctx, workId)
	if err != nil {
		return WorkRecord{}, fmt.Errorf("get work %d chapters: %w", workId, err)
	}
	for _, chapter := range chapters {
		record.Chapters = append(record.Chapters, ChapterRecord{
			Title:    stringPtr(chapter.Title),
			Summary:  stringPtr(chapter.Summary),
			Notes:    stringPtr(chapter.Notes),
			Article:  stringPtr(chapter.Article),
			EndNotes: stringPtr(chapter.EndNotes),
		})
	}

	return record, nil
}

// ExportWorkIds lists the works saved under an export run.
func (s *Store) ExportWorkIds(ctx context.Context, exportId string) ([]int64, error) {
	return s.qry.GetExportWorkIds(ctx, exportId)
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullTime(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: value.Unix(), Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	out := int(value.Int64)
	return &out
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	out := time.Unix(value.Int64, 0).UTC()
	return &out
}
