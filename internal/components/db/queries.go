package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

const createExport = `insert into exports(id, started_at) values (?, ?)`

func (q *Queries) CreateExport(ctx context.Context, id string, startedAt int64) error {
	_, err := q.db.ExecContext(ctx, createExport, id, startedAt)
	return err
}

type Work struct {
	WorkID        int64
	Href          string
	ExportID      sql.NullString
	Title         sql.NullString
	Author        sql.NullString
	Summary       sql.NullString
	RatingName    sql.NullString
	RatingHref    sql.NullString
	Language      sql.NullString
	Published     sql.NullInt64
	Status        sql.NullInt64
	Complete      sql.NullBool
	Words         sql.NullInt64
	ChapterNumber sql.NullInt64
	ChapterCount  sql.NullInt64
	Comments      sql.NullInt64
	Kudos         sql.NullInt64
	Bookmarks     sql.NullInt64
	Hits          sql.NullInt64
	SavedAt       int64
}

const deleteWork = `delete from works where work_id = ?`

func (q *Queries) DeleteWork(ctx context.Context, workID int64) error {
	_, err := q.db.ExecContext(ctx, deleteWork, workID)
	return err
}

const deleteWorkTags = `delete from work_tags where work_id = ?`

func (q *Queries) DeleteWorkTags(ctx context.Context, workID int64) error {
	_, err := q.db.ExecContext(ctx, deleteWorkTags, workID)
	return err
}

const deleteWorkChapters = `delete from chapters where work_id = ?`

func (q *Queries) DeleteWorkChapters(ctx context.Context, workID int64) error {
	_, err := q.db.ExecContext(ctx, deleteWorkChapters, workID)
	return err
}

const insertWork = `insert into works(
    work_id, href, export_id, title, author, summary, rating_name, rating_href,
    language, published, status, complete, words, chapter_number, chapter_count,
    comments, kudos, bookmarks, hits, saved_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertWork(ctx context.Context, arg Work) error {
	_, err := q.db.ExecContext(ctx, insertWork,
		arg.WorkID,
		arg.Href,
		arg.ExportID,
		arg.Title,
		arg.Author,
		arg.Summary,
		arg.RatingName,
		arg.RatingHref,
		arg.Language,
		arg.Published,
		arg.Status,
		arg.Complete,
		arg.Words,
		arg.ChapterNumber,
		arg.ChapterCount,
		arg.Comments,
		arg.Kudos,
		arg.Bookmarks,
		arg.Hits,
		arg.SavedAt,
	)
	return err
}

const getWork = `select
    work_id, href, export_id, title, author, summary, rating_name, rating_href,
    language, published, status, complete, words, chapter_number, chapter_count,
    comments, kudos, bookmarks, hits, saved_at
from works where work_id = ?`

func (q *Queries) GetWork(ctx context.Context, workID int64) (Work, error) {
	row := q.db.QueryRowContext(ctx, getWork, workID)
	var i Work
	err := row.Scan(
		&i.WorkID,
		&i.Href,
		&i.ExportID,
		&i.Title,
		&i.Author,
		&i.Summary,
		&i.RatingName,
		&i.RatingHref,
		&i.Language,
		&i.Published,
		&i.Status,
		&i.Complete,
		&i.Words,
		&i.ChapterNumber,
		&i.ChapterCount,
		&i.Comments,
		&i.Kudos,
		&i.Bookmarks,
		&i.Hits,
		&i.SavedAt,
	)
	return i, err
}

const getExportWorkIds = `select work_id from works where export_id = ? order by work_id`

func (q *Queries) GetExportWorkIds(ctx context.Context, exportID string) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, getExportWorkIds, exportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var workID int64
		if err := rows.Scan(&workID); err != nil {
			return nil, err
		}
		items = append(items, workID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type WorkTag struct {
	WorkID int64
	Kind   string
	Idx    int64
	Name   string
	Href   string
}

const insertWorkTag = `insert into work_tags(work_id, kind, idx, name, href) values (?, ?, ?, ?, ?)`

func (q *Queries) InsertWorkTag(ctx context.Context, arg WorkTag) error {
	_, err := q.db.ExecContext(ctx, insertWorkTag,
		arg.WorkID,
		arg.Kind,
		arg.Idx,
		arg.Name,
		arg.Href,
	)
	return err
}

const getWorkTags = `select work_id, kind, idx, name, href from work_tags
where work_id = ? order by rowid`

func (q *Queries) GetWorkTags(ctx context.Context, workID int64) ([]WorkTag, error) {
	rows, err := q.db.QueryContext(ctx, getWorkTags, workID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WorkTag
	for rows.Next() {
		var i WorkTag
		if err := rows.Scan(
			&i.WorkID,
			&i.Kind,
			&i.Idx,
			&i.Name,
			&i.Href,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type Chapter struct {
	WorkID   int64
	Idx      int64
	Title    sql.NullString
	Summary  sql.NullString
	Notes    sql.NullString
	Article  sql.NullString
	EndNotes sql.NullString
}

const insertChapter = `insert into chapters(work_id, idx, title, summary, notes, article, end_notes)
values (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertChapter(ctx context.Context, arg Chapter) error {
	_, err := q.db.ExecContext(ctx, insertChapter,
		arg.WorkID,
		arg.Idx,
		arg.Title,
		arg.Summary,
		arg.Notes,
		arg.Article,
		arg.EndNotes,
	)
	return err
}

const getWorkChapters = `select work_id, idx, title, summary, notes, article, end_notes
from chapters where work_id = ? order by idx`

func (q *Queries) GetWorkChapters(ctx context.Context, workID int64) ([]Chapter, error) {
	rows, err := q.db.QueryContext(ctx, getWorkChapters, workID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Chapter
	for rows.Next() {
		var i Chapter
		if err := rows.Scan(
			&i.WorkID,
			&i.Idx,
			&i.Title,
			&i.Summary,
			&i.Notes,
			&i.Article,
			&i.EndNotes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
