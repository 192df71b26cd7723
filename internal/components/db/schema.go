package db

import _ "embed"

//go:embed schema.sql
var Schema string

// TagKind is the metadata entry a tag was listed under.
type TagKind string

const (
	TAG_RATING          TagKind = "rating"
	TAG_ARCHIVE_WARNING TagKind = "archive_warning"
	TAG_CATEGORY        TagKind = "category"
	TAG_FANDOM          TagKind = "fandom"
	TAG_RELATIONSHIP    TagKind = "relationship"
	TAG_CHARACTER       TagKind = "character"
	TAG_ADDITIONAL      TagKind = "additional"
)
