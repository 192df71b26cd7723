package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

var remoteSchemes = []string{"libsql://", "wss://", "ws://", "https://", "http://"}

// IsRemote reports whether path names a libsql server rather than a local file.
func IsRemote(path string) bool {
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}

// OpenDB opens the database at path and applies Schema. path is either a sqlite file
// (":memory:" for a private in-memory one) or the url of a libsql server, with the
// auth token passed as the `authToken` query parameter.
func OpenDB(path string) (*sql.DB, error) {
	if IsRemote(path) {
		return openRemote(path)
	}

	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// sqlite allows a single writer, a single connection also keeps an in-memory
	// database alive for the lifetime of the pool
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		_, err = db.Exec(pragma)
		if err != nil {
			db.Close()
			return nil, wrapOpenDB(err)
		}
	}

	return applySchema(db)
}

// the server owns its journal mode and foreign key settings
func openRemote(url string) (*sql.DB, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}
	return applySchema(db)
}

func applySchema(db *sql.DB) (*sql.DB, error) {
	_, err := db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(fmt.Errorf("apply schema: %w", err))
	}
	return db, nil
}
