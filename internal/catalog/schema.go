// Package catalog exports the derived site into a SQLite database that static
// search front-ends and external tools can query. The file is rebuilt from
// scratch on every build; nothing is ever read back into the pipeline.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE posts (
	slug        TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	title       TEXT NOT NULL,
	date        TEXT NOT NULL,
	category    TEXT NOT NULL,
	pinned      INTEGER NOT NULL DEFAULT 0,
	position    INTEGER NOT NULL,
	author      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE post_tags (
	slug     TEXT NOT NULL REFERENCES posts(slug),
	tag      TEXT NOT NULL,
	position INTEGER NOT NULL,
	UNIQUE(slug, tag)
);

CREATE TABLE headings (
	slug     TEXT NOT NULL REFERENCES posts(slug),
	position INTEGER NOT NULL,
	level    INTEGER NOT NULL,
	anchor   TEXT NOT NULL,
	text     TEXT NOT NULL,
	parent   INTEGER,
	UNIQUE(slug, anchor)
);

CREATE TABLE build (
	fingerprint TEXT NOT NULL,
	posts       INTEGER NOT NULL,
	skipped     INTEGER NOT NULL
);

CREATE INDEX idx_post_tags_tag ON post_tags(tag);
CREATE INDEX idx_posts_category ON posts(category);
`

// DB wraps a sql.DB holding an exported catalog.
type DB struct {
	conn *sql.DB
}

// Open opens an existing catalog file.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	return &DB{conn: conn}, nil
}

// create replaces any file at dsn with an empty catalog.
func create(dsn string) (*DB, error) {
	if err := os.Remove(dsn); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("catalog: remove old file: %w", err)
	}
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.Exec(coreSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := initFTS(db.conn); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return db, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
