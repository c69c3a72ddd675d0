// Package drafts keeps local working copies in SQLite so an edit survives
// a rejected commit or a lost connection.
package drafts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/frontmatter"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS drafts (
	directory     TEXT NOT NULL,
	document      TEXT NOT NULL,
	filename      TEXT NOT NULL,
	contents      TEXT NOT NULL DEFAULT '',
	base_revision TEXT NOT NULL DEFAULT '',
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (directory, document, filename)
);
`

// Draft is one stashed working copy. Contents holds the full file body,
// front matter included. BaseRevision records the repository revision the
// copy was taken from.
type Draft struct {
	Directory    string
	Document     string
	Filename     string
	Contents     string
	BaseRevision string
	UpdatedAt    time.Time
}

// DB wraps a sql.DB with draft stash operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the draft database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("drafts: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("drafts: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("drafts: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Stash inserts or replaces a draft. A zero UpdatedAt is stamped with the
// current time.
func (db *DB) Stash(d Draft) error {
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO drafts (directory, document, filename, contents, base_revision, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(directory, document, filename) DO UPDATE SET
			contents      = excluded.contents,
			base_revision = excluded.base_revision,
			updated_at    = excluded.updated_at
	`, d.Directory, d.Document, d.Filename, d.Contents, d.BaseRevision, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("drafts: stash %s/%s/%s: %w", d.Directory, d.Document, d.Filename, err)
	}
	return nil
}

// Get returns one draft, or apperr.ErrNotFound.
func (db *DB) Get(directory, doc, filename string) (Draft, error) {
	d := Draft{Directory: directory, Document: doc, Filename: filename}
	err := db.conn.QueryRow(`
		SELECT contents, base_revision, updated_at FROM drafts
		WHERE directory = ? AND document = ? AND filename = ?
	`, directory, doc, filename).Scan(&d.Contents, &d.BaseRevision, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, fmt.Errorf("drafts: %s/%s/%s: %w", directory, doc, filename, apperr.ErrNotFound)
	}
	if err != nil {
		return Draft{}, fmt.Errorf("drafts: get: %w", err)
	}
	return d, nil
}

// List returns every stashed draft, most recently updated first.
func (db *DB) List() ([]Draft, error) {
	rows, err := db.conn.Query(`
		SELECT directory, document, filename, contents, base_revision, updated_at
		FROM drafts ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("drafts: list: %w", err)
	}
	defer rows.Close()

	var out []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(&d.Directory, &d.Document, &d.Filename, &d.Contents, &d.BaseRevision, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes a draft. Deleting an absent draft is not an error.
func (db *DB) Delete(directory, doc, filename string) error {
	_, err := db.conn.Exec(`
		DELETE FROM drafts WHERE directory = ? AND document = ? AND filename = ?
	`, directory, doc, filename)
	if err != nil {
		return fmt.Errorf("drafts: delete: %w", err)
	}
	return nil
}

// FromDocument converts a loaded document into a stashable draft.
func FromDocument(d *document.Document, baseRevision string) (Draft, error) {
	data, err := frontmatter.Encode(d.FrontMatter, d.Markdown)
	if err != nil {
		return Draft{}, fmt.Errorf("drafts: encode document: %w", err)
	}
	return Draft{
		Directory:    d.Path,
		Document:     d.Slug,
		Filename:     d.Filename(),
		Contents:     string(data),
		BaseRevision: baseRevision,
	}, nil
}
