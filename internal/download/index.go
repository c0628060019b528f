package download

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry records one cached download.
type Entry struct {
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	ETag      string    `json:"etag,omitempty"`
	SHA256    string    `json:"sha256"`
	Size      int64     `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Index is the SQLite table mapping source URLs to cached files.
type Index struct {
	db *sql.DB
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS downloads (
	url        TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	etag       TEXT,
	sha256     TEXT NOT NULL,
	size       INTEGER NOT NULL,
	fetched_at TEXT NOT NULL
)`

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("download: create index dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("download: open index: %w", err)
	}
	// Split downloads run concurrently; one connection serialises writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("download: ping index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("download: migrate index: %w", err)
	}
	return &Index{db: db}, nil
}

// Get returns the entry for url, or nil if none is recorded.
func (ix *Index) Get(ctx context.Context, url string) (*Entry, error) {
	var (
		e       Entry
		etag    sql.NullString
		fetched string
	)
	err := ix.db.QueryRowContext(ctx,
		`SELECT url, path, etag, sha256, size, fetched_at FROM downloads WHERE url = ?`, url,
	).Scan(&e.URL, &e.Path, &etag, &e.SHA256, &e.Size, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("download: get %q: %w", url, err)
	}
	if etag.Valid {
		e.ETag = etag.String
	}
	e.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	return &e, nil
}

// Put inserts or replaces the entry for e.URL.
func (ix *Index) Put(ctx context.Context, e Entry) error {
	_, err := ix.db.ExecContext(ctx,
		`INSERT INTO downloads (url, path, etag, sha256, size, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			path = excluded.path, etag = excluded.etag, sha256 = excluded.sha256,
			size = excluded.size, fetched_at = excluded.fetched_at`,
		e.URL, e.Path, nullIfEmpty(e.ETag), e.SHA256, e.Size, e.FetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("download: put %q: %w", e.URL, err)
	}
	return nil
}

// List returns all entries ordered by URL.
func (ix *Index) List(ctx context.Context) ([]Entry, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT url, path, etag, sha256, size, fetched_at FROM downloads ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("download: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			etag    sql.NullString
			fetched string
		)
		if err := rows.Scan(&e.URL, &e.Path, &etag, &e.SHA256, &e.Size, &fetched); err != nil {
			return nil, fmt.Errorf("download: scan: %w", err)
		}
		e.ETag = etag.String
		e.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the entry for url. Missing entries are not an error.
func (ix *Index) Delete(ctx context.Context, url string) error {
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM downloads WHERE url = ?`, url); err != nil {
		return fmt.Errorf("download: delete %q: %w", url, err)
	}
	return nil
}

// Close closes the database.
func (ix *Index) Close() error { return ix.db.Close() }

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
