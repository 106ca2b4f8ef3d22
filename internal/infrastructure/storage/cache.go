package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"NewsCurator/internal/ports"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS summary_cache (
	url         TEXT PRIMARY KEY,
	summary     TEXT NOT NULL,
	category    TEXT NOT NULL,
	keyword     TEXT NOT NULL DEFAULT '',
	updated_at  TEXT NOT NULL
);`

// SummaryCacheDB is the sqlite-backed summary cache. Only validated
// summaries are stored, so a cache hit is always safe to republish.
type SummaryCacheDB struct {
	db *sql.DB
}

var _ ports.SummaryCache = (*SummaryCacheDB)(nil)

// OpenSummaryCache opens (and if needed creates) the cache database.
func OpenSummaryCache(path string) (*SummaryCacheDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open summary cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init summary cache schema: %w", err)
	}
	return &SummaryCacheDB{db: db}, nil
}

// Get looks up a previously accepted annotation for the URL.
func (c *SummaryCacheDB) Get(url string) (ports.CachedAnnotation, bool, error) {
	query, args, err := sq.Select("url", "summary", "category", "keyword").
		From("summary_cache").
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return ports.CachedAnnotation{}, false, fmt.Errorf("build cache query: %w", err)
	}

	var entry ports.CachedAnnotation
	row := c.db.QueryRow(query, args...)
	if err := row.Scan(&entry.URL, &entry.Summary, &entry.Category, &entry.MainKeyword); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.CachedAnnotation{}, false, nil
		}
		return ports.CachedAnnotation{}, false, fmt.Errorf("query cache: %w", err)
	}
	return entry, true, nil
}

// Put upserts a validated annotation.
func (c *SummaryCacheDB) Put(entry ports.CachedAnnotation) error {
	query, args, err := sq.Insert("summary_cache").
		Columns("url", "summary", "category", "keyword", "updated_at").
		Values(entry.URL, entry.Summary, entry.Category, entry.MainKeyword, time.Now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(url) DO UPDATE SET summary=excluded.summary, category=excluded.category, keyword=excluded.keyword, updated_at=excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build cache upsert: %w", err)
	}
	if _, err := c.db.Exec(query, args...); err != nil {
		return fmt.Errorf("upsert cache: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (c *SummaryCacheDB) Close() error {
	return c.db.Close()
}
