package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/thecodingpenguins/extractify/internal/crawler"
	"github.com/thecodingpenguins/extractify/internal/extractor"
)

// CrawlDB mirrors pages and entities into an embedded SQLite database for
// ad-hoc querying and CSV export. It is optional; the JSON files remain the
// canonical contract.
type CrawlDB struct {
	db *sql.DB
}

const crawlDBSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT UNIQUE NOT NULL,
	title TEXT,
	content TEXT
);
CREATE TABLE IF NOT EXISTS entities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT,
	name TEXT,
	type TEXT,
	url TEXT,
	snippet TEXT,
	score REAL,
	phone TEXT,
	address TEXT,
	passing_year TEXT
);
`

// OpenCrawlDB opens (creating if needed) the database at path.
func OpenCrawlDB(path string) (*CrawlDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(crawlDBSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &CrawlDB{db: db}, nil
}

// Close releases the database handle.
func (d *CrawlDB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// SavePages upserts the crawled pages.
func (d *CrawlDB) SavePages(ctx context.Context, pages []crawler.PageRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, p := range pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO pages (url, title, content) VALUES (?, ?, ?)`,
			p.URL, p.Title, p.Text,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert page %s: %w", p.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pages: %w", err)
	}
	return nil
}

// ReplaceEntities clears and rewrites the entity rows for a domain.
func (d *CrawlDB) ReplaceEntities(ctx context.Context, domain string, entities []extractor.Entity) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE domain = ?`, domain); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear entities: %w", err)
	}
	for _, e := range entities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entities (domain, name, type, url, snippet, score, phone, address, passing_year)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			domain, nullable(e.Name), nullable(e.Type), nullable(e.URL), nullable(e.Snippet),
			e.Score, nullable(e.Phone), nullable(e.Address), nullable(e.PassingYear),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert entity: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entities: %w", err)
	}
	return nil
}

// ExportEntitiesCSV streams every stored entity as CSV.
func (d *CrawlDB) ExportEntitiesCSV(ctx context.Context, w io.Writer) error {
	rows, err := d.db.QueryContext(ctx,
		`SELECT domain, name, type, url, snippet, score, phone, address, passing_year
		 FROM entities ORDER BY score DESC, name ASC`)
	if err != nil {
		return fmt.Errorf("query entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"domain", "name", "type", "url", "snippet", "score", "phone", "address", "passing_year"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for rows.Next() {
		var domain string
		var name, typ, url, snippet, phone, address, year sql.NullString
		var score float64
		if err := rows.Scan(&domain, &name, &typ, &url, &snippet, &score, &phone, &address, &year); err != nil {
			return fmt.Errorf("scan entity row: %w", err)
		}
		record := []string{
			domain, name.String, typ.String, url.String, snippet.String,
			strconv.FormatFloat(score, 'f', 3, 64),
			phone.String, address.String, year.String,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate entities: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
